/*
Derivparse-server starts a derivparse server and begins listening for new
connections.

Usage:

	derivparse-server [flags]
	derivparse-server [flags] -l [[ADDRESS]:PORT]

Once started, the server will listen for HTTP requests and respond to them
using REST protocol. By default, it will listen on localhost:8080. This can
be changed with the --listen/-l flag (or config via environment var). The
flag argument must be either a full address with port, such as
"192.168.0.2:6001", or just the port preceeded by a colon, such as ":6001".

If a JWT token secret is not given, one will be automatically generated and
seeded with random bytes. As a consequence, in this mode of operation all
tokens are rendered invalid as soon as the server shuts down. This is
suitable for testing, but must be given via either CLI flags or environment
variable if running in production.

The flags are:

	-v, --version
		Give the current version of the derivparse server and then exit.

	-c, --config CONFIG_FILE
		Read additional settings from the given TOML config file. Any of
		--listen, --secret, and --db (or their environment variables) take
		precedence over the same setting in the config file.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. If not given, will default to the value of environment
		variable DERIVPARSE_LISTEN_ADDRESS, and if that is not given, will
		default to the config file's 'listen' key, and if that is not given
		either, will default to localhost:8080.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWT tokens. If there are less than
		32 bytes in the secret, it will be repeated until it is. The maximum
		size is 64 bytes. If not given, will default to the value of
		environment variable DERIVPARSE_TOKEN_SECRET. If no secret is
		specified or an empty secret is given, a random secret will be
		automatically generated. Note that any tokens issued with a random
		secret will become invalid as soon as the server shuts down.

	--db DRIVER[:PARAMS]
		Use the given DB connection string. DRIVER must be one of the
		following: inmem, sqlite. inmem has no further params. sqlite needs
		the path to the data directory, such as sqlite:path/to/db_dir. If not
		given, will default to the value of environment variable
		DERIVPARSE_DATABASE. If no DB driver is specified or an empty one is
		given, an in-memory database is automatically selected.
*/
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dekarrin/derivparse/internal/version"
	"github.com/dekarrin/derivparse/server"
	"github.com/dekarrin/derivparse/server/dao"
	"github.com/dekarrin/derivparse/server/serr"
	"github.com/spf13/pflag"
)

const (
	EnvListen = "DERIVPARSE_LISTEN_ADDRESS"
	EnvSecret = "DERIVPARSE_TOKEN_SECRET"
	EnvDB     = "DERIVPARSE_DATABASE"
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of the derivparse server and then exit.")
	flagConfig  = pflag.StringP("config", "c", "", "Read additional settings from the given TOML config file.")
	flagListen  = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret  = pflag.StringP("secret", "s", "", "Use the given secret for token generation.")
	flagDB      = pflag.String("db", "", "Use the given DB connection string.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("derivparse-server %s\n", version.Current)
		return
	}

	if args := pflag.Args(); len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	var fileCfg server.ConfigFile
	if *flagConfig != "" {
		loaded, err := server.LoadConfigFile(*flagConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err.Error())
			os.Exit(1)
		}
		fileCfg = loaded
	}

	addr, port, err := resolveListenAddr(fileCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err.Error())
		os.Exit(1)
	}

	dbCfg, err := resolveDBConfig(fileCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err.Error())
		os.Exit(1)
	}

	tokSecret := resolveTokenSecret(fileCfg)

	cfg := server.Config{
		TokenSecret: tokSecret,
		DB:          dbCfg,
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("FATAL could not start server: %s", err.Error())
	}
	log.Printf("DEBUG Server initialized")

	_, err = srv.Backend().CreateUser(context.Background(), "admin", "password", "bogus@example.com", dao.Admin)
	if err != nil && !errors.Is(err, serr.ErrAlreadyExists) {
		log.Printf("ERROR could not create initial admin user: %v", err)
		os.Exit(2)
	}
	if !errors.Is(err, serr.ErrAlreadyExists) {
		log.Printf("INFO  Added initial admin user with password 'password'...")
	}

	log.Printf("INFO  Starting derivparse server %s...", version.Current)
	if err := srv.ServeForever(addr, port); err != nil {
		log.Fatalf("FATAL server exited: %s", err.Error())
	}
}

func resolveListenAddr(fileCfg server.ConfigFile) (addr string, port int, err error) {
	listenAddr := fileCfg.Listen
	if envAddr := os.Getenv(EnvListen); envAddr != "" {
		listenAddr = envAddr
	}
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}
	if listenAddr == "" {
		return "localhost", 8080, nil
	}

	bindParts := strings.SplitN(listenAddr, ":", 2)
	if len(bindParts) != 2 {
		return "", 0, fmt.Errorf("listen address is not in ADDRESS:PORT or :PORT format")
	}

	port, err = strconv.Atoi(bindParts[1])
	if err != nil {
		return "", 0, fmt.Errorf("%q is not a valid port number", bindParts[1])
	}

	return bindParts[0], port, nil
}

func resolveDBConfig(fileCfg server.ConfigFile) (server.Database, error) {
	dbConnStr := fileCfg.DB
	if envDB := os.Getenv(EnvDB); envDB != "" {
		dbConnStr = envDB
	}
	if pflag.Lookup("db").Changed {
		dbConnStr = *flagDB
	}
	if dbConnStr == "" {
		return server.Database{Type: server.DatabaseInMemory}, nil
	}

	return server.ParseDBConnString(dbConnStr)
}

func resolveTokenSecret(fileCfg server.ConfigFile) []byte {
	tokSecStr := fileCfg.TokenSecret
	if envSec := os.Getenv(EnvSecret); envSec != "" {
		tokSecStr = envSec
	}
	if pflag.Lookup("secret").Changed {
		tokSecStr = *flagSecret
	}

	if tokSecStr == "" {
		tokSecret := make([]byte, server.MaxSecretSize)
		if _, err := rand.Read(tokSecret); err != nil {
			fmt.Fprintf(os.Stderr, "Could not generate token secret: %s\n", err.Error())
			os.Exit(1)
		}
		log.Printf("WARN  Using generated token secret; all tokens issued will become invalid at shutdown")
		return tokSecret
	}

	tokSecret := []byte(tokSecStr)
	for len(tokSecret) < server.MinSecretSize {
		doubled := make([]byte, len(tokSecret)*2)
		copy(doubled, tokSecret)
		copy(doubled[len(tokSecret):], tokSecret)
		tokSecret = doubled
	}
	if len(tokSecret) > server.MaxSecretSize {
		fmt.Fprintf(os.Stderr, "Token secret is %d bytes, but it must be <= %d bytes\n", len(tokSecret), server.MaxSecretSize)
		os.Exit(1)
	}

	return tokSecret
}
