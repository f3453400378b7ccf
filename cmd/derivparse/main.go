/*
Derivparse parses input against a grammar described in a small BNF-like text
format, using parsing with derivatives.

Usage:

	derivparse -g GRAMMAR_FILE -i INPUT_FILE
	derivparse -g GRAMMAR_FILE -r

In one-shot mode, derivparse reads the grammar file and the input file,
whitespace-tokenizes the input, parses it against the grammar's start
symbol(s), and prints every resulting parse tree. In REPL mode, it loads the
grammar once and then reads lines from stdin (via GNU readline where
available), tokenizing and parsing each line in turn.

The flags are:

	-v, --version
		Give the current version of derivparse and then exit.

	-g, --grammar FILE
		Parse the grammar description in FILE. Required unless -v is given.

	-i, --input FILE
		Tokenize and parse the contents of FILE against the grammar. Mutually
		exclusive with -r.

	-r, --repl
		Start an interactive read-parse-print loop instead of reading a single
		input file.
*/
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dekarrin/derivparse/internal/derive"
	"github.com/dekarrin/derivparse/internal/grammarfe"
	"github.com/dekarrin/derivparse/internal/input"
	"github.com/dekarrin/derivparse/internal/version"
	"github.com/dekarrin/ictiobus"
	"github.com/dekarrin/ictiobus/lex"
	"github.com/dekarrin/rosed"
	"github.com/spf13/pflag"
)

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitInitError indicates an unsuccessful program execution due to an
	// issue loading or translating the grammar.
	ExitInitError

	// ExitParseError indicates an unsuccessful program execution due to an
	// issue reading the input to parse.
	ExitParseError
)

var (
	returnCode  = ExitSuccess
	flagVersion = pflag.BoolP("version", "v", false, "Gives the version info")
	grammarFile = pflag.StringP("grammar", "g", "", "The grammar description file to parse against")
	inputFile   = pflag.StringP("input", "i", "", "The input file to tokenize and parse")
	flagRepl    = pflag.BoolP("repl", "r", false, "Start an interactive read-parse-print loop")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	if *grammarFile == "" {
		fmt.Fprintf(os.Stderr, "ERROR: -g/--grammar is required\n")
		returnCode = ExitInitError
		return
	}

	start, err := loadGrammar(*grammarFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	if *flagRepl {
		if err := runRepl(start); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitParseError
		}
		return
	}

	if *inputFile == "" {
		fmt.Fprintf(os.Stderr, "ERROR: -i/--input is required unless -r/--repl is given\n")
		returnCode = ExitInitError
		return
	}

	contents, err := os.ReadFile(*inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not read input file: %s\n", err.Error())
		returnCode = ExitParseError
		return
	}

	tokens, err := tokenizeInput(string(contents))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitParseError
		return
	}
	printParse(tokens, start)
}

// wordLexerClass is the single token class the CLI's lexer assigns to every
// non-whitespace run; the CLI has no notion of declared token kinds of its
// own; that belongs to the grammar given to it.
const wordLexerClass = "WORD"

// wordLexer builds an ictiobus lexer that splits on whitespace, the same
// boundaries strings.Fields used, but through a real lexical scanner instead
// of a hand-rolled split.
func wordLexer() lex.Lexer {
	lx := ictiobus.NewLexer()
	lx.RegisterClass(lex.NewTokenClass(wordLexerClass, "word"), "")
	lx.AddPattern(`\S+`, lex.LexAs(wordLexerClass), "", 0)
	lx.AddPattern(`\s+`, lex.Discard(), "", 0)
	return lx
}

// tokenizeInput splits text into whitespace-delimited tokens.
func tokenizeInput(text string) ([]string, error) {
	stream, err := wordLexer().Lex(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("tokenize input: %w", err)
	}

	var tokens []string
	for stream.HasNext() {
		tokens = append(tokens, stream.Next().Lexeme())
	}
	return tokens, nil
}

// loadGrammar reads, parses, and translates a grammar description file into
// the set of derive.Term graphs it declares as start symbols.
func loadGrammar(path string) ([]*derive.Term, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read grammar file: %w", err)
	}

	g, err := grammarfe.Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("could not parse grammar: %w", err)
	}

	_, start, err := grammarfe.Translate(g, grammarfe.TranslateOptions{})
	if err != nil {
		return nil, fmt.Errorf("could not translate grammar: %w", err)
	}

	return start, nil
}

// runRepl starts an interactive read-parse-print loop against start,
// preferring GNU readline and falling back to direct stdin reading when it
// is unavailable.
func runRepl(start []*derive.Term) error {
	reader, err := input.NewInteractiveReader()
	if err != nil {
		reader2 := input.NewDirectReader(os.Stdin)
		defer reader2.Close()
		return repl(reader2, start)
	}
	defer reader.Close()
	return repl(reader, start)
}

type lineReader interface {
	ReadCommand() (string, error)
	Close() error
}

func repl(r lineReader, start []*derive.Term) error {
	for {
		line, err := r.ReadCommand()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		tokens, err := tokenizeInput(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			continue
		}
		printParse(tokens, start)
	}
}

// printParse parses tokens against every term in start and prints the
// resulting trees, wrapped for terminal display with rosed.
func printParse(tokens []string, start []*derive.Term) {
	values := make([]derive.Value, len(tokens))
	for i, tok := range tokens {
		values[i] = derive.NewValue(tok)
	}

	for i, g := range start {
		trees := derive.ParseCompact(values, g)
		if len(trees) == 0 {
			fmt.Println(rosed.Edit(fmt.Sprintf("start symbol %d: no parse", i)).Wrap(80).String())
			continue
		}
		for _, t := range trees {
			fmt.Println(rosed.Edit(t.String()).Wrap(80).String())
		}
	}
}
