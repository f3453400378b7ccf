// Package dao provides data access objects for use in the derivparse server.
package dao

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store holds all the repositories needed by the server.
type Store interface {
	Users() UserRepository
	Grammars() GrammarRepository
	ParseRuns() ParseRunRepository
	Close() error
}

type UserRepository interface {
	// Create creates a new User. All attributes except for auto-generated
	// fields are taken from the provided User.
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id uuid.UUID, user User) (User, error)
	Delete(ctx context.Context, id uuid.UUID) (User, error)
	Close() error
}

type Role int

const (
	Guest Role = iota
	Unverified
	Normal

	Admin Role = 100
)

func (r Role) String() string {
	switch r {
	case Guest:
		return "guest"
	case Unverified:
		return "unverified"
	case Normal:
		return "normal"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", r)
	}
}

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "guest":
		return Guest, nil
	case "unverified":
		return Unverified, nil
	case "normal":
		return Normal, nil
	case "admin":
		return Admin, nil
	default:
		return Guest, fmt.Errorf("must be one of 'guest', 'unverified', 'normal', or 'admin'")
	}
}

type User struct {
	ID             uuid.UUID     // PK, NOT NULL
	Username       string        // UNIQUE, NOT NULL
	Password       string        // NOT NULL
	Email          *mail.Address // NOT NULL
	Role           Role          // NOT NULL
	Created        time.Time     // NOT NULL
	Modified       time.Time
	LastLogoutTime time.Time // NOT NULL DEFAULT NOW()
	LastLoginTime  time.Time // NOT NULL
}

// GrammarRepository stores the text of grammar descriptions a user has
// uploaded, along with whether they were found to translate cleanly into a
// derive.Term graph the last time they were checked.
type GrammarRepository interface {
	Create(ctx context.Context, g Grammar) (Grammar, error)
	GetByID(ctx context.Context, id uuid.UUID) (Grammar, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]Grammar, error)
	GetAll(ctx context.Context) ([]Grammar, error)
	Update(ctx context.Context, id uuid.UUID, g Grammar) (Grammar, error)
	Delete(ctx context.Context, id uuid.UUID) (Grammar, error)
	Close() error
}

type Grammar struct {
	ID       uuid.UUID // PK, NOT NULL
	OwnerID  uuid.UUID // FK (Many-to-One User.ID), NOT NULL
	Name     string    // NOT NULL
	Source   string    // NOT NULL, raw [tokens]/[rules]/[start] text
	Created  time.Time // NOT NULL
	Modified time.Time
}

// ParseRunRepository stores the record of one attempt to parse some tokens
// against a stored Grammar.
type ParseRunRepository interface {
	Create(ctx context.Context, r ParseRun) (ParseRun, error)
	GetByID(ctx context.Context, id uuid.UUID) (ParseRun, error)
	GetAllByGrammar(ctx context.Context, grammarID uuid.UUID) ([]ParseRun, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]ParseRun, error)
	Update(ctx context.Context, id uuid.UUID, r ParseRun) (ParseRun, error)
	Delete(ctx context.Context, id uuid.UUID) (ParseRun, error)
	Close() error
}

type ParseRun struct {
	ID        uuid.UUID // PK, NOT NULL
	GrammarID uuid.UUID // FK (Many-to-One Grammar.ID), NOT NULL
	OwnerID   uuid.UUID // FK (Many-to-One User.ID), NOT NULL
	Input     string    // NOT NULL, whitespace-tokenized before parsing
	Created   time.Time // NOT NULL

	// Trees holds the String() rendering of every resulting parse tree. An
	// empty slice means the input did not parse.
	Trees []string
}
