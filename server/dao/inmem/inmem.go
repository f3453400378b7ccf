// Package inmem provides a volatile, map-backed implementation of dao.Store
// suitable for tests and for running the server without a persistence
// backend.
package inmem

import (
	"fmt"

	"github.com/dekarrin/derivparse/server/dao"
)

type store struct {
	users    *InMemoryUsersRepository
	grammars *InMemoryGrammarsRepository
	runs     *InMemoryParseRunsRepository
}

func NewDatastore() dao.Store {
	return &store{
		users:    NewUsersRepository(),
		grammars: NewGrammarsRepository(),
		runs:     NewParseRunsRepository(),
	}
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Grammars() dao.GrammarRepository {
	return s.grammars
}

func (s *store) ParseRuns() dao.ParseRunRepository {
	return s.runs
}

func (s *store) Close() error {
	var err error

	for _, nextErr := range []error{s.users.Close(), s.grammars.Close(), s.runs.Close()} {
		if nextErr == nil {
			continue
		}
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, nextErr)
		} else {
			err = nextErr
		}
	}

	return err
}
