package inmem

import (
	"context"
	"fmt"
	"time"

	"github.com/dekarrin/derivparse/internal/util"
	"github.com/dekarrin/derivparse/server/dao"
	"github.com/google/uuid"
)

func NewParseRunsRepository() *InMemoryParseRunsRepository {
	return &InMemoryParseRunsRepository{
		runs: make(map[uuid.UUID]dao.ParseRun),
	}
}

type InMemoryParseRunsRepository struct {
	runs map[uuid.UUID]dao.ParseRun
}

func (impr *InMemoryParseRunsRepository) Close() error {
	return nil
}

func (impr *InMemoryParseRunsRepository) Create(ctx context.Context, r dao.ParseRun) (dao.ParseRun, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.ParseRun{}, fmt.Errorf("could not generate ID: %w", err)
	}

	r.ID = newUUID
	r.Created = time.Now()

	impr.runs[r.ID] = r

	return r, nil
}

func (impr *InMemoryParseRunsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.ParseRun, error) {
	r, ok := impr.runs[id]
	if !ok {
		return dao.ParseRun{}, dao.ErrNotFound
	}
	return r, nil
}

func (impr *InMemoryParseRunsRepository) GetAllByGrammar(ctx context.Context, grammarID uuid.UUID) ([]dao.ParseRun, error) {
	var matches []dao.ParseRun
	for _, r := range impr.runs {
		if r.GrammarID == grammarID {
			matches = append(matches, r)
		}
	}

	matches = util.SortBy(matches, func(l, r dao.ParseRun) bool {
		return l.ID.String() < r.ID.String()
	})

	return matches, nil
}

func (impr *InMemoryParseRunsRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.ParseRun, error) {
	var matches []dao.ParseRun
	for _, r := range impr.runs {
		if r.OwnerID == userID {
			matches = append(matches, r)
		}
	}

	matches = util.SortBy(matches, func(l, r dao.ParseRun) bool {
		return l.ID.String() < r.ID.String()
	})

	return matches, nil
}

func (impr *InMemoryParseRunsRepository) Update(ctx context.Context, id uuid.UUID, r dao.ParseRun) (dao.ParseRun, error) {
	if _, ok := impr.runs[id]; !ok {
		return dao.ParseRun{}, dao.ErrNotFound
	}

	if r.ID != id {
		if _, ok := impr.runs[r.ID]; ok {
			return dao.ParseRun{}, dao.ErrConstraintViolation
		}
	}

	impr.runs[r.ID] = r
	if r.ID != id {
		delete(impr.runs, id)
	}

	return r, nil
}

func (impr *InMemoryParseRunsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.ParseRun, error) {
	r, ok := impr.runs[id]
	if !ok {
		return dao.ParseRun{}, dao.ErrNotFound
	}

	delete(impr.runs, id)

	return r, nil
}
