package inmem

import (
	"context"
	"fmt"
	"time"

	"github.com/dekarrin/derivparse/internal/util"
	"github.com/dekarrin/derivparse/server/dao"
	"github.com/google/uuid"
)

func NewGrammarsRepository() *InMemoryGrammarsRepository {
	return &InMemoryGrammarsRepository{
		grammars: make(map[uuid.UUID]dao.Grammar),
	}
}

type InMemoryGrammarsRepository struct {
	grammars map[uuid.UUID]dao.Grammar
}

func (imgr *InMemoryGrammarsRepository) Close() error {
	return nil
}

func (imgr *InMemoryGrammarsRepository) Create(ctx context.Context, g dao.Grammar) (dao.Grammar, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("could not generate ID: %w", err)
	}

	g.ID = newUUID
	g.Created = time.Now()
	g.Modified = g.Created

	imgr.grammars[g.ID] = g

	return g, nil
}

func (imgr *InMemoryGrammarsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	g, ok := imgr.grammars[id]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}
	return g, nil
}

func (imgr *InMemoryGrammarsRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Grammar, error) {
	var matches []dao.Grammar
	for _, g := range imgr.grammars {
		if g.OwnerID == userID {
			matches = append(matches, g)
		}
	}

	matches = util.SortBy(matches, func(l, r dao.Grammar) bool {
		return l.ID.String() < r.ID.String()
	})

	return matches, nil
}

func (imgr *InMemoryGrammarsRepository) GetAll(ctx context.Context) ([]dao.Grammar, error) {
	all := make([]dao.Grammar, 0, len(imgr.grammars))
	for _, g := range imgr.grammars {
		all = append(all, g)
	}

	all = util.SortBy(all, func(l, r dao.Grammar) bool {
		return l.ID.String() < r.ID.String()
	})

	return all, nil
}

func (imgr *InMemoryGrammarsRepository) Update(ctx context.Context, id uuid.UUID, g dao.Grammar) (dao.Grammar, error) {
	if _, ok := imgr.grammars[id]; !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}

	if g.ID != id {
		if _, ok := imgr.grammars[g.ID]; ok {
			return dao.Grammar{}, dao.ErrConstraintViolation
		}
	}

	g.Modified = time.Now()
	imgr.grammars[g.ID] = g
	if g.ID != id {
		delete(imgr.grammars, id)
	}

	return g, nil
}

func (imgr *InMemoryGrammarsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	g, ok := imgr.grammars[id]
	if !ok {
		return dao.Grammar{}, dao.ErrNotFound
	}

	delete(imgr.grammars, id)

	return g, nil
}
