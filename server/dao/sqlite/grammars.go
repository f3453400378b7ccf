package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/derivparse/server/dao"
	"github.com/google/uuid"
)

type GrammarsDB struct {
	db *sql.DB
}

func (repo *GrammarsDB) init(fk bool) error {
	stmt := `CREATE TABLE IF NOT EXISTS grammars (
		id TEXT NOT NULL PRIMARY KEY,
		owner_id TEXT NOT NULL`

	if fk {
		stmt += ` REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE`
	}

	stmt += `,
		name TEXT NOT NULL,
		source TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL
	);`
	_, err := repo.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *GrammarsDB) Create(ctx context.Context, g dao.Grammar) (dao.Grammar, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("could not generate ID: %w", err)
	}

	now := convertToDB_Time(time.Now())

	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO grammars (id, owner_id, name, source, created, modified) VALUES (?, ?, ?, ?, ?, ?)`,
		convertToDB_UUID(newUUID), convertToDB_UUID(g.OwnerID), g.Name, g.Source, now, now,
	)
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *GrammarsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	g := dao.Grammar{ID: id}
	var ownerID string
	var created, modified int64

	row := repo.db.QueryRowContext(ctx, `SELECT owner_id, name, source, created, modified FROM grammars WHERE id = ?;`, id.String())
	if err := row.Scan(&ownerID, &g.Name, &g.Source, &created, &modified); err != nil {
		return g, wrapDBError(err)
	}

	if err := convertFromDB_UUID(ownerID, &g.OwnerID); err != nil {
		return g, err
	}
	convertFromDB_Time(created, &g.Created)
	convertFromDB_Time(modified, &g.Modified)

	return g, nil
}

func (repo *GrammarsDB) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Grammar, error) {
	return repo.queryAll(ctx, `SELECT id, owner_id, name, source, created, modified FROM grammars WHERE owner_id = ?;`, userID.String())
}

func (repo *GrammarsDB) GetAll(ctx context.Context) ([]dao.Grammar, error) {
	return repo.queryAll(ctx, `SELECT id, owner_id, name, source, created, modified FROM grammars;`)
}

func (repo *GrammarsDB) queryAll(ctx context.Context, query string, args ...any) ([]dao.Grammar, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Grammar

	for rows.Next() {
		var g dao.Grammar
		var id, ownerID string
		var created, modified int64

		if err := rows.Scan(&id, &ownerID, &g.Name, &g.Source, &created, &modified); err != nil {
			return nil, wrapDBError(err)
		}

		if err := convertFromDB_UUID(id, &g.ID); err != nil {
			return all, err
		}
		if err := convertFromDB_UUID(ownerID, &g.OwnerID); err != nil {
			return all, err
		}
		convertFromDB_Time(created, &g.Created)
		convertFromDB_Time(modified, &g.Modified)

		all = append(all, g)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *GrammarsDB) Update(ctx context.Context, id uuid.UUID, g dao.Grammar) (dao.Grammar, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE grammars SET id=?, owner_id=?, name=?, source=?, modified=? WHERE id=?;`,
		convertToDB_UUID(g.ID), convertToDB_UUID(g.OwnerID), g.Name, g.Source, convertToDB_Time(time.Now()), id.String(),
	)
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.Grammar{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, g.ID)
}

func (repo *GrammarsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM grammars WHERE id = ?`, id.String())
	if err != nil {
		return curVal, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return curVal, wrapDBError(err)
	}
	if rowsAff < 1 {
		return curVal, dao.ErrNotFound
	}

	return curVal, nil
}

func (repo *GrammarsDB) Close() error {
	return nil
}
