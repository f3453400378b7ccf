package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/derivparse/server/dao"
	"github.com/dekarrin/derivparse/server/serr"
	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
)

type ParseRunsDB struct {
	db *sql.DB
}

func (repo *ParseRunsDB) init(fk bool) error {
	stmt := `CREATE TABLE IF NOT EXISTS parse_runs (
		id TEXT NOT NULL PRIMARY KEY,
		grammar_id TEXT NOT NULL`

	if fk {
		stmt += ` REFERENCES grammars(id) ON DELETE CASCADE ON UPDATE CASCADE`
	}

	stmt += `,
		owner_id TEXT NOT NULL,
		input TEXT NOT NULL,
		trees BLOB NOT NULL,
		created INTEGER NOT NULL
	);`
	_, err := repo.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

// encodeTrees REZI-encodes a parse run's result trees for storage as a BLOB
// column, the same approach the teacher used for its own binary-serialized
// state column.
func encodeTrees(trees []string) []byte {
	return rezi.EncBinary(trees)
}

func decodeTrees(data []byte, target *[]string) error {
	var trees []string
	n, err := rezi.DecBinary(data, &trees)
	if err != nil {
		return serr.New("REZI decode: %w", err, dao.ErrDecodingFailure)
	}
	if n != len(data) {
		return serr.New(fmt.Sprintf("REZI decoded byte count mismatch; only consumed %d/%d bytes", n, len(data)), dao.ErrDecodingFailure)
	}
	*target = trees
	return nil
}

func (repo *ParseRunsDB) Create(ctx context.Context, r dao.ParseRun) (dao.ParseRun, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.ParseRun{}, fmt.Errorf("could not generate ID: %w", err)
	}

	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO parse_runs (id, grammar_id, owner_id, input, trees, created) VALUES (?, ?, ?, ?, ?, ?)`,
		convertToDB_UUID(newUUID), convertToDB_UUID(r.GrammarID), convertToDB_UUID(r.OwnerID), r.Input,
		encodeTrees(r.Trees), convertToDB_Time(time.Now()),
	)
	if err != nil {
		return dao.ParseRun{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *ParseRunsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.ParseRun, error) {
	r := dao.ParseRun{ID: id}
	var grammarID, ownerID string
	var treeData []byte
	var created int64

	row := repo.db.QueryRowContext(ctx, `SELECT grammar_id, owner_id, input, trees, created FROM parse_runs WHERE id = ?;`, id.String())
	if err := row.Scan(&grammarID, &ownerID, &r.Input, &treeData, &created); err != nil {
		return r, wrapDBError(err)
	}

	if err := convertFromDB_UUID(grammarID, &r.GrammarID); err != nil {
		return r, err
	}
	if err := convertFromDB_UUID(ownerID, &r.OwnerID); err != nil {
		return r, err
	}
	if err := decodeTrees(treeData, &r.Trees); err != nil {
		return r, err
	}
	convertFromDB_Time(created, &r.Created)

	return r, nil
}

func (repo *ParseRunsDB) GetAllByGrammar(ctx context.Context, grammarID uuid.UUID) ([]dao.ParseRun, error) {
	return repo.queryAll(ctx, `SELECT id, grammar_id, owner_id, input, trees, created FROM parse_runs WHERE grammar_id = ?;`, grammarID.String())
}

func (repo *ParseRunsDB) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.ParseRun, error) {
	return repo.queryAll(ctx, `SELECT id, grammar_id, owner_id, input, trees, created FROM parse_runs WHERE owner_id = ?;`, userID.String())
}

func (repo *ParseRunsDB) queryAll(ctx context.Context, query string, args ...any) ([]dao.ParseRun, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.ParseRun

	for rows.Next() {
		var r dao.ParseRun
		var id, grammarID, ownerID string
		var treeData []byte
		var created int64

		if err := rows.Scan(&id, &grammarID, &ownerID, &r.Input, &treeData, &created); err != nil {
			return nil, wrapDBError(err)
		}

		if err := convertFromDB_UUID(id, &r.ID); err != nil {
			return all, err
		}
		if err := convertFromDB_UUID(grammarID, &r.GrammarID); err != nil {
			return all, err
		}
		if err := convertFromDB_UUID(ownerID, &r.OwnerID); err != nil {
			return all, err
		}
		if err := decodeTrees(treeData, &r.Trees); err != nil {
			return all, err
		}
		convertFromDB_Time(created, &r.Created)

		all = append(all, r)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *ParseRunsDB) Update(ctx context.Context, id uuid.UUID, r dao.ParseRun) (dao.ParseRun, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE parse_runs SET id=?, grammar_id=?, owner_id=?, input=?, trees=? WHERE id=?;`,
		convertToDB_UUID(r.ID), convertToDB_UUID(r.GrammarID), convertToDB_UUID(r.OwnerID), r.Input, encodeTrees(r.Trees), id.String(),
	)
	if err != nil {
		return dao.ParseRun{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.ParseRun{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.ParseRun{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, r.ID)
}

func (repo *ParseRunsDB) Delete(ctx context.Context, id uuid.UUID) (dao.ParseRun, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM parse_runs WHERE id = ?`, id.String())
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

func (repo *ParseRunsDB) Close() error {
	return nil
}
