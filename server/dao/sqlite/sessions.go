package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/dekarrin/rezi"
	"github.com/dekarrin/sequitur/server/dao"
	"github.com/google/uuid"
)

// SessionsDB is a dao.SessionRepository backed by a sessions table in db.
type SessionsDB struct {
	db *sql.DB
}

func (repo *SessionsDB) init() error {
	_, err := repo.db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT NOT NULL PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE,
		created INTEGER NOT NULL,
		terminals TEXT NOT NULL
	);`)
	return wrapDBError(err)
}

func (repo *SessionsDB) Create(ctx context.Context, s dao.Session) (dao.Session, error) {
	newID, err := uuid.NewRandom()
	if err != nil {
		return dao.Session{}, fmt.Errorf("could not generate ID: %w", err)
	}

	now := time.Now()
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO sessions (id, owner_id, created, terminals) VALUES (?, ?, ?, ?)`,
		newID.String(), s.OwnerID.String(), now.Unix(), encodeTerminals(s.Terminals),
	)
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newID)
}

func (repo *SessionsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	s := dao.Session{ID: id}
	var ownerID, terminals string
	var created int64

	row := repo.db.QueryRowContext(ctx,
		`SELECT owner_id, created, terminals FROM sessions WHERE id = ?;`, id.String(),
	)
	if err := row.Scan(&ownerID, &created, &terminals); err != nil {
		return s, wrapDBError(err)
	}

	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return s, fmt.Errorf("stored owner ID %q is invalid: %w", ownerID, err)
	}
	s.OwnerID = owner
	s.Created = time.Unix(created, 0)

	s.Terminals, err = decodeTerminals(terminals)
	if err != nil {
		return s, fmt.Errorf("stored terminals for session %s are invalid: %w", s.ID, err)
	}

	return s, nil
}

func (repo *SessionsDB) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Session, error) {
	rows, err := repo.db.QueryContext(ctx,
		`SELECT id, created, terminals FROM sessions WHERE owner_id = ?;`, userID.String(),
	)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Session
	for rows.Next() {
		s := dao.Session{OwnerID: userID}
		var id, terminals string
		var created int64

		if err := rows.Scan(&id, &created, &terminals); err != nil {
			return nil, wrapDBError(err)
		}

		s.ID, err = uuid.Parse(id)
		if err != nil {
			return all, fmt.Errorf("stored UUID %q is invalid", id)
		}
		s.Created = time.Unix(created, 0)
		s.Terminals, err = decodeTerminals(terminals)
		if err != nil {
			return all, fmt.Errorf("stored terminals for session %s are invalid: %w", s.ID, err)
		}

		all = append(all, s)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *SessionsDB) AppendTerminals(ctx context.Context, id uuid.UUID, data []byte) (dao.Session, error) {
	s, err := repo.GetByID(ctx, id)
	if err != nil {
		return dao.Session{}, err
	}

	s.Terminals = append(s.Terminals, data...)

	res, err := repo.db.ExecContext(ctx,
		`UPDATE sessions SET terminals = ? WHERE id = ?;`, encodeTerminals(s.Terminals), id.String(),
	)
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.Session{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.Session{}, dao.ErrNotFound
	}

	return s, nil
}

func (repo *SessionsDB) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id.String())
	if err != nil {
		return wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.ErrNotFound
	}
	return nil
}

func (repo *SessionsDB) Close() error {
	return nil
}

// encodeTerminals REZI-encodes a terminal history and base64-encodes the
// result for storage in a TEXT column.
func encodeTerminals(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(rezi.EncBinary(data))
}

func decodeTerminals(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}

	reziBytes, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}

	var data []byte
	n, err := rezi.DecBinary(reziBytes, &data)
	if err != nil {
		return nil, err
	}
	if n != len(reziBytes) {
		return nil, fmt.Errorf("REZI decoded byte count mismatch; only consumed %d/%d bytes", n, len(reziBytes))
	}

	return data, nil
}
