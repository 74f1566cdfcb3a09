// Package sqlite provides a dao.Store backed by a SQLite database, persisting
// only user accounts and session metadata plus the terminal bytes pushed
// into each session. No grammar structure is ever written to disk; on load a
// session's terminals are replayed back through a fresh engine.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dekarrin/sequitur/server/dao"
	"modernc.org/sqlite"
)

type store struct {
	dbFilename string
	db         *sql.DB

	users  *UsersDB
	seshes *SessionsDB
}

// NewDatastore opens (creating if necessary) a SQLite database under
// storageDir and returns a dao.Store backed by it.
func NewDatastore(storageDir string) (dao.Store, error) {
	st := &store{dbFilename: "data.db"}

	fileName := filepath.Join(storageDir, st.dbFilename)

	var err error
	st.db, err = sql.Open("sqlite", fileName)
	if err != nil {
		return nil, wrapDBError(err)
	}

	st.users = &UsersDB{db: st.db}
	if err := st.users.init(); err != nil {
		return nil, err
	}

	st.seshes = &SessionsDB{db: st.db}
	if err := st.seshes.init(); err != nil {
		return nil, err
	}

	return st, nil
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Sessions() dao.SessionRepository {
	return s.seshes
}

func (s *store) Close() error {
	return s.db.Close()
}

// wrapDBError translates a raw database/sql or modernc.org/sqlite error into
// one of the dao sentinel errors where possible.
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}

	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code() == 19 { // SQLITE_CONSTRAINT
			return dao.ErrConstraintViolation
		}
		return fmt.Errorf("%s", sqlite.ErrorCodeString[sqliteErr.Code()])
	}
	if errors.Is(err, sql.ErrNoRows) {
		return dao.ErrNotFound
	}
	return err
}
