// Package inmem provides a non-persistent dao.Store backed by plain maps,
// useful for tests and for running the server without a database.
package inmem

import (
	"fmt"

	"github.com/dekarrin/sequitur/server/dao"
)

type store struct {
	users  *UsersRepository
	seshes *SessionsRepository
}

// NewDatastore returns a dao.Store whose data lives only in process memory
// and is lost on restart.
func NewDatastore() dao.Store {
	return &store{
		users:  NewUsersRepository(),
		seshes: NewSessionsRepository(),
	}
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Sessions() dao.SessionRepository {
	return s.seshes
}

func (s *store) Close() error {
	var err error

	if closeErr := s.users.Close(); closeErr != nil {
		err = closeErr
	}
	if closeErr := s.seshes.Close(); closeErr != nil {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, closeErr)
		} else {
			err = closeErr
		}
	}

	return err
}
