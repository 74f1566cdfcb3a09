package inmem

import (
	"context"
	"fmt"
	"time"

	"github.com/dekarrin/sequitur/server/dao"
	"github.com/google/uuid"
)

// NewUsersRepository returns an empty, ready-to-use in-memory user store.
func NewUsersRepository() *UsersRepository {
	return &UsersRepository{
		users:           make(map[uuid.UUID]dao.User),
		byUsernameIndex: make(map[string]uuid.UUID),
	}
}

// UsersRepository is a dao.UserRepository backed by maps guarded by nothing:
// callers must serialize their own access, same as the server does for every
// other repository.
type UsersRepository struct {
	users           map[uuid.UUID]dao.User
	byUsernameIndex map[string]uuid.UUID
}

func (r *UsersRepository) Close() error {
	return nil
}

func (r *UsersRepository) Create(ctx context.Context, user dao.User) (dao.User, error) {
	newID, err := uuid.NewRandom()
	if err != nil {
		return dao.User{}, fmt.Errorf("could not generate ID: %w", err)
	}
	user.ID = newID

	if _, ok := r.byUsernameIndex[user.Username]; ok {
		return dao.User{}, dao.ErrConstraintViolation
	}

	user.Created = time.Now()
	user.LastLogoutTime = time.Now()

	r.users[user.ID] = user
	r.byUsernameIndex[user.Username] = user.ID

	return user, nil
}

func (r *UsersRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.User, error) {
	user, ok := r.users[id]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}
	return user, nil
}

func (r *UsersRepository) GetByUsername(ctx context.Context, username string) (dao.User, error) {
	id, ok := r.byUsernameIndex[username]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}
	return r.users[id], nil
}

func (r *UsersRepository) Update(ctx context.Context, id uuid.UUID, user dao.User) (dao.User, error) {
	existing, ok := r.users[id]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}

	if user.Username != existing.Username {
		if _, ok := r.byUsernameIndex[user.Username]; ok {
			return dao.User{}, dao.ErrConstraintViolation
		}
	}

	if user.ID != id {
		if _, ok := r.users[user.ID]; ok {
			return dao.User{}, dao.ErrConstraintViolation
		}
		delete(r.users, id)
	}

	delete(r.byUsernameIndex, existing.Username)
	r.users[user.ID] = user
	r.byUsernameIndex[user.Username] = user.ID

	return user, nil
}
