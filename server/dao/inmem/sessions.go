package inmem

import (
	"context"
	"fmt"
	"time"

	"github.com/dekarrin/sequitur/server/dao"
	"github.com/google/uuid"
)

// NewSessionsRepository returns an empty, ready-to-use in-memory session
// store.
func NewSessionsRepository() *SessionsRepository {
	return &SessionsRepository{
		seshes:        make(map[uuid.UUID]dao.Session),
		byOwnerIDIndex: make(map[uuid.UUID][]uuid.UUID),
	}
}

// SessionsRepository is a dao.SessionRepository backed by maps.
type SessionsRepository struct {
	seshes         map[uuid.UUID]dao.Session
	byOwnerIDIndex map[uuid.UUID][]uuid.UUID
}

func (r *SessionsRepository) Close() error {
	return nil
}

func (r *SessionsRepository) Create(ctx context.Context, sesh dao.Session) (dao.Session, error) {
	newID, err := uuid.NewRandom()
	if err != nil {
		return dao.Session{}, fmt.Errorf("could not generate ID: %w", err)
	}
	sesh.ID = newID
	sesh.Created = time.Now()

	r.seshes[sesh.ID] = sesh
	r.byOwnerIDIndex[sesh.OwnerID] = append(r.byOwnerIDIndex[sesh.OwnerID], sesh.ID)

	return sesh, nil
}

func (r *SessionsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Session, error) {
	sesh, ok := r.seshes[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}
	return sesh, nil
}

func (r *SessionsRepository) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Session, error) {
	ids := r.byOwnerIDIndex[userID]
	all := make([]dao.Session, len(ids))
	for i := range ids {
		all[i] = r.seshes[ids[i]]
	}
	return all, nil
}

func (r *SessionsRepository) AppendTerminals(ctx context.Context, id uuid.UUID, data []byte) (dao.Session, error) {
	sesh, ok := r.seshes[id]
	if !ok {
		return dao.Session{}, dao.ErrNotFound
	}

	sesh.Terminals = append(sesh.Terminals, data...)
	r.seshes[id] = sesh

	return sesh, nil
}

func (r *SessionsRepository) Delete(ctx context.Context, id uuid.UUID) error {
	sesh, ok := r.seshes[id]
	if !ok {
		return dao.ErrNotFound
	}

	owned := r.byOwnerIDIndex[sesh.OwnerID]
	for i, candidate := range owned {
		if candidate == id {
			owned = append(owned[:i], owned[i+1:]...)
			break
		}
	}
	if len(owned) == 0 {
		delete(r.byOwnerIDIndex, sesh.OwnerID)
	} else {
		r.byOwnerIDIndex[sesh.OwnerID] = owned
	}

	delete(r.seshes, id)

	return nil
}
