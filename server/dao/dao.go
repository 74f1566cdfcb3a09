// Package dao provides data access objects for use in the sequitur server.
package dao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
	ErrNotFound            = errors.New("the requested resource was not found")
)

// Store holds all the repositories a running server needs.
type Store interface {
	Users() UserRepository
	Sessions() SessionRepository
	Close() error
}

// User is an account that can authenticate and own grammar sessions.
type User struct {
	ID             uuid.UUID // PK, NOT NULL
	Username       string    // UNIQUE, NOT NULL
	Password       string    // bcrypt hash, NOT NULL
	Created        time.Time // NOT NULL
	LastLogoutTime time.Time // NOT NULL, used to invalidate outstanding JWTs on logout
}

// UserRepository manages User records.
type UserRepository interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Update(ctx context.Context, id uuid.UUID, user User) (User, error)
	Close() error
}

// Session is one grammar engine's persisted identity: who owns it, when it
// was created, and the full sequence of terminal bytes pushed into it so
// far. Terminals is replayed through a fresh engine on load; it is never a
// serialized grammar.
type Session struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Created   time.Time
	Terminals []byte
}

// SessionRepository manages Session records.
type SessionRepository interface {
	Create(ctx context.Context, sesh Session) (Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (Session, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]Session, error)

	// AppendTerminals records additional pushed bytes against an existing
	// session's history.
	AppendTerminals(ctx context.Context, id uuid.UUID, data []byte) (Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Close() error
}
