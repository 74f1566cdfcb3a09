// Package server runs the sequitur HTTP API: user accounts, session
// ownership, and a per-session mutex-guarded grammar engine.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/dekarrin/sequitur"
	"github.com/dekarrin/sequitur/internal/version"
	"github.com/dekarrin/sequitur/server/api"
	"github.com/dekarrin/sequitur/server/config"
	"github.com/dekarrin/sequitur/server/dao"
	"github.com/dekarrin/sequitur/server/serr"
	"github.com/dekarrin/sequitur/server/token"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// liveSession pairs a persisted session's working engine with a mutex; the
// engine is strictly single-owner, so every operation against it (including
// the initial terminal replay) must hold the mutex for its duration.
type liveSession struct {
	mu     sync.Mutex
	engine *sequitur.Engine[byte]
}

// Server is a running sequitur server's full in-process state: the account
// and session store, JWT issuance, and the live engines sessions are
// currently using.
type Server struct {
	cfg    config.Config
	db     dao.Store
	tokens token.Service

	mu      sync.Mutex
	engines map[uuid.UUID]*liveSession
}

// New builds a Server from cfg, connecting to the configured database.
func New(cfg config.Config) (*Server, error) {
	cfg = cfg.FillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	store, err := cfg.DB.Connect()
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	return &Server{
		cfg:     cfg,
		db:      store,
		tokens:  token.New(cfg.TokenSecret),
		engines: make(map[uuid.UUID]*liveSession),
	}, nil
}

// CreateUser registers a new account with a bcrypt-hashed password.
func (s *Server) CreateUser(ctx context.Context, username, password string) (dao.User, error) {
	_, err := s.db.Users().GetByUsername(ctx, username)
	if err == nil {
		return dao.User{}, serr.New("user already exists", serr.ErrAlreadyExists)
	} else if err != dao.ErrNotFound {
		return dao.User{}, serr.WrapDB("look up existing user", err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return dao.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.db.Users().Create(ctx, dao.User{Username: username, Password: string(passHash)})
	if err != nil {
		if err == dao.ErrConstraintViolation {
			return dao.User{}, serr.New("user already exists", serr.ErrAlreadyExists)
		}
		return dao.User{}, serr.WrapDB("create user", err)
	}

	return user, nil
}

// Login verifies username/password and returns a signed JWT on success.
func (s *Server) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.db.Users().GetByUsername(ctx, username)
	if err != nil {
		if err == dao.ErrNotFound {
			return "", serr.New("", serr.ErrBadCredentials)
		}
		return "", serr.WrapDB("look up user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", serr.New("", serr.ErrBadCredentials)
	}

	tok, err := s.tokens.Generate(user)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	return tok, nil
}

// Logout advances who's LastLogoutTime, invalidating every JWT issued before
// the call.
func (s *Server) Logout(ctx context.Context, who uuid.UUID) error {
	existing, err := s.db.Users().GetByID(ctx, who)
	if err != nil {
		if err == dao.ErrNotFound {
			return serr.New("", serr.ErrNotFound)
		}
		return serr.WrapDB("look up user", err)
	}

	existing.LastLogoutTime = time.Now()
	if _, err := s.db.Users().Update(ctx, who, existing); err != nil {
		return serr.WrapDB("update user", err)
	}

	return nil
}

// CreateSession starts a new, empty grammar session owned by ownerID.
func (s *Server) CreateSession(ctx context.Context, ownerID uuid.UUID) (dao.Session, error) {
	sesh, err := s.db.Sessions().Create(ctx, dao.Session{OwnerID: ownerID})
	if err != nil {
		return dao.Session{}, serr.WrapDB("create session", err)
	}
	return sesh, nil
}

// sessionFor returns the live, mutex-guarded engine for id, loading and
// replaying its persisted terminal history on first access.
func (s *Server) sessionFor(ctx context.Context, id uuid.UUID) (*liveSession, error) {
	s.mu.Lock()
	live, ok := s.engines[id]
	if ok {
		s.mu.Unlock()
		return live, nil
	}
	s.mu.Unlock()

	sesh, err := s.db.Sessions().GetByID(ctx, id)
	if err != nil {
		if err == dao.ErrNotFound {
			return nil, serr.New("", serr.ErrNotFound)
		}
		return nil, serr.WrapDB("look up session", err)
	}

	eng := sequitur.New[byte]()
	sequitur.PushBytes(eng, sesh.Terminals)

	s.mu.Lock()
	defer s.mu.Unlock()
	if live, ok := s.engines[id]; ok {
		return live, nil
	}
	live = &liveSession{engine: eng}
	s.engines[id] = live
	return live, nil
}

// PushTerminals appends data to session id's terminal history, re-enforcing
// grammar invariants over every byte pushed, and persists the new history.
func (s *Server) PushTerminals(ctx context.Context, id uuid.UUID, data []byte) error {
	if len(data) > s.cfg.MaxPushBytes {
		return serr.New(fmt.Sprintf("push exceeds maximum of %d bytes", s.cfg.MaxPushBytes), serr.ErrTooLarge)
	}

	live, err := s.sessionFor(ctx, id)
	if err != nil {
		return err
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	sequitur.PushBytes(live.engine, data)

	if _, err := s.db.Sessions().AppendTerminals(ctx, id, data); err != nil {
		return serr.WrapDB("persist terminals", err)
	}

	return nil
}

// Rules returns the current rule table for session id.
func (s *Server) Rules(ctx context.Context, id uuid.UUID) (map[int]*sequitur.Rule[byte], int, error) {
	live, err := s.sessionFor(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	return live.engine.Rules(), live.engine.StartRuleID(), nil
}

// Flatten returns the fully expanded terminal sequence for session id, in
// reverse order if reverse is true.
func (s *Server) Flatten(ctx context.Context, id uuid.UUID, reverse bool) ([]byte, error) {
	live, err := s.sessionFor(ctx, id)
	if err != nil {
		return nil, err
	}

	live.mu.Lock()
	defer live.mu.Unlock()

	if reverse {
		return sequitur.FlattenReverse(live.engine), nil
	}
	return sequitur.Flatten(live.engine), nil
}

// DeleteSession discards session id's live engine and its persisted record.
func (s *Server) DeleteSession(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	delete(s.engines, id)
	s.mu.Unlock()

	if err := s.db.Sessions().Delete(ctx, id); err != nil {
		if err == dao.ErrNotFound {
			return serr.New("", serr.ErrNotFound)
		}
		return serr.WrapDB("delete session", err)
	}
	return nil
}

// SessionsOwnedBy lists every session owned by userID.
func (s *Server) SessionsOwnedBy(ctx context.Context, userID uuid.UUID) ([]dao.Session, error) {
	seshes, err := s.db.Sessions().GetAllByUser(ctx, userID)
	if err != nil {
		return nil, serr.WrapDB("list sessions", err)
	}
	return seshes, nil
}

// Users exposes the underlying user repository, for middleware that needs to
// validate tokens.
func (s *Server) Users() dao.UserRepository {
	return s.db.Users()
}

// Tokens exposes the JWT service, for middleware wiring.
func (s *Server) Tokens() token.Service {
	return s.tokens
}

// UnauthDelay returns the configured unauthorized-response delay.
func (s *Server) UnauthDelay() time.Duration {
	return s.cfg.UnauthDelay()
}

// Close releases the underlying database connection.
func (s *Server) Close() error {
	return s.db.Close()
}

// ServeForever builds the full HTTP router and blocks serving it on addr:port.
func (s *Server) ServeForever(addr string, port int) error {
	r := chi.NewRouter()
	api.Mount(r, s)

	listenOn := fmt.Sprintf("%s:%d", addr, port)
	log.Printf("INFO  sequitur server v%s listening on %s", version.Current, listenOn)
	return http.ListenAndServe(listenOn, r)
}
