// Package middle contains HTTP middleware for the sequitur server.
package middle

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/dekarrin/sequitur/server/dao"
	"github.com/dekarrin/sequitur/server/result"
	"github.com/dekarrin/sequitur/server/token"
)

type mwFunc http.HandlerFunc

func (sf mwFunc) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	sf(w, req)
}

// Middleware wraps a handler with additional functionality.
type Middleware func(next http.Handler) http.Handler

// AuthKey is a key in a request context populated by an AuthHandler.
type AuthKey int64

const (
	AuthLoggedIn AuthKey = iota
	AuthUser
)

// AuthHandler extracts the bearer token from a request, validates it, and
// populates the request context with the logged-in user before calling the
// wrapped handler.
type AuthHandler struct {
	users         dao.UserRepository
	tokens        token.Service
	required      bool
	unauthedDelay time.Duration
	next          http.Handler
}

func (ah *AuthHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var loggedIn bool
	var user dao.User

	tok, err := token.FromRequest(req)
	if err != nil {
		if ah.required {
			ah.rejectUnauthorized(w, err)
			return
		}
	} else {
		lookupUser, err := ah.tokens.ValidateAndLookup(req.Context(), tok, ah.users)
		if err != nil {
			if ah.required {
				ah.rejectUnauthorized(w, err)
				return
			}
		} else {
			user = lookupUser
			loggedIn = true
		}
	}

	ctx := req.Context()
	ctx = context.WithValue(ctx, AuthLoggedIn, loggedIn)
	ctx = context.WithValue(ctx, AuthUser, user)
	req = req.WithContext(ctx)
	ah.next.ServeHTTP(w, req)
}

func (ah *AuthHandler) rejectUnauthorized(w http.ResponseWriter, cause error) {
	r := result.Unauthorized("", cause.Error())
	time.Sleep(ah.unauthedDelay)
	r.WriteResponse(w)
	log.Printf("INFO  401: %s", r.InternalMsg)
}

// RequireAuth returns a Middleware that rejects any request without a valid
// token with HTTP 401.
func RequireAuth(users dao.UserRepository, tokens token.Service, unauthDelay time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return &AuthHandler{users: users, tokens: tokens, unauthedDelay: unauthDelay, required: true, next: next}
	}
}

// OptionalAuth returns a Middleware that populates the request context with
// the logged-in user if a valid token is present, but allows the request
// through regardless.
func OptionalAuth(users dao.UserRepository, tokens token.Service, unauthDelay time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return &AuthHandler{users: users, tokens: tokens, unauthedDelay: unauthDelay, required: false, next: next}
	}
}

// DontPanic returns a Middleware that recovers from a panic in next, logs it,
// and writes a generic HTTP-500 instead of crashing the server.
func DontPanic() Middleware {
	return func(next http.Handler) http.Handler {
		return mwFunc(func(w http.ResponseWriter, r *http.Request) {
			defer panicTo500(w, r)
			next.ServeHTTP(w, r)
		})
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) (recovered bool) {
	if panicErr := recover(); panicErr != nil {
		log.Printf("ERROR panic: %v\nSTACK TRACE: %s", panicErr, string(debug.Stack()))
		r := result.InternalServerError(fmt.Sprintf("panic: %v", panicErr))
		r.WriteResponse(w)
		return true
	}
	return false
}
