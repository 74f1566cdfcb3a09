// Package api wires the sequitur server's HTTP endpoints onto a chi router.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dekarrin/sequitur"
	"github.com/dekarrin/sequitur/internal/symbol"
	"github.com/dekarrin/sequitur/server/dao"
	"github.com/dekarrin/sequitur/server/middle"
	"github.com/dekarrin/sequitur/server/result"
	"github.com/dekarrin/sequitur/server/serr"
	"github.com/dekarrin/sequitur/server/token"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PathPrefix is the prefix under which every endpoint in this package is
// mounted.
const PathPrefix = "/api/v1"

// Backend is everything the API needs from a running server, kept as an
// interface so handlers can be tested against a fake rather than a live
// database and engine pool.
type Backend interface {
	CreateUser(ctx context.Context, username, password string) (dao.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context, who uuid.UUID) error

	CreateSession(ctx context.Context, ownerID uuid.UUID) (dao.Session, error)
	PushTerminals(ctx context.Context, id uuid.UUID, data []byte) error
	Rules(ctx context.Context, id uuid.UUID) (map[int]*sequitur.Rule[byte], int, error)
	Flatten(ctx context.Context, id uuid.UUID, reverse bool) ([]byte, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	SessionsOwnedBy(ctx context.Context, userID uuid.UUID) ([]dao.Session, error)

	Users() dao.UserRepository
	Tokens() token.Service
	UnauthDelay() time.Duration
}

// Mount attaches every API route under PathPrefix to r.
func Mount(r chi.Router, backend Backend) {
	ep := func(f EndpointFunc) http.HandlerFunc {
		return httpEndpoint(backend.UnauthDelay(), f)
	}

	r.Route(PathPrefix, func(r chi.Router) {
		r.Post("/users", ep(handleCreateUser(backend)))
		r.Post("/login", ep(handleLogin(backend)))

		r.Group(func(r chi.Router) {
			r.Use(middle.RequireAuth(backend.Users(), backend.Tokens(), backend.UnauthDelay()))

			r.Post("/logout", ep(handleLogout(backend)))
			r.Post("/sessions", ep(handleCreateSession(backend)))
			r.Get("/sessions", ep(handleListSessions(backend)))
			r.Post("/sessions/{id}/terminals", ep(handlePushTerminals(backend)))
			r.Get("/sessions/{id}/rules", ep(handleGetRules(backend)))
			r.Get("/sessions/{id}/flatten", ep(handleFlatten(backend)))
			r.Delete("/sessions/{id}", ep(handleDeleteSession(backend)))
		})
	})
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func handleCreateUser(b Backend) EndpointFunc {
	return func(req *http.Request) result.Result {
		var body createUserRequest
		if err := parseJSON(req, &body); err != nil {
			return result.BadRequest(err.Error(), err.Error())
		}
		if body.Username == "" || body.Password == "" {
			return result.BadRequest("username and password are both required")
		}

		user, err := b.CreateUser(req.Context(), body.Username, body.Password)
		if err != nil {
			if errIsAlreadyExists(err) {
				return result.Conflict("a user with that username already exists", err.Error())
			}
			return result.InternalServerError(err.Error())
		}

		return result.Created(userResponse{ID: user.ID, Username: user.Username}, "created user %s", user.ID)
	}
}

type userResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func handleLogin(b Backend) EndpointFunc {
	return func(req *http.Request) result.Result {
		var body loginRequest
		if err := parseJSON(req, &body); err != nil {
			return result.BadRequest(err.Error(), err.Error())
		}

		tok, err := b.Login(req.Context(), body.Username, body.Password)
		if err != nil {
			if errIsBadCredentials(err) {
				return result.Unauthorized("incorrect username or password", err.Error())
			}
			return result.InternalServerError(err.Error())
		}

		return result.OK(loginResponse{Token: tok}, "logged in user %s", body.Username)
	}
}

func handleLogout(b Backend) EndpointFunc {
	return func(req *http.Request) result.Result {
		user := loggedInUser(req)
		if err := b.Logout(req.Context(), user.ID); err != nil {
			return result.InternalServerError(err.Error())
		}
		return result.NoContent("logged out user %s", user.ID)
	}
}

type sessionResponse struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Created time.Time `json:"created"`
	Length  int       `json:"length"`
}

func toSessionResponse(s dao.Session) sessionResponse {
	return sessionResponse{ID: s.ID, OwnerID: s.OwnerID, Created: s.Created, Length: len(s.Terminals)}
}

func handleCreateSession(b Backend) EndpointFunc {
	return func(req *http.Request) result.Result {
		user := loggedInUser(req)

		sesh, err := b.CreateSession(req.Context(), user.ID)
		if err != nil {
			return result.InternalServerError(err.Error())
		}

		return result.Created(toSessionResponse(sesh), "created session %s", sesh.ID)
	}
}

func handleListSessions(b Backend) EndpointFunc {
	return func(req *http.Request) result.Result {
		user := loggedInUser(req)

		seshes, err := b.SessionsOwnedBy(req.Context(), user.ID)
		if err != nil {
			return result.InternalServerError(err.Error())
		}

		resp := make([]sessionResponse, len(seshes))
		for i, s := range seshes {
			resp[i] = toSessionResponse(s)
		}

		return result.OK(resp, "listed %d sessions for user %s", len(resp), user.ID)
	}
}

type pushTerminalsRequest struct {
	Data []byte `json:"data"`
}

func handlePushTerminals(b Backend) EndpointFunc {
	return func(req *http.Request) result.Result {
		id := requireIDParam(req)

		var body pushTerminalsRequest
		if err := parseJSON(req, &body); err != nil {
			return result.BadRequest(err.Error(), err.Error())
		}

		if err := b.PushTerminals(req.Context(), id, body.Data); err != nil {
			if errIsTooLarge(err) {
				return result.TooLarge(err.Error(), err.Error())
			}
			if errIsNotFound(err) {
				return result.NotFound(err.Error())
			}
			return result.InternalServerError(err.Error())
		}

		return result.NoContent("pushed %d bytes to session %s", len(body.Data), id)
	}
}

type ruleResponse struct {
	ID    int      `json:"id"`
	Body  []string `json:"body"`
	Count int      `json:"count"`
}

func handleGetRules(b Backend) EndpointFunc {
	return func(req *http.Request) result.Result {
		id := requireIDParam(req)

		rules, startID, err := b.Rules(req.Context(), id)
		if err != nil {
			if errIsNotFound(err) {
				return result.NotFound(err.Error())
			}
			return result.InternalServerError(err.Error())
		}

		resp := make(map[string]ruleResponse, len(rules))
		for ruleID, rule := range rules {
			var body []string
			for n := rule.Head.Next(); n != rule.Tail; n = n.Next() {
				body = append(body, symbolString(n.Sym))
			}
			resp[fmt.Sprint(ruleID)] = ruleResponse{ID: ruleID, Body: body, Count: rule.Count}
		}

		return result.OK(map[string]interface{}{
			"start_rule": startID,
			"rules":      resp,
		}, "listed %d rules for session %s", len(rules), id)
	}
}

func handleFlatten(b Backend) EndpointFunc {
	return func(req *http.Request) result.Result {
		id := requireIDParam(req)
		reverse := req.URL.Query().Get("reverse") == "true"

		data, err := b.Flatten(req.Context(), id, reverse)
		if err != nil {
			if errIsNotFound(err) {
				return result.NotFound(err.Error())
			}
			return result.InternalServerError(err.Error())
		}

		return result.OK(map[string]interface{}{
			"data": string(data),
		}, "flattened session %s (reverse=%v)", id, reverse)
	}
}

func handleDeleteSession(b Backend) EndpointFunc {
	return func(req *http.Request) result.Result {
		id := requireIDParam(req)

		if err := b.DeleteSession(req.Context(), id); err != nil {
			if errIsNotFound(err) {
				return result.NotFound(err.Error())
			}
			return result.InternalServerError(err.Error())
		}

		return result.NoContent("deleted session %s", id)
	}
}

func requireIDParam(r *http.Request) uuid.UUID {
	id, err := getURLParam(r, "id", uuid.Parse)
	if err != nil {
		panic(err.Error())
	}
	return id
}

func getURLParam[E any](r *http.Request, key string, parse func(string) (E, error)) (val E, err error) {
	valStr := chi.URLParam(r, key)
	if valStr == "" {
		return val, fmt.Errorf("parameter does not exist")
	}

	val, err = parse(valStr)
	if err != nil {
		return val, serr.New("", serr.ErrBadArgument)
	}
	return val, nil
}

// parseJSON decodes req's JSON body into v, which must be a pointer. It
// rewinds req.Body so later readers (e.g. logging) can still see it.
func parseJSON(req *http.Request, v interface{}) error {
	contentType := req.Header.Get("Content-Type")
	if !strings.EqualFold(contentType, "application/json") {
		return fmt.Errorf("request content-type is not application/json")
	}

	bodyData, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("could not read request body: %w", err)
	}
	defer func() {
		req.Body.Close()
		req.Body = io.NopCloser(bytes.NewBuffer(bodyData))
	}()

	if err := json.Unmarshal(bodyData, v); err != nil {
		return serr.New("malformed JSON in request", err, serr.ErrBodyUnmarshal)
	}

	return nil
}

// EndpointFunc handles one request and produces the Result to send back.
type EndpointFunc func(req *http.Request) result.Result

func httpEndpoint(unauthDelay time.Duration, ep EndpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w, req)

		r := ep(req)

		if r.Status == 0 {
			logHTTPResponse("ERROR", req, http.StatusInternalServerError, "endpoint result was never populated")
			http.Error(w, "An internal server error occurred", http.StatusInternalServerError)
			return
		}

		if err := r.PrepareMarshaledResponse(); err != nil {
			r = result.Err(r.Status, "An internal server error occurred", "could not marshal JSON response: "+err.Error())
		}

		if r.IsErr {
			logHTTPResponse("ERROR", req, r.Status, r.InternalMsg)
		} else {
			logHTTPResponse("INFO", req, r.Status, r.InternalMsg)
		}

		if r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden || r.Status == http.StatusInternalServerError {
			time.Sleep(unauthDelay)
		}

		r.WriteResponse(w)
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) (recovered bool) {
	if panicErr := recover(); panicErr != nil {
		logHTTPResponse("ERROR", req, http.StatusInternalServerError, fmt.Sprintf("panic: %v\n%s", panicErr, debug.Stack()))
		result.InternalServerError().WriteResponse(w)
		return true
	}
	return false
}

func logHTTPResponse(level string, req *http.Request, respStatus int, msg string) {
	if len(level) > 5 {
		level = level[:5]
	}
	for len(level) < 5 {
		level += " "
	}

	remoteIP := strings.SplitN(req.RemoteAddr, ":", 2)[0]
	log.Printf("%s %s %s %s: HTTP-%d %s", level, remoteIP, req.Method, req.URL.Path, respStatus, msg)
}

// loggedInUser returns the user the auth middleware attached to req's
// context, panicking if none was attached (a routing bug, not a client
// error).
func loggedInUser(req *http.Request) dao.User {
	u, ok := req.Context().Value(middle.AuthUser).(dao.User)
	if !ok {
		panic("no logged-in user in request context")
	}
	return u
}

func errIsNotFound(err error) bool       { return errors.Is(err, serr.ErrNotFound) || errors.Is(err, dao.ErrNotFound) }
func errIsAlreadyExists(err error) bool  { return errors.Is(err, serr.ErrAlreadyExists) }
func errIsBadCredentials(err error) bool { return errors.Is(err, serr.ErrBadCredentials) }
func errIsTooLarge(err error) bool       { return errors.Is(err, serr.ErrTooLarge) }

// symbolString renders a single rule-body symbol for the API's rule-table
// response: a terminal byte as a one-character string, a rule reference as
// "#<id>".
func symbolString(sym symbol.Symbol[byte]) string {
	switch sym.Kind {
	case symbol.Terminal:
		return string(sym.Term)
	case symbol.RuleRef:
		return fmt.Sprintf("#%d", sym.RuleID)
	default:
		return sym.Kind.String()
	}
}
