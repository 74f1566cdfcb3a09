package middle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dekarrin/sequitur/server/dao"
	"github.com/dekarrin/sequitur/server/token"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	byID map[uuid.UUID]dao.User
}

func (f fakeUsers) Close() error { return nil }
func (f fakeUsers) Create(ctx context.Context, u dao.User) (dao.User, error) {
	panic("not needed")
}
func (f fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (dao.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return dao.User{}, dao.ErrNotFound
	}
	return u, nil
}
func (f fakeUsers) GetByUsername(ctx context.Context, username string) (dao.User, error) {
	panic("not needed")
}
func (f fakeUsers) Update(ctx context.Context, id uuid.UUID, u dao.User) (dao.User, error) {
	panic("not needed")
}

func Test_RequireAuth(t *testing.T) {
	secret := []byte("super-secret-value-for-testing-only-32b")
	tokens := token.New(secret)
	user := dao.User{ID: uuid.New(), Username: "alice", Password: "hashed"}
	users := fakeUsers{byID: map[uuid.UUID]dao.User{user.ID: user}}

	validTok, err := tokens.Generate(user)
	require.NoError(t, err)

	testCases := []struct {
		name         string
		authHeader   string
		expectStatus int
		expectCalled bool
	}{
		{
			name:         "valid token reaches handler",
			authHeader:   "Bearer " + validTok,
			expectStatus: http.StatusOK,
			expectCalled: true,
		},
		{
			name:         "missing token rejected",
			authHeader:   "",
			expectStatus: http.StatusUnauthorized,
			expectCalled: false,
		},
		{
			name:         "malformed token rejected",
			authHeader:   "Bearer not-a-real-token",
			expectStatus: http.StatusUnauthorized,
			expectCalled: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got, ok := r.Context().Value(AuthUser).(dao.User)
				require.True(t, ok)
				assert.Equal(t, user.ID, got.ID)
				w.WriteHeader(http.StatusOK)
			})

			mw := RequireAuth(users, tokens, 0)
			handler := mw(next)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tc.expectStatus, w.Code)
			assert.Equal(t, tc.expectCalled, called)
		})
	}
}

func Test_OptionalAuth_AllowsMissingToken(t *testing.T) {
	secret := []byte("super-secret-value-for-testing-only-32b")
	tokens := token.New(secret)
	users := fakeUsers{byID: map[uuid.UUID]dao.User{}}

	var loggedIn bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loggedIn, _ = r.Context().Value(AuthLoggedIn).(bool)
		w.WriteHeader(http.StatusOK)
	})

	mw := OptionalAuth(users, tokens, 0)
	handler := mw(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, loggedIn)
}

func Test_DontPanic_RecoversAndWrites500(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	handler := DontPanic()(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		handler.ServeHTTP(w, req)
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
