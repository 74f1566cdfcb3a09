// Package token issues and validates the JWTs sequitur server sessions
// authenticate with.
package token

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dekarrin/sequitur/server/dao"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the "iss" claim set on every token this package issues.
const Issuer = "sqs"

// Service issues and validates JWTs signed with Secret. A Service is stateless
// and safe for concurrent use.
type Service struct {
	Secret []byte
}

// New returns a Service signing with secret.
func New(secret []byte) Service {
	return Service{Secret: secret}
}

// Generate issues a signed JWT for u, valid for one hour. The signing key is
// derived from Secret, u's password hash, and u's last logout time, so that
// calling Logout on u invalidates every token issued before the call.
func (s Service) Generate(u dao.User) (string, error) {
	claims := &jwt.MapClaims{
		"iss": Issuer,
		"exp": time.Now().Add(time.Hour).Unix(),
		"sub": u.ID.String(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	tokStr, err := tok.SignedString(s.signKeyFor(u))
	if err != nil {
		return "", err
	}
	return tokStr, nil
}

// ValidateAndLookup parses and verifies tok, looking the subject up in users
// to derive the expected signing key. It returns the looked-up user on
// success.
func (s Service) ValidateAndLookup(ctx context.Context, tok string, users dao.UserRepository) (dao.User, error) {
	var user dao.User

	_, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		subj, err := t.Claims.GetSubject()
		if err != nil {
			return nil, fmt.Errorf("cannot get subject: %w", err)
		}

		id, err := uuid.Parse(subj)
		if err != nil {
			return nil, fmt.Errorf("cannot parse subject UUID: %w", err)
		}

		user, err = users.GetByID(ctx, id)
		if err != nil {
			if err == dao.ErrNotFound {
				return nil, fmt.Errorf("subject does not exist")
			}
			return nil, fmt.Errorf("subject could not be validated")
		}

		return s.signKeyFor(user), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer(Issuer), jwt.WithLeeway(time.Minute))

	if err != nil {
		return dao.User{}, err
	}

	return user, nil
}

func (s Service) signKeyFor(u dao.User) []byte {
	var key []byte
	key = append(key, s.Secret...)
	key = append(key, []byte(u.Password)...)
	key = append(key, []byte(fmt.Sprintf("%d", u.LastLogoutTime.Unix()))...)
	return key
}

// FromRequest extracts the bearer token from req's Authorization header.
func FromRequest(req *http.Request) (string, error) {
	authHeader := strings.TrimSpace(req.Header.Get("Authorization"))
	if authHeader == "" {
		return "", fmt.Errorf("no authorization header present")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	scheme := strings.TrimSpace(strings.ToLower(parts[0]))
	tok := strings.TrimSpace(parts[1])
	if scheme != "bearer" {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	return tok, nil
}
