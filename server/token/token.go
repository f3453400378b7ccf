// Package token issues and validates the JWTs used to authenticate requests
// to the derivparse server.
package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dekarrin/derivparse/server/dao"
	"github.com/dekarrin/derivparse/server/serr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "derivparse"

// Get extracts the bearer token from the Authorization header of req. It
// returns a non-nil error if the header is missing or is not in the expected
// "Bearer <token>" format.
func Get(req *http.Request) (string, error) {
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		return "", serr.New("no Authorization header present", serr.ErrBadCredentials)
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(authHeader, prefix) {
		return "", serr.New("Authorization header is not a bearer token", serr.ErrBadCredentials)
	}

	tok := strings.TrimPrefix(authHeader, prefix)
	if tok == "" {
		return "", serr.New("Authorization header contains an empty token", serr.ErrBadCredentials)
	}

	return tok, nil
}

// Generate creates a new signed JWT for user, valid for one hour. The
// signing key is derived from secret combined with facts about user so that
// changing the user's password or logging them out invalidates any
// previously issued tokens.
func Generate(secret []byte, user dao.User) (string, error) {
	claims := &jwt.MapClaims{
		"iss": issuer,
		"exp": time.Now().Add(time.Hour).Unix(),
		"sub": user.ID.String(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	tokStr, err := tok.SignedString(signingKey(secret, user))
	if err != nil {
		return "", fmt.Errorf("could not sign token: %w", err)
	}

	return tokStr, nil
}

// Validate parses and verifies tok, returning the user it was issued for.
// The signing key is reconstructed from the user's current record in db, so
// a token becomes invalid the moment the referenced user's password changes
// or they log out.
func Validate(ctx context.Context, tok string, secret []byte, db dao.UserRepository) (dao.User, error) {
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

		user, err = db.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, dao.ErrNotFound) {
				return nil, fmt.Errorf("subject does not exist")
			}
			return nil, fmt.Errorf("subject could not be validated: %w", err)
		}

		return signingKey(secret, user), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer(issuer), jwt.WithLeeway(time.Minute))

	if err != nil {
		return dao.User{}, serr.New(err.Error(), err, serr.ErrBadCredentials)
	}

	return user, nil
}

// signingKey derives a per-user signing key from the server secret and
// mutable facts about the user, so that it changes whenever the user's
// password is reset or they log out, invalidating any tokens signed with the
// prior key.
func signingKey(secret []byte, user dao.User) []byte {
	var key []byte
	key = append(key, secret...)
	key = append(key, []byte(user.Password)...)
	key = append(key, []byte(fmt.Sprintf("%d", user.LastLogoutTime.Unix()))...)
	return key
}
