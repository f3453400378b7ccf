package token

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dekarrin/derivparse/server/dao"
	"github.com/dekarrin/derivparse/server/dao/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("this-is-a-32-byte-testing-secret")

func newTestUser(t *testing.T, db dao.Store) dao.User {
	t.Helper()
	created, err := db.Users().Create(context.Background(), dao.User{
		Username:       "ferris",
		Password:       "hashed-password",
		LastLogoutTime: time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	return created
}

func TestGet_BearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")

	tok, err := Get(req)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)
}

func TestGet_MissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := Get(req)
	assert.Error(t, err)
}

func TestGet_NotBearerScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc123")

	_, err := Get(req)
	assert.Error(t, err)
}

func TestGenerateAndValidate_RoundTrip(t *testing.T) {
	db := inmem.NewDatastore()
	user := newTestUser(t, db)

	tok, err := Generate(testSecret, user)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	validated, err := Validate(context.Background(), tok, testSecret, db.Users())
	require.NoError(t, err)
	assert.Equal(t, user.ID, validated.ID)
}

func TestValidate_RejectsTokenAfterLogout(t *testing.T) {
	db := inmem.NewDatastore()
	user := newTestUser(t, db)

	tok, err := Generate(testSecret, user)
	require.NoError(t, err)

	loggedOut := user
	loggedOut.LastLogoutTime = time.Now()
	_, err = db.Users().Update(context.Background(), user.ID, loggedOut)
	require.NoError(t, err)

	_, err = Validate(context.Background(), tok, testSecret, db.Users())
	assert.Error(t, err)
}

func TestValidate_RejectsWrongSecret(t *testing.T) {
	db := inmem.NewDatastore()
	user := newTestUser(t, db)

	tok, err := Generate(testSecret, user)
	require.NoError(t, err)

	_, err = Validate(context.Background(), tok, []byte("a-completely-different-secret.."), db.Users())
	assert.Error(t, err)
}

func TestValidate_RejectsUnknownSubject(t *testing.T) {
	db := inmem.NewDatastore()
	user := newTestUser(t, db)

	tok, err := Generate(testSecret, user)
	require.NoError(t, err)

	_, err = db.Users().Delete(context.Background(), user.ID)
	require.NoError(t, err)

	_, err = Validate(context.Background(), tok, testSecret, db.Users())
	assert.Error(t, err)
}
