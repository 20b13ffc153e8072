package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littlelemon/internal/models"
	"littlelemon/internal/sl"
	"littlelemon/internal/store"
)

type fakeUsers map[uint]*models.User

func (f fakeUsers) ByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (f fakeUsers) ByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func newTestAuthenticator(t *testing.T) (*Authenticator, fakeUsers) {
	t.Helper()
	hash, err := HashPassword("testpass")
	require.NoError(t, err)

	users := fakeUsers{
		1: {ID: 1, Username: "testuser", PasswordHash: hash, IsActive: true},
		2: {ID: 2, Username: "retired", PasswordHash: hash, IsActive: false},
	}
	return NewAuthenticator(users, NewIssuer("test-secret", time.Hour)), users
}

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "S3cret"))

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("k", time.Hour)
	tok, err := iss.Issue(&models.User{ID: 7, Username: "bob"})
	require.NoError(t, err)

	claims, err := iss.Parse(tok)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	assert.Equal(t, "bob", claims.Username)
	assert.NotEmpty(t, claims.Id)
}

func TestIssuer_RejectsForeignAndExpired(t *testing.T) {
	iss := NewIssuer("k", time.Hour)
	other := NewIssuer("other", time.Hour)

	tok, err := other.Issue(&models.User{ID: 1})
	require.NoError(t, err)
	_, err = iss.Parse(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err = iss.Issue(&models.User{ID: 1})
	require.NoError(t, err)
	_, err = iss.Parse(tok)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = iss.Parse("not-a-jwt")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestAuthenticator_Login(t *testing.T) {
	a, _ := newTestAuthenticator(t)
	ctx := context.Background()

	tok, err := a.Login(ctx, "testuser", "testpass")
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	_, err = a.Login(ctx, "testuser", "wrong")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	_, err = a.Login(ctx, "ghost", "testpass")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	_, err = a.Login(ctx, "retired", "testpass")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestAuthenticator_Authenticate(t *testing.T) {
	a, _ := newTestAuthenticator(t)
	ctx := context.Background()

	tok, err := a.Login(ctx, "testuser", "testpass")
	require.NoError(t, err)
	retiredTok, err := a.tokens.Issue(&models.User{ID: 2, Username: "retired"})
	require.NoError(t, err)
	orphanTok, err := a.tokens.Issue(&models.User{ID: 99, Username: "deleted"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"token scheme", "Token " + tok, nil},
		{"bearer scheme", "Bearer " + tok, nil},
		{"basic", basic("testuser", "testpass"), nil},
		{"empty", "", ErrNoCredentials},
		{"scheme only", "Token", ErrNoCredentials},
		{"unknown scheme", "Digest abc", ErrNoCredentials},
		{"garbage token", "Token abc.def.ghi", ErrInvalidToken},
		{"deleted user token", "Token " + orphanTok, ErrInvalidToken},
		{"basic wrong password", basic("testuser", "nope"), ErrInvalidCredentials},
		{"basic not base64", "Basic %%%", ErrInvalidCredentials},
		{"inactive via token", "Token " + retiredTok, ErrInactiveUser},
		{"inactive via basic", basic("retired", "testpass"), ErrInactiveUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := a.Authenticate(ctx, tt.header)
			if tt.want == nil {
				require.NoError(t, err)
				assert.Equal(t, "testuser", user.Username)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, _ := newTestAuthenticator(t)

	router := gin.New()
	router.GET("/private", Middleware(a, sl.Discard()), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		c.String(http.StatusOK, user.Username)
	})

	do := func(header string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/private", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(w, req)
		return w
	}

	w := do("")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token", w.Header().Get("WWW-Authenticate"))
	assert.JSONEq(t, `{"detail":"Authentication credentials were not provided."}`, w.Body.String())

	w = do("Token broken")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(basic("retired", "testpass"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(basic("testuser", "testpass"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "testuser", w.Body.String())
}
