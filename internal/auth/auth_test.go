package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, VerifyPassword(hash, "hunter22"))
	assert.False(t, VerifyPassword(hash, "hunter23"))
}

func TestNewToken_Unique(t *testing.T) {
	a, err := NewToken()
	require.NoError(t, err)
	b, err := NewToken()
	require.NoError(t, err)
	assert.Len(t, a, 48)
	assert.NotEqual(t, a, b)
}

func TestSessions_LoginThenLogout(t *testing.T) {
	s := NewSessions("0123456789abcdef0123456789abcdef", false, 3600)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	require.NoError(t, s.Login(rec, req, "user-1"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	next := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	next.AddCookie(cookies[0])
	id, ok := s.UserID(next)
	require.True(t, ok)
	assert.Equal(t, "user-1", id)

	rec = httptest.NewRecorder()
	require.NoError(t, s.Logout(rec, next))
	cleared := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			cleared.AddCookie(c)
		}
	}
	_, ok = s.UserID(cleared)
	assert.False(t, ok)

	_, ok = s.UserID(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}
