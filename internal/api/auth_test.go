package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roomly/internal/config"
	"roomly/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:  "test-secret",
		CookieName: "roomly_session",
		SessionTTL: 3600,
	}
}

func issueAndExtract(t *testing.T, m *SessionManager, user *models.User) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, m.IssueCookie(rec, user))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestSessionRoundTrip(t *testing.T) {
	m := NewSessionManager(testAuthConfig())
	cookie := issueAndExtract(t, m, &models.User{ID: 42, Username: "alice"})

	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	id := m.Decode(req)
	require.NotNil(t, id)
	assert.Equal(t, int64(42), id.UserID)
	assert.Equal(t, "alice", id.Username)
}

func TestSessionDecode_NoCookie(t *testing.T) {
	m := NewSessionManager(testAuthConfig())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, m.Decode(req))
}

func TestSessionDecode_TamperedToken(t *testing.T) {
	m := NewSessionManager(testAuthConfig())
	cookie := issueAndExtract(t, m, &models.User{ID: 1, Username: "alice"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value + "x"})
	assert.Nil(t, m.Decode(req))
}

func TestSessionDecode_WrongSecret(t *testing.T) {
	issuer := NewSessionManager(testAuthConfig())
	cookie := issueAndExtract(t, issuer, &models.User{ID: 1, Username: "alice"})

	other := testAuthConfig()
	other.JWTSecret = "different-secret"
	verifier := NewSessionManager(other)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	assert.Nil(t, verifier.Decode(req))
}

func TestSessionDecode_Expired(t *testing.T) {
	cfg := testAuthConfig()
	m := NewSessionManager(cfg)

	// Токен с истекшим сроком подписан тем же секретом
	claims := sessionClaims{
		UserID:   1,
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: signed})
	assert.Nil(t, m.Decode(req))
}

func TestSessionDecode_UnexpectedAlgorithm(t *testing.T) {
	cfg := testAuthConfig()
	m := NewSessionManager(cfg)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, sessionClaims{UserID: 1, Username: "alice"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: signed})
	assert.Nil(t, m.Decode(req))
}

func TestClearCookie(t *testing.T) {
	m := NewSessionManager(testAuthConfig())

	rec := httptest.NewRecorder()
	m.ClearCookie(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
