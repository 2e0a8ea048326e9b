package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"roomly/internal/config"
	"roomly/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller extracted from the session cookie.
type Identity struct {
	UserID   int64
	Username string
}

// SessionManager issues and verifies the signed session cookie. An invalid
// or absent cookie simply yields an anonymous request.
type SessionManager struct {
	cfg config.AuthConfig
}

func NewSessionManager(cfg config.AuthConfig) *SessionManager {
	return &SessionManager{cfg: cfg}
}

type sessionClaims struct {
	UserID   int64  `json:"userid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IssueCookie signs a session token for the user and writes it as an
// HttpOnly, SameSite=Strict cookie.
func (m *SessionManager) IssueCookie(w http.ResponseWriter, user *models.User) error {
	now := time.Now()
	claims := sessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(m.cfg.SessionTTL) * time.Second)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.cfg.JWTSecret))
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   m.cfg.SessionTTL,
	})
	return nil
}

// ClearCookie expires the session cookie.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cfg.SecureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

// Decode parses the session cookie. Returns nil when the request carries no
// valid session.
func (m *SessionManager) Decode(r *http.Request) *Identity {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return nil
	}

	var claims sessionClaims
	token, err := jwt.ParseWithClaims(cookie.Value, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	return &Identity{UserID: claims.UserID, Username: claims.Username}
}

// Wrap decodes the session cookie into the request context for every
// request; handlers decide whether anonymous access is acceptable.
func (m *SessionManager) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := m.Decode(r); id != nil {
			r = r.WithContext(context.WithValue(r.Context(), identityKey, id))
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUser returns the authenticated identity, or nil for anonymous
// requests.
func CurrentUser(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// requireLogin rejects anonymous requests before invoking the handler.
func requireLogin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r)
	}
}
