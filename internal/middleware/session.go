package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/config"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

type contextKey string

const (
	PanelSessionCookie = "lavaca_panel"
	PanelCookiePath    = "/panel"
)

const PanelSessionContextKey contextKey = "panelSession"

func GetPanelSession(ctx context.Context) *model.PanelSession {
	if session, ok := ctx.Value(PanelSessionContextKey).(*model.PanelSession); ok {
		return session
	}
	return nil
}

type PanelSessionValidator interface {
	Enabled() bool
	ValidateSession(token string) (*model.PanelSession, bool)
}

// PanelSessionMiddleware gates the operator panel behind a PIN login session.
type PanelSessionMiddleware struct {
	sessions PanelSessionValidator
}

func NewPanelSessionMiddleware(sessions PanelSessionValidator) *PanelSessionMiddleware {
	return &PanelSessionMiddleware{sessions: sessions}
}

func (m *PanelSessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.sessions.Enabled() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "Panel not configured",
			})
			return
		}

		token := ExtractPanelToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		session, ok := m.sessions.ValidateSession(token)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
			return
		}

		ctx := context.WithValue(r.Context(), PanelSessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ExtractPanelToken reads the session token from the cookie, a bearer header,
// or the token query parameter used by EventSource and WebSocket clients.
func ExtractPanelToken(r *http.Request) string {
	if cookie, err := r.Cookie(PanelSessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return r.URL.Query().Get("token")
}

func SetSessionCookie(w http.ResponseWriter, name, token string, path string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     path,
		MaxAge:   int(config.PanelSessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   path,
		MaxAge: -1,
	})
}
