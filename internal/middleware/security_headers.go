package middleware

import (
	"net/http"
	"strings"
)

// SecurityHeadersMiddleware sets the panel response headers. Panel responses
// are never framed or cached, and only the configured UI origins may open
// connections back to it.
type SecurityHeadersMiddleware struct {
	isProduction bool
	csp          string
}

func NewSecurityHeadersMiddleware(isProduction bool, origins []string) *SecurityHeadersMiddleware {
	return &SecurityHeadersMiddleware{isProduction: isProduction, csp: panelCSP(origins)}
}

func panelCSP(origins []string) string {
	connect := []string{"'self'"}
	for _, o := range origins {
		host := strings.TrimSpace(o)
		host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
		if host == "" {
			continue
		}
		connect = append(connect, "https://"+host, "wss://"+host)
	}

	return "default-src 'none'; " +
		"connect-src " + strings.Join(connect, " ") + "; " +
		"frame-ancestors 'none'; " +
		"base-uri 'none'; " +
		"form-action 'none'"
}

func (m *SecurityHeadersMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		h.Set("Content-Security-Policy", m.csp)
		h.Set("Cache-Control", "no-store")

		if m.isProduction {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}
