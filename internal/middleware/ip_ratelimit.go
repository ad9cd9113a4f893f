package middleware

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/dhooHub/Bot-La-Vaca-sub000/internal/errors"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/httputil"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/service"
)

// IPRateLimitMiddleware limits requests per client IP within one surface
// (panel or gateway). Keys are namespaced by surface so the two budgets are
// independent.
type IPRateLimitMiddleware struct {
	limiter service.Limiter
	limit   int
	window  time.Duration
	surface string
}

func NewIPRateLimitMiddleware(limiter service.Limiter, limit int, window time.Duration, surface string) *IPRateLimitMiddleware {
	return &IPRateLimitMiddleware{
		limiter: limiter,
		limit:   limit,
		window:  window,
		surface: surface,
	}
}

func (m *IPRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		allowed, resetAt := m.limiter.CheckLimit(r.Context(), "ip:"+m.surface+":"+ip, m.limit, m.window)
		if !allowed {
			secondsLeft := int(time.Until(resetAt).Seconds()) + 1
			log.Warn().
				Str("surface", m.surface).
				Str("ip", ip).
				Int("limit", m.limit).
				Msg("request rate limit reached")
			w.Header().Set("Retry-After", fmt.Sprintf("%d", secondsLeft))
			httputil.WriteError(w, apperrors.RateLimitExceeded())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP is RemoteAddr without the port. chi's RealIP runs first and may
// have already replaced it with a bare forwarded address.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
