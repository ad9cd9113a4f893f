package middleware

import (
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// GatewayMaxBodySize fits a batched sidecar delivery.
	GatewayMaxBodySize = 1 << 20
	// PanelMaxBodySize covers login, reply and control requests.
	PanelMaxBodySize = 16 << 10
)

type routeLimit struct {
	prefix  string
	maxSize int64
}

// BodyLimitMiddleware caps request bodies per route prefix. The longest
// matching prefix wins; other paths get the fallback.
type BodyLimitMiddleware struct {
	fallback int64
	routes   []routeLimit
}

func NewBodyLimitMiddleware(fallback int64, routes map[string]int64) *BodyLimitMiddleware {
	if fallback <= 0 {
		fallback = PanelMaxBodySize
	}
	m := &BodyLimitMiddleware{fallback: fallback}
	for prefix, size := range routes {
		if size <= 0 {
			size = fallback
		}
		m.routes = append(m.routes, routeLimit{prefix: prefix, maxSize: size})
	}
	sort.Slice(m.routes, func(i, j int) bool {
		return len(m.routes[i].prefix) > len(m.routes[j].prefix)
	})
	return m
}

func (m *BodyLimitMiddleware) limitFor(path string) int64 {
	for _, rl := range m.routes {
		if strings.HasPrefix(path, rl.prefix) {
			return rl.maxSize
		}
	}
	return m.fallback
}

func (m *BodyLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}

		limit := m.limitFor(r.URL.Path)
		if r.ContentLength > limit {
			log.Warn().
				Str("path", r.URL.Path).
				Int64("contentLength", r.ContentLength).
				Int64("limit", limit).
				Msg("request body rejected")
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
				"error": "Request body too large",
				"limit": limit,
			})
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next.ServeHTTP(w, r)
	})
}
