package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/transport"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/util"
)

// GatewaySignatureMiddleware verifies that webhook calls come from the
// messaging sidecar: the body must carry an HMAC-SHA256 of the shared secret.
type GatewaySignatureMiddleware struct {
	secret string
}

func NewGatewaySignatureMiddleware(secret string) *GatewaySignatureMiddleware {
	return &GatewaySignatureMiddleware{secret: secret}
}

func (m *GatewaySignatureMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.secret == "" {
			log.Debug().Msg("gateway signature verification bypassed: GATEWAY_SECRET is not configured")
			next.ServeHTTP(w, r)
			return
		}

		signature := r.Header.Get(transport.SignatureHeader)
		if signature == "" {
			log.Warn().Msg("gateway signature middleware: missing signature header")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing signature",
			})
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error().Err(err).Msg("gateway signature middleware: failed to read body")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "Failed to read request body",
			})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		computed := util.HmacSHA256(m.secret, string(body))
		if !util.ConstantTimeEqual(computed, signature) {
			log.Warn().Msg("gateway signature middleware: invalid signature")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid signature",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
