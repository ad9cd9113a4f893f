package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dhooHub/Bot-La-Vaca-sub000/internal/errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   apperrors.ErrorCode
	}{
		{"invalid pin", apperrors.InvalidPIN(), http.StatusUnauthorized, apperrors.ErrCodeInvalidPIN},
		{"bad signature", apperrors.InvalidSignature(), http.StatusUnauthorized, apperrors.ErrCodeInvalidSignature},
		{"validation", apperrors.MissingRequired("text"), http.StatusBadRequest, apperrors.ErrCodeMissingRequired},
		{"not found", apperrors.NotFound("Contact"), http.StatusNotFound, apperrors.ErrCodeNotFound},
		{"rate limit", apperrors.RateLimitExceeded(), http.StatusTooManyRequests, apperrors.ErrCodeRateLimitExceeded},
		{"send failed", apperrors.TransportSendFailed(errors.New("x")), http.StatusBadGateway, apperrors.ErrCodeTransportSendFailed},
		{"transport down", apperrors.TransportUnavailable("disconnected"), http.StatusServiceUnavailable, apperrors.ErrCodeTransportUnavailable},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, apperrors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
