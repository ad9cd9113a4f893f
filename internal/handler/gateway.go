package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/dhooHub/Bot-La-Vaca-sub000/internal/errors"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/httputil"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

// InboundSink receives the events the messaging sidecar pushes.
type InboundSink interface {
	Deliver(ctx context.Context, msg model.InboundMessage)
	SetState(ctx context.Context, state model.ConnectionState)
}

type GatewayHandler struct {
	sink      InboundSink
	signature func(http.Handler) http.Handler
}

func NewGatewayHandler(sink InboundSink, signature func(http.Handler) http.Handler) *GatewayHandler {
	return &GatewayHandler{sink: sink, signature: signature}
}

func (h *GatewayHandler) Routes() chi.Router {
	r := chi.NewRouter()
	if h.signature != nil {
		r.Use(h.signature)
	}

	r.Post("/messages", h.Messages)
	r.Post("/status", h.Status)

	return r
}

type inboundBatch struct {
	Messages []model.InboundMessage `json:"messages"`
}

// Messages accepts either one message object or {"messages": [...]}.
func (h *GatewayHandler) Messages(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("body", "invalid JSON"))
		return
	}

	var batch inboundBatch
	if err := json.Unmarshal(raw, &batch); err != nil || batch.Messages == nil {
		var single model.InboundMessage
		if err := json.Unmarshal(raw, &single); err != nil {
			httputil.WriteError(w, apperrors.InvalidInput("body", "invalid message"))
			return
		}
		batch.Messages = []model.InboundMessage{single}
	}

	for _, msg := range batch.Messages {
		if strings.TrimSpace(msg.From) == "" {
			httputil.WriteError(w, apperrors.MissingRequired("from"))
			return
		}
	}

	// the bot keeps working on the message after the sidecar hangs up
	ctx := context.WithoutCancel(r.Context())
	for _, msg := range batch.Messages {
		if msg.Timestamp.IsZero() {
			msg.Timestamp = time.Now()
		}
		h.sink.Deliver(ctx, msg)
	}

	log.Debug().Int("count", len(batch.Messages)).Msg("gateway messages accepted")
	writeJSON(w, http.StatusAccepted, map[string]any{"accepted": len(batch.Messages)})
}

func (h *GatewayHandler) Status(w http.ResponseWriter, r *http.Request) {
	var state model.ConnectionState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("body", "invalid JSON"))
		return
	}

	switch state.Status {
	case model.ConnectionConnected, model.ConnectionDisconnected, model.ConnectionAwaitingQR:
	case "":
		httputil.WriteError(w, apperrors.MissingRequired("status"))
		return
	default:
		httputil.WriteError(w, apperrors.InvalidInput("status", "unknown connection status"))
		return
	}

	h.sink.SetState(context.WithoutCancel(r.Context()), state)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
