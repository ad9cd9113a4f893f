package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/service"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/sse"
)

// PanelState is what a freshly connected dashboard needs before events flow.
type PanelState interface {
	Status() service.StatusView
	Metrics() model.Metrics
}

type EventsHandler struct {
	broker *sse.Broker
	state  PanelState
}

func NewEventsHandler(broker *sse.Broker, state PanelState) *EventsHandler {
	return &EventsHandler{
		broker: broker,
		state:  state,
	}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := h.broker.Subscribe(sse.TopicPanel)
	defer h.broker.Unsubscribe(client)

	sessionID := panelSessionID(r)
	log.Info().Str("panelSession", sessionID).Msg("sse connection established")

	ctx := r.Context()

	if err := h.sendEvent(w, flusher, sse.EventStatus, h.state.Status()); err != nil {
		return
	}
	if err := h.sendEvent(w, flusher, sse.EventMetrics, h.state.Metrics()); err != nil {
		return
	}

	heartbeat := time.NewTicker(sse.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("panelSession", sessionID).Msg("sse connection closed by client")
			return

		case <-client.Done:
			log.Info().Str("panelSession", sessionID).Msg("sse connection closed by broker")
			return

		case event := <-client.Events:
			if err := h.sendRawEvent(w, flusher, event); err != nil {
				log.Error().Err(err).Msg("failed to send event")
				return
			}

		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
				log.Debug().Str("panelSession", sessionID).Msg("heartbeat failed, closing connection")
				return
			}
			flusher.Flush()
		}
	}
}

func (h *EventsHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return h.sendRawEvent(w, flusher, sse.Event{Type: eventType, Data: jsonData})
}

func (h *EventsHandler) sendRawEvent(w http.ResponseWriter, flusher http.Flusher, event sse.Event) error {
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
