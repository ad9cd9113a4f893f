package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/audit"
	apperrors "github.com/dhooHub/Bot-La-Vaca-sub000/internal/errors"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/sse"
)

const wsWriteTimeout = 10 * time.Second

// BotControls are the operator commands accepted over the panel socket.
type BotControls interface {
	PanelState
	Pause(ctx context.Context)
	Resume(ctx context.Context)
	ManualReply(ctx context.Context, to, text string) (model.Contact, error)
	Release(ctx context.Context, key string) (model.Session, error)
}

// WebSocketHandler streams panel events and accepts control commands on the
// same connection.
type WebSocketHandler struct {
	broker         *sse.Broker
	bot            BotControls
	originPatterns []string
}

func NewWebSocketHandler(broker *sse.Broker, bot BotControls, originPatterns []string) *WebSocketHandler {
	return &WebSocketHandler{
		broker:         broker,
		bot:            bot,
		originPatterns: originPatterns,
	}
}

type wsCommand struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	To      string `json:"to,omitempty"`
	Text    string `json:"text,omitempty"`
	Contact string `json:"contact,omitempty"`
}

type wsReply struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to accept websocket")
		return
	}
	defer ws.Close(websocket.StatusNormalClosure, "session ended")

	sessionID := panelSessionID(r)
	ip := r.RemoteAddr
	log.Info().Str("panelSession", sessionID).Msg("websocket connection established")

	client := h.broker.Subscribe(sse.TopicPanel)
	defer h.broker.Unsubscribe(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := h.writeJSON(ctx, ws, sse.Event{Type: sse.EventStatus, Data: mustJSON(h.bot.Status())}); err != nil {
		return
	}
	if err := h.writeJSON(ctx, ws, sse.Event{Type: sse.EventMetrics, Data: mustJSON(h.bot.Metrics())}); err != nil {
		return
	}

	go func() {
		defer cancel()
		h.readLoop(ctx, ws, sessionID, ip)
	}()

	heartbeat := time.NewTicker(sse.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("panelSession", sessionID).Msg("websocket connection closed")
			return

		case <-client.Done:
			ws.Close(websocket.StatusGoingAway, "server shutting down")
			return

		case event := <-client.Events:
			if err := h.writeJSON(ctx, ws, event); err != nil {
				log.Debug().Err(err).Msg("websocket write failed")
				return
			}

		case <-heartbeat.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := ws.Ping(pingCtx)
			pingCancel()
			if err != nil {
				log.Debug().Str("panelSession", sessionID).Msg("websocket ping failed, closing connection")
				return
			}
		}
	}
}

func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, sessionID, ip string) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				log.Debug().Err(err).Msg("websocket read error")
			}
			return
		}

		var cmd wsCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			h.writeJSON(ctx, ws, wsReply{Type: "error", Error: "invalid command"})
			continue
		}

		reply := h.dispatch(ctx, cmd, sessionID, ip)
		if err := h.writeJSON(ctx, ws, reply); err != nil {
			return
		}
	}
}

func (h *WebSocketHandler) dispatch(ctx context.Context, cmd wsCommand, sessionID, ip string) wsReply {
	reply := wsReply{Type: "ack", ID: cmd.ID}
	event := audit.Event{SessionID: sessionID, IP: ip}

	switch cmd.Type {
	case "ping":
		reply.Type = "pong"
		return reply

	case "pause":
		h.bot.Pause(ctx)
		event.Type = audit.EventBotPaused
		reply.Data = h.bot.Status()

	case "resume":
		h.bot.Resume(ctx)
		event.Type = audit.EventBotResumed
		reply.Data = h.bot.Status()

	case "reply":
		c, err := h.bot.ManualReply(ctx, cmd.To, cmd.Text)
		if err != nil {
			return errorReply(cmd.ID, err)
		}
		event.Type = audit.EventManualReply
		event.Contact = c.Key
		reply.Data = map[string]any{"contact": c, "queued": true}

	case "release":
		session, err := h.bot.Release(ctx, cmd.Contact)
		if err != nil {
			return errorReply(cmd.ID, err)
		}
		event.Type = audit.EventContactRelease
		event.Contact = session.ContactKey
		reply.Data = map[string]any{"session": session}

	default:
		return wsReply{Type: "error", ID: cmd.ID, Error: "unknown command"}
	}

	audit.Log(ctx, event)
	return reply
}

func errorReply(id string, err error) wsReply {
	msg := "internal error"
	if appErr, ok := apperrors.AsAppError(err); ok {
		msg = appErr.Message
	}
	return wsReply{Type: "error", ID: id, Error: msg}
}

func (h *WebSocketHandler) writeJSON(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return ws.Write(writeCtx, websocket.MessageText, data)
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}
