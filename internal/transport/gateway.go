package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/util"
)

const (
	SignatureHeader = "X-Gateway-Signature"
	gatewayTimeout  = 10 * time.Second
)

type sendRequest struct {
	To      string  `json:"to"`
	Payload Payload `json:"payload"`
}

// Gateway talks to the messaging sidecar that owns the WhatsApp session.
// Outbound messages are POSTed to the sidecar. Inbound messages and state
// changes are pushed by the sidecar to the webhook handlers, which call
// Deliver and SetState.
type Gateway struct {
	baseURL string
	secret  string
	client  *http.Client

	mu             sync.RWMutex
	messageHandler []MessageHandler
	stateHandler   []StateHandler
}

var _ Transport = (*Gateway)(nil)

func NewGateway(baseURL, secret string) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		client: &http.Client{
			Timeout: gatewayTimeout,
		},
	}
}

func (g *Gateway) OnMessage(handler MessageHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messageHandler = append(g.messageHandler, handler)
}

func (g *Gateway) OnConnectionStateChange(handler StateHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stateHandler = append(g.stateHandler, handler)
}

// Connect fetches the sidecar's current connection state. An unreachable
// sidecar is reported as disconnected rather than failing startup.
func (g *Gateway) Connect(ctx context.Context) error {
	if g.baseURL == "" {
		return fmt.Errorf("gateway url is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/status", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("url", g.baseURL).Msg("gateway unreachable, waiting for status push")
		g.SetState(ctx, model.ConnectionState{Status: model.ConnectionDisconnected, UpdatedAt: time.Now()})
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway status failed with status %d", resp.StatusCode)
	}

	var state model.ConnectionState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return fmt.Errorf("decode gateway status: %w", err)
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}
	g.SetState(ctx, state)
	return nil
}

func (g *Gateway) SendMessage(ctx context.Context, address string, payload Payload) error {
	body, err := json.Marshal(sendRequest{To: address, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.secret != "" {
		req.Header.Set(SignatureHeader, util.HmacSHA256(g.secret, string(body)))
	}

	resp, err := g.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().
			Err(err).
			Str("to", address).
			Dur("elapsed", elapsed).
			Msg("gateway send error")
		return fmt.Errorf("send request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Error().
			Str("to", address).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("gateway send failed")
		return fmt.Errorf("send failed with status %d", resp.StatusCode)
	}

	log.Debug().
		Str("to", address).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("gateway send successful")

	return nil
}

// Deliver hands an inbound message to every registered handler.
func (g *Gateway) Deliver(ctx context.Context, msg model.InboundMessage) {
	g.mu.RLock()
	handlers := append([]MessageHandler(nil), g.messageHandler...)
	g.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, msg)
	}
}

// SetState publishes a connection state change to every registered handler.
func (g *Gateway) SetState(ctx context.Context, state model.ConnectionState) {
	g.mu.RLock()
	handlers := append([]StateHandler(nil), g.stateHandler...)
	g.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, state)
	}
}
