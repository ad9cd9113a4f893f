package transport

import (
	"context"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

// Payload is an outbound message body: text, or a media reference with an
// optional caption.
type Payload struct {
	Text     string `json:"text,omitempty"`
	MediaURL string `json:"mediaUrl,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

func Text(s string) Payload {
	return Payload{Text: s}
}

// Summary is the printable form used for history and logs.
func (p Payload) Summary() string {
	if p.MediaURL == "" {
		return p.Text
	}
	if p.Caption != "" {
		return "[media] " + p.Caption
	}
	return "[media] " + p.MediaURL
}

type MessageHandler func(ctx context.Context, msg model.InboundMessage)

type StateHandler func(ctx context.Context, state model.ConnectionState)

type Sender interface {
	SendMessage(ctx context.Context, address string, payload Payload) error
}

// Transport is the messaging channel the bot consumes. Pairing, encryption and
// reconnection belong to the implementation; the bot only sees messages and
// connection state changes.
type Transport interface {
	Sender
	Connect(ctx context.Context) error
	OnMessage(handler MessageHandler)
	OnConnectionStateChange(handler StateHandler)
}
