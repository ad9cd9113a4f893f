package model

import (
	"encoding/json"
	"time"
)

type HistoryEntry struct {
	ID         string    `db:"id" json:"id"`
	ContactKey string    `db:"contact_key" json:"contactKey"`
	Display    string    `db:"display" json:"display"`
	Direction  Direction `db:"direction" json:"direction"`
	Text       string    `db:"text" json:"text"`
	Timestamp  time.Time `db:"created_at" json:"timestamp"`
}

// ToEventData returns JSON data for panel message events
func (e *HistoryEntry) ToEventData() json.RawMessage {
	data, _ := json.Marshal(e)
	return data
}

type InboundMessage struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	PushName  string    `json:"pushName,omitempty"`
	Text      string    `json:"text"`
	FromMe    bool      `json:"fromMe,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ConnectionState struct {
	Status    ConnectionStatus `json:"status"`
	QR        string           `json:"qr,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type PanelSession struct {
	ID        string    `json:"id"`
	TokenHash string    `json:"-"`
	IP        string    `json:"ip,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}
