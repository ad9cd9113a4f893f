package model

import (
	"time"
)

type Contact struct {
	Key     string `json:"key"`
	Address string `json:"address"`
	Display string `json:"display"`
}

type QuoteItem struct {
	Name  string   `json:"name"`
	Sizes []string `json:"sizes"`
	Price int64    `json:"price"`
}

type PendingQuote struct {
	Category  string      `json:"category"`
	Items     []QuoteItem `json:"items"`
	Subtotal  int64       `json:"subtotal"`
	Shipping  int64       `json:"shipping"`
	Total     int64       `json:"total"`
	IssuedAt  time.Time   `json:"issuedAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func (q *PendingQuote) Expired(now time.Time) bool {
	return q == nil || !now.Before(q.ExpiresAt)
}

type Session struct {
	ContactKey   string            `json:"contactKey"`
	State        SessionState      `json:"state"`
	Answers      map[string]string `json:"answers,omitempty"`
	Quote        *PendingQuote     `json:"quote,omitempty"`
	HandedOffAt  *time.Time        `json:"handedOffAt,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	LastActivity time.Time         `json:"lastActivity"`
}

func NewSession(contactKey string, now time.Time) Session {
	return Session{
		ContactKey:   contactKey,
		State:        StateNew,
		Answers:      map[string]string{},
		CreatedAt:    now,
		LastActivity: now,
	}
}

// Valid reports whether the session carries the fields its state needs.
func (s Session) Valid() bool {
	if !s.State.Valid() {
		return false
	}
	if s.State == StateAwaitingSellerConfirmation && s.Quote == nil {
		return false
	}
	return true
}

// Clone returns a deep copy so callers never share maps with the store.
func (s Session) Clone() Session {
	out := s
	out.Answers = make(map[string]string, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	if s.Quote != nil {
		q := *s.Quote
		q.Items = append([]QuoteItem(nil), s.Quote.Items...)
		out.Quote = &q
	}
	if s.HandedOffAt != nil {
		t := *s.HandedOffAt
		out.HandedOffAt = &t
	}
	return out
}

// SessionPatch describes the attributes to merge into a stored session.
type SessionPatch struct {
	State       *SessionState
	Answers     map[string]string
	Quote       *PendingQuote
	ClearQuote  bool
	HandedOffAt *time.Time
}

func (p SessionPatch) Apply(s Session) Session {
	out := s.Clone()
	if p.State != nil {
		out.State = *p.State
		if *p.State != StateHandedOff {
			out.HandedOffAt = nil
		}
	}
	for k, v := range p.Answers {
		out.Answers[k] = v
	}
	if p.ClearQuote {
		out.Quote = nil
	}
	if p.Quote != nil {
		q := *p.Quote
		out.Quote = &q
	}
	if p.HandedOffAt != nil {
		t := *p.HandedOffAt
		out.HandedOffAt = &t
	}
	return out
}

func StatePtr(s SessionState) *SessionState {
	return &s
}
