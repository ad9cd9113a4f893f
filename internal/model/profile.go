package model

import "time"

type Profile struct {
	ContactKey    string         `db:"contact_key" json:"contactKey"`
	Display       string         `db:"display" json:"display"`
	MessagesIn    int64          `db:"messages_in" json:"messagesIn"`
	MessagesOut   int64          `db:"messages_out" json:"messagesOut"`
	QuotesSent    int64          `db:"quotes_sent" json:"quotesSent"`
	Confirmations int64          `db:"confirmations" json:"confirmations"`
	Handoffs      int64          `db:"handoffs" json:"handoffs"`
	Fallbacks     int64          `db:"fallbacks" json:"fallbacks"`
	Intents       map[Intent]int `db:"-" json:"intents"`
	FirstSeenAt   time.Time      `db:"first_seen_at" json:"firstSeenAt"`
	LastSeenAt    time.Time      `db:"last_seen_at" json:"lastSeenAt"`
}

func NewProfile(contactKey, display string, now time.Time) Profile {
	return Profile{
		ContactKey:  contactKey,
		Display:     display,
		Intents:     map[Intent]int{},
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
}

func (p Profile) Clone() Profile {
	out := p
	out.Intents = make(map[Intent]int, len(p.Intents))
	for k, v := range p.Intents {
		out.Intents[k] = v
	}
	return out
}

type Metrics struct {
	MessagesIn       int64            `json:"messagesIn"`
	MessagesOut      int64            `json:"messagesOut"`
	QuotesSent       int64            `json:"quotesSent"`
	ConfirmedIntents int64            `json:"confirmedIntents"`
	Handoffs         int64            `json:"handoffs"`
	Fallbacks        int64            `json:"fallbacks"`
	SendFailures     int64            `json:"sendFailures"`
	SendRetries      int64            `json:"sendRetries"`
	ActiveSessions   int              `json:"activeSessions"`
	Contacts         int              `json:"contacts"`
	QueueLength      int              `json:"queueLength"`
	Paused           bool             `json:"paused"`
	Connection       ConnectionStatus `json:"connection"`
	StartedAt        time.Time        `json:"startedAt"`
}
