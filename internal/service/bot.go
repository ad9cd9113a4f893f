package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/clock"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/contact"
	apperrors "github.com/dhooHub/Bot-La-Vaca-sub000/internal/errors"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/flow"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/queue"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/repository"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/sse"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/transport"
)

const floodWindow = time.Minute

// Skip reasons reported by HandleInbound.
const (
	SkipOwnMessage   = "own_message"
	SkipGroup        = "group"
	SkipEmpty        = "empty"
	SkipPaused       = "paused"
	SkipDisconnected = "disconnected"
	SkipFlood        = "flood"
)

type OutboundQueue interface {
	Enqueue(item queue.Item)
	Len() int
}

type BotConfig struct {
	Tables     flow.Tables
	FloodLimit int
}

type BotDeps struct {
	Sessions   repository.SessionRepository
	Profiles   repository.ProfileRepository
	History    *HistoryService
	Metrics    *MetricsService
	Connection *ConnectionService
	Queue      OutboundQueue
	Flood      Limiter
	Publisher  Publisher
	Clock      clock.Clock
}

// InboundResult describes what happened to one inbound message.
type InboundResult struct {
	Contact  model.Contact  `json:"contact"`
	Skipped  string         `json:"skipped,omitempty"`
	Decision *flow.Decision `json:"decision,omitempty"`
}

// SessionEvent is pushed to the panel after every state change.
type SessionEvent struct {
	Contact model.Contact `json:"contact"`
	Session model.Session `json:"session"`
	Intent  model.Intent  `json:"intent,omitempty"`
	Action  flow.Action   `json:"action,omitempty"`
}

type StatusView struct {
	Connection model.ConnectionState `json:"connection"`
	Paused     bool                  `json:"paused"`
}

type BotService struct {
	cfg BotConfig

	sessions   repository.SessionRepository
	profiles   repository.ProfileRepository
	history    *HistoryService
	metrics    *MetricsService
	connection *ConnectionService
	queue      OutboundQueue
	flood      Limiter
	publisher  Publisher
	clock      clock.Clock

	// decideMu makes read-session -> decide -> write-session atomic for
	// every inbound message.
	decideMu sync.Mutex
	paused   atomic.Bool
}

func NewBotService(cfg BotConfig, deps BotDeps) *BotService {
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	return &BotService{
		cfg:        cfg,
		sessions:   deps.Sessions,
		profiles:   deps.Profiles,
		history:    deps.History,
		metrics:    deps.Metrics,
		connection: deps.Connection,
		queue:      deps.Queue,
		flood:      deps.Flood,
		publisher:  publisherOrNop(deps.Publisher),
		clock:      deps.Clock,
	}
}

// OnMessage matches transport.MessageHandler.
func (s *BotService) OnMessage(ctx context.Context, msg model.InboundMessage) {
	res := s.HandleInbound(ctx, msg)
	if res.Skipped != "" {
		log.Debug().
			Str("contact", res.Contact.Key).
			Str("reason", res.Skipped).
			Msg("inbound message not answered")
	}
}

func (s *BotService) HandleInbound(ctx context.Context, msg model.InboundMessage) InboundResult {
	if msg.FromMe {
		return InboundResult{Skipped: SkipOwnMessage}
	}
	if contact.IsGroup(msg.From) {
		return InboundResult{Skipped: SkipGroup}
	}

	c := contact.Parse(msg.From)
	res := InboundResult{Contact: c}
	text := strings.TrimSpace(msg.Text)
	if text == "" || c.Key == "" {
		res.Skipped = SkipEmpty
		return res
	}

	now := s.clock.Now()
	s.history.Record(ctx, c, model.DirectionInbound, text, now)
	s.metrics.IncMessagesIn()
	s.profiles.Record(c.Key, now, func(p *model.Profile) {
		p.MessagesIn++
		if msg.PushName != "" {
			p.Display = msg.PushName
		} else if p.Display == "" {
			p.Display = c.Display
		}
	})

	switch {
	case s.Paused():
		res.Skipped = SkipPaused
		return res
	case s.connection != nil && !s.connection.Connected():
		res.Skipped = SkipDisconnected
		return res
	case s.flooded(ctx, c.Key):
		res.Skipped = SkipFlood
		return res
	}

	d := s.decide(c.Key, text, now)
	res.Decision = &d

	s.recordDecision(c, d, now)

	if len(d.Replies) > 0 {
		payloads := make([]transport.Payload, len(d.Replies))
		for i, r := range d.Replies {
			payloads[i] = transport.Text(r)
		}
		s.queue.Enqueue(queue.Item{ContactKey: c.Key, Address: c.Address, Messages: payloads})
	}

	log.Info().
		Str("contact", c.Key).
		Str("intent", string(d.Intent)).
		Str("rule", d.Rule).
		Str("action", string(d.Action)).
		Str("state", string(d.Session.State)).
		Int("replies", len(d.Replies)).
		Msg("inbound message routed")

	s.publisher.Emit(ctx, sse.EventSession, SessionEvent{
		Contact: c,
		Session: d.Session,
		Intent:  d.Intent,
		Action:  d.Action,
	})
	return res
}

func (s *BotService) decide(key, text string, now time.Time) flow.Decision {
	s.decideMu.Lock()
	defer s.decideMu.Unlock()

	current := s.sessions.Get(key, now)
	d := flow.Decide(flow.Input{Session: current, Text: text, Now: now}, s.cfg.Tables)
	s.sessions.Save(d.Session)
	return d
}

func (s *BotService) recordDecision(c model.Contact, d flow.Decision, now time.Time) {
	if d.QuoteIssued {
		s.metrics.IncQuotesSent()
	}
	if d.Confirmed {
		s.metrics.IncConfirmed()
	}
	if d.HandedOff {
		s.metrics.IncHandoffs()
	}
	if d.Action == flow.ActionFallback {
		s.metrics.IncFallbacks()
	}

	s.profiles.Record(c.Key, now, func(p *model.Profile) {
		if d.Counted {
			if p.Intents == nil {
				p.Intents = map[model.Intent]int{}
			}
			p.Intents[d.Intent]++
		}
		if d.QuoteIssued {
			p.QuotesSent++
		}
		if d.Confirmed {
			p.Confirmations++
		}
		if d.HandedOff {
			p.Handoffs++
		}
		if d.Action == flow.ActionFallback {
			p.Fallbacks++
		}
	})
}

func (s *BotService) flooded(ctx context.Context, key string) bool {
	if s.flood == nil || s.cfg.FloodLimit <= 0 {
		return false
	}
	allowed, _ := s.flood.CheckLimit(ctx, "flood:"+key, s.cfg.FloodLimit, floodWindow)
	if !allowed {
		log.Warn().Str("contact", key).Int("limit", s.cfg.FloodLimit).Msg("inbound flood limit reached")
	}
	return !allowed
}

// ManualReply sends an operator message ahead of the human-paced delay and
// hands the contact off so the bot stays quiet.
func (s *BotService) ManualReply(ctx context.Context, to, text string) (model.Contact, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Contact{}, apperrors.MissingRequired("text")
	}
	if contact.IsGroup(to) {
		return model.Contact{}, apperrors.InvalidInput("to", "group addresses are not supported")
	}
	c := contact.Parse(to)
	if c.Key == "" {
		return model.Contact{}, apperrors.InvalidInput("to", "not a phone number")
	}

	now := s.clock.Now()
	s.decideMu.Lock()
	current := s.sessions.Get(c.Key, now)
	patch := model.SessionPatch{State: model.StatePtr(model.StateHandedOff)}
	handoff := current.State != model.StateHandedOff
	if handoff {
		patch.HandedOffAt = &now
	}
	session := s.sessions.Set(c.Key, patch, now)
	s.decideMu.Unlock()

	if handoff {
		s.metrics.IncHandoffs()
		s.profiles.Record(c.Key, now, func(p *model.Profile) {
			p.Handoffs++
			if p.Display == "" {
				p.Display = c.Display
			}
		})
	}

	s.queue.Enqueue(queue.Item{
		ContactKey: c.Key,
		Address:    c.Address,
		Messages:   []transport.Payload{transport.Text(text)},
		Immediate:  true,
	})

	s.publisher.Emit(ctx, sse.EventSession, SessionEvent{Contact: c, Session: session})
	return c, nil
}

// Release returns a handed-off contact to the bot.
func (s *BotService) Release(ctx context.Context, key string) (model.Session, error) {
	c := contact.Parse(key)
	if c.Key == "" {
		return model.Session{}, apperrors.InvalidInput("contact", "not a phone number")
	}
	if _, ok := s.sessions.Peek(c.Key); !ok {
		return model.Session{}, apperrors.NotFound("Session")
	}

	s.decideMu.Lock()
	session := s.sessions.Reset(c.Key, s.clock.Now())
	s.decideMu.Unlock()

	s.publisher.Emit(ctx, sse.EventSession, SessionEvent{Contact: c, Session: session})
	return session, nil
}

func (s *BotService) Pause(ctx context.Context) {
	if s.paused.CompareAndSwap(false, true) {
		log.Info().Msg("bot paused")
	}
	s.publisher.Emit(ctx, sse.EventStatus, s.Status())
}

func (s *BotService) Resume(ctx context.Context) {
	if s.paused.CompareAndSwap(true, false) {
		log.Info().Msg("bot resumed")
	}
	s.publisher.Emit(ctx, sse.EventStatus, s.Status())
}

func (s *BotService) Paused() bool {
	return s.paused.Load()
}

func (s *BotService) Status() StatusView {
	v := StatusView{Paused: s.Paused()}
	if s.connection != nil {
		v.Connection = s.connection.State()
	}
	return v
}

func (s *BotService) Metrics() model.Metrics {
	g := Gauges{
		ActiveSessions: s.sessions.Count(),
		Contacts:       s.profiles.Count(),
		QueueLength:    s.queue.Len(),
		Paused:         s.Paused(),
	}
	if s.connection != nil {
		g.Connection = s.connection.State().Status
	}
	return s.metrics.Snapshot(g)
}

// Queue hooks.

func (s *BotService) OnSent(d queue.Delivery) {
	now := s.clock.Now()
	c := contact.Parse(d.ContactKey)
	dir := model.DirectionOutbound
	if d.Immediate {
		dir = model.DirectionManual
	}

	s.history.Record(context.Background(), c, dir, d.Payload.Summary(), now)
	s.metrics.IncMessagesOut()
	s.profiles.Record(d.ContactKey, now, func(p *model.Profile) {
		p.MessagesOut++
	})
}

func (s *BotService) OnRetry(d queue.Delivery, err error) {
	s.metrics.IncSendRetries()
}

func (s *BotService) OnSendFailure(d queue.Delivery, err error) {
	s.metrics.IncSendFailures()
	s.publisher.Emit(context.Background(), sse.EventMetrics, s.Metrics())
}
