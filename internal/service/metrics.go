package service

import (
	"sync/atomic"
	"time"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

// MetricsService holds the process-wide counters. Counters only grow.
type MetricsService struct {
	messagesIn   atomic.Int64
	messagesOut  atomic.Int64
	quotesSent   atomic.Int64
	confirmed    atomic.Int64
	handoffs     atomic.Int64
	fallbacks    atomic.Int64
	sendFailures atomic.Int64
	sendRetries  atomic.Int64

	startedAt time.Time
}

func NewMetricsService(startedAt time.Time) *MetricsService {
	return &MetricsService{startedAt: startedAt}
}

func (m *MetricsService) IncMessagesIn()   { m.messagesIn.Add(1) }
func (m *MetricsService) IncMessagesOut()  { m.messagesOut.Add(1) }
func (m *MetricsService) IncQuotesSent()   { m.quotesSent.Add(1) }
func (m *MetricsService) IncConfirmed()    { m.confirmed.Add(1) }
func (m *MetricsService) IncHandoffs()     { m.handoffs.Add(1) }
func (m *MetricsService) IncFallbacks()    { m.fallbacks.Add(1) }
func (m *MetricsService) IncSendFailures() { m.sendFailures.Add(1) }
func (m *MetricsService) IncSendRetries()  { m.sendRetries.Add(1) }

// Gauges are the point-in-time values merged into a snapshot.
type Gauges struct {
	ActiveSessions int
	Contacts       int
	QueueLength    int
	Paused         bool
	Connection     model.ConnectionStatus
}

func (m *MetricsService) Snapshot(g Gauges) model.Metrics {
	return model.Metrics{
		MessagesIn:       m.messagesIn.Load(),
		MessagesOut:      m.messagesOut.Load(),
		QuotesSent:       m.quotesSent.Load(),
		ConfirmedIntents: m.confirmed.Load(),
		Handoffs:         m.handoffs.Load(),
		Fallbacks:        m.fallbacks.Load(),
		SendFailures:     m.sendFailures.Load(),
		SendRetries:      m.sendRetries.Load(),
		ActiveSessions:   g.ActiveSessions,
		Contacts:         g.Contacts,
		QueueLength:      g.QueueLength,
		Paused:           g.Paused,
		Connection:       g.Connection,
		StartedAt:        m.startedAt,
	}
}
