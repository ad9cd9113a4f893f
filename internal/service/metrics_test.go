package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

func TestMetricsService_Snapshot(t *testing.T) {
	m := NewMetricsService(botNow)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncMessagesIn()
			m.IncMessagesOut()
		}()
	}
	wg.Wait()
	m.IncQuotesSent()
	m.IncConfirmed()
	m.IncHandoffs()
	m.IncFallbacks()
	m.IncSendFailures()
	m.IncSendRetries()
	m.IncSendRetries()

	snap := m.Snapshot(Gauges{ActiveSessions: 3, Contacts: 5, QueueLength: 2, Paused: true, Connection: model.ConnectionConnected})

	assert.Equal(t, model.Metrics{
		MessagesIn:       50,
		MessagesOut:      50,
		QuotesSent:       1,
		ConfirmedIntents: 1,
		Handoffs:         1,
		Fallbacks:        1,
		SendFailures:     1,
		SendRetries:      2,
		ActiveSessions:   3,
		Contacts:         5,
		QueueLength:      2,
		Paused:           true,
		Connection:       model.ConnectionConnected,
		StartedAt:        botNow,
	}, snap)
}
