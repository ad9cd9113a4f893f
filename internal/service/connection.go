package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/sse"
)

// ConnectionService tracks the messaging transport state reported by the
// gateway. Automatic replies are suspended unless the transport is connected.
type ConnectionService struct {
	mu        sync.RWMutex
	state     model.ConnectionState
	publisher Publisher
}

func NewConnectionService(publisher Publisher) *ConnectionService {
	return &ConnectionService{
		state: model.ConnectionState{
			Status:    model.ConnectionDisconnected,
			UpdatedAt: time.Now(),
		},
		publisher: publisherOrNop(publisher),
	}
}

// Update matches transport.StateHandler.
func (s *ConnectionService) Update(ctx context.Context, state model.ConnectionState) {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}
	if state.Status != model.ConnectionAwaitingQR {
		state.QR = ""
	}

	s.mu.Lock()
	prev := s.state
	s.state = state
	s.mu.Unlock()

	if prev.Status != state.Status {
		log.Info().
			Str("from", string(prev.Status)).
			Str("to", string(state.Status)).
			Msg("transport connection state changed")
	}

	s.publisher.Emit(ctx, sse.EventStatus, state)
	if state.Status == model.ConnectionAwaitingQR && state.QR != "" {
		s.publisher.Emit(ctx, sse.EventQR, map[string]string{"qr": state.QR})
	}
}

func (s *ConnectionService) State() model.ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *ConnectionService) Connected() bool {
	return s.State().Status == model.ConnectionConnected
}
