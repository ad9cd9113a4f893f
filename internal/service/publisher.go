package service

import "context"

// Publisher pushes dashboard events. *sse.Broker satisfies it.
type Publisher interface {
	Emit(ctx context.Context, eventType string, v any)
}

type nopPublisher struct{}

func (nopPublisher) Emit(context.Context, string, any) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
