package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/repository"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/sse"
)

type HistoryService struct {
	ring      repository.HistoryRepository
	archive   repository.ArchiveRepository
	publisher Publisher
	seq       atomic.Uint64
}

// NewHistoryService records into the ring and, when archive is not nil, into
// the database as well.
func NewHistoryService(ring repository.HistoryRepository, archive repository.ArchiveRepository, publisher Publisher) *HistoryService {
	return &HistoryService{
		ring:      ring,
		archive:   archive,
		publisher: publisherOrNop(publisher),
	}
}

func (s *HistoryService) Record(ctx context.Context, c model.Contact, dir model.Direction, text string, at time.Time) model.HistoryEntry {
	entry := model.HistoryEntry{
		ID:         fmt.Sprintf("%d-%d", at.UnixNano(), s.seq.Add(1)),
		ContactKey: c.Key,
		Display:    c.Display,
		Direction:  dir,
		Text:       text,
		Timestamp:  at,
	}
	s.ring.Append(entry)

	if s.archive != nil {
		if err := s.archive.AppendMessage(ctx, entry); err != nil {
			log.Error().Err(err).Str("contact", c.Key).Msg("failed to archive chat message")
		}
	}

	s.publisher.Emit(ctx, sse.EventMessage, entry)
	return entry
}

func (s *HistoryService) Recent(limit, offset int) []model.HistoryEntry {
	return s.ring.Recent(limit, offset)
}

func (s *HistoryService) Len() int {
	return s.ring.Len()
}

// ByContact reads from the archive when it is configured, since the ring only
// holds the latest entries across all contacts.
func (s *HistoryService) ByContact(ctx context.Context, key string, limit, offset int) ([]model.HistoryEntry, error) {
	if s.archive == nil {
		entries := s.ring.ByContact(key, limit+offset)
		if offset >= len(entries) {
			return []model.HistoryEntry{}, nil
		}
		return entries[offset:], nil
	}

	entries, err := s.archive.FindMessagesByContact(ctx, key, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("find messages for %s: %w", key, err)
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return entries, nil
}

// Prune deletes archived messages older than before. The ring bounds itself.
func (s *HistoryService) Prune(ctx context.Context, before time.Time) (int64, error) {
	if s.archive == nil {
		return 0, nil
	}
	return s.archive.DeleteMessagesBefore(ctx, before)
}
