package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/clock"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/repository"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/sse"
)

var sweepNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type mockPanelStore struct {
	deleteExpiredCount int
	calls              int
}

func (m *mockPanelStore) DeleteExpired() int {
	m.calls++
	return m.deleteExpiredCount
}

type mockPruner struct {
	before time.Time
	count  int64
	err    error
}

func (m *mockPruner) Prune(ctx context.Context, before time.Time) (int64, error) {
	m.before = before
	return m.count, m.err
}

type mockMetrics struct{}

func (mockMetrics) Metrics() model.Metrics {
	return model.Metrics{MessagesIn: 3}
}

type mockPublisher struct {
	mu     sync.Mutex
	events []string
}

func (m *mockPublisher) Emit(_ context.Context, eventType string, _ any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventType)
}

type mockArchiveRepo struct {
	repository.ArchiveRepository
	upserted  []model.Profile
	upsertErr error
}

func (m *mockArchiveRepo) UpsertProfiles(ctx context.Context, profiles []model.Profile) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, profiles...)
	return nil
}

func (m *mockArchiveRepo) WithTx(tx *sqlx.Tx) repository.ArchiveRepository {
	return m
}

func TestSweepJob(t *testing.T) {
	t.Run("creates job with correct interval", func(t *testing.T) {
		job := NewSweepJob(SweepDeps{}, 0, 5*time.Minute)

		assert.NotNil(t, job)
		assert.Equal(t, 5*time.Minute, job.interval)
	})

	t.Run("starts and stops without panic", func(t *testing.T) {
		job := NewSweepJob(SweepDeps{
			Sessions: repository.NewSessionRepository(time.Hour),
			Panel:    &mockPanelStore{},
		}, 0, 10*time.Millisecond)

		job.Start()
		time.Sleep(50 * time.Millisecond)
		job.Stop()
	})
}

func TestSweepJob_Sweep(t *testing.T) {
	sessions := repository.NewSessionRepository(2 * time.Hour)
	profiles := repository.NewProfileRepository()
	panel := &mockPanelStore{deleteExpiredCount: 2}
	archive := &mockArchiveRepo{}
	pruner := &mockPruner{count: 4}
	pub := &mockPublisher{}

	sessions.Get("50611111111", sweepNow.Add(-3*time.Hour))
	sessions.Get("50622222222", sweepNow.Add(-time.Minute))
	profiles.Touch("50622222222", "Ana", sweepNow)

	job := NewSweepJob(SweepDeps{
		Sessions:  sessions,
		Panel:     panel,
		Profiles:  profiles,
		Archive:   archive,
		History:   pruner,
		Metrics:   mockMetrics{},
		Publisher: pub,
		Clock:     clock.Fixed(sweepNow),
	}, 90*24*time.Hour, time.Minute)

	job.sweep()

	assert.Equal(t, 1, sessions.Count())
	_, ok := sessions.Peek("50611111111")
	assert.False(t, ok)
	assert.Equal(t, 1, panel.calls)
	require.Len(t, archive.upserted, 1)
	assert.Equal(t, "Ana", archive.upserted[0].Display)
	assert.Equal(t, sweepNow.Add(-90*24*time.Hour), pruner.before)
	assert.Equal(t, []string{sse.EventMetrics}, pub.events)

	// nothing changed since the last flush
	job.sweep()
	assert.Len(t, archive.upserted, 1)
}

func TestSweepJob_ExpiresQuotes(t *testing.T) {
	sessions := repository.NewSessionRepository(2 * time.Hour)
	state := model.StateAwaitingSellerConfirmation
	sessions.Set("50611111111", model.SessionPatch{
		State: &state,
		Quote: &model.PendingQuote{Category: "dama", ExpiresAt: sweepNow.Add(-time.Minute)},
	}, sweepNow.Add(-10*time.Minute))

	job := NewSweepJob(SweepDeps{Sessions: sessions, Clock: clock.Fixed(sweepNow)}, 0, time.Minute)
	job.sweep()

	s, ok := sessions.Peek("50611111111")
	require.True(t, ok)
	assert.Equal(t, model.StateAwaitingCategory, s.State)
	assert.Nil(t, s.Quote)
}

func TestSweepJob_FailedFlushRetries(t *testing.T) {
	profiles := repository.NewProfileRepository()
	profiles.Touch("50622222222", "Ana", sweepNow)
	archive := &mockArchiveRepo{upsertErr: errors.New("connection refused")}

	job := NewSweepJob(SweepDeps{Profiles: profiles, Archive: archive, Clock: clock.Fixed(sweepNow)}, 0, time.Minute)
	job.sweep()
	assert.Empty(t, archive.upserted)

	archive.upsertErr = nil
	job.sweep()
	require.Len(t, archive.upserted, 1)
	assert.Equal(t, "50622222222", archive.upserted[0].ContactKey)
}

func TestSweepJob_StopFlushesProfiles(t *testing.T) {
	profiles := repository.NewProfileRepository()
	archive := &mockArchiveRepo{}

	job := NewSweepJob(SweepDeps{Profiles: profiles, Archive: archive}, 0, time.Hour)
	job.Start()
	profiles.Touch("50622222222", "Ana", sweepNow)
	job.Stop()

	assert.Len(t, archive.upserted, 1)
}
