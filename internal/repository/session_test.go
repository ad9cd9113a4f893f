package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

var t0 = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func TestSessionRepository_GetCreatesNew(t *testing.T) {
	repo := NewSessionRepository(2 * time.Hour)

	s := repo.Get("50688887777", t0)
	assert.Equal(t, model.StateNew, s.State)
	assert.Equal(t, "50688887777", s.ContactKey)
	assert.Equal(t, t0, s.CreatedAt)
	assert.Equal(t, 1, repo.Count())
}

func TestSessionRepository_SetMergesPatch(t *testing.T) {
	repo := NewSessionRepository(2 * time.Hour)

	repo.Set("a", model.SessionPatch{
		State:   model.StatePtr(model.StateAwaitingCategory),
		Answers: map[string]string{"categoria": "dama"},
	}, t0)
	s := repo.Set("a", model.SessionPatch{
		Answers: map[string]string{"entrega": "envio"},
	}, t0.Add(time.Minute))

	assert.Equal(t, model.StateAwaitingCategory, s.State)
	assert.Equal(t, map[string]string{"categoria": "dama", "entrega": "envio"}, s.Answers)
	assert.Equal(t, t0.Add(time.Minute), s.LastActivity)
}

func TestSessionRepository_GetReturnsCopy(t *testing.T) {
	repo := NewSessionRepository(0)

	s := repo.Get("a", t0)
	s.Answers["x"] = "y"

	again := repo.Get("a", t0)
	assert.Empty(t, again.Answers)
}

func TestSessionRepository_ExpiryResetsToNew(t *testing.T) {
	repo := NewSessionRepository(2 * time.Hour)

	repo.Set("a", model.SessionPatch{
		State:   model.StatePtr(model.StateHandedOff),
		Answers: map[string]string{"categoria": "dama"},
	}, t0)

	t.Run("within the timeout", func(t *testing.T) {
		s := repo.Get("a", t0.Add(2*time.Hour))
		assert.Equal(t, model.StateHandedOff, s.State)
	})

	t.Run("past the timeout", func(t *testing.T) {
		s := repo.Get("a", t0.Add(2*time.Hour+time.Second))
		assert.Equal(t, model.StateNew, s.State)
		assert.Empty(t, s.Answers)
		assert.Nil(t, s.Quote)
	})
}

func TestSessionRepository_Reset(t *testing.T) {
	repo := NewSessionRepository(2 * time.Hour)
	repo.Set("a", model.SessionPatch{State: model.StatePtr(model.StateHandedOff)}, t0)

	s := repo.Reset("a", t0.Add(time.Minute))
	assert.Equal(t, model.StateNew, s.State)
	assert.Nil(t, s.HandedOffAt)

	stored, ok := repo.Peek("a")
	require.True(t, ok)
	assert.Equal(t, model.StateNew, stored.State)
}

func TestSessionRepository_SweepExpired(t *testing.T) {
	repo := NewSessionRepository(2 * time.Hour)

	repo.Save(model.Session{ContactKey: "idle", State: model.StateAwaitingCategory, LastActivity: t0})
	repo.Save(model.Session{
		ContactKey:   "quoted",
		State:        model.StateAwaitingSellerConfirmation,
		Quote:        &model.PendingQuote{Category: "dama", ExpiresAt: t0.Add(90 * time.Minute)},
		LastActivity: t0.Add(time.Hour),
	})
	repo.Save(model.Session{ContactKey: "fresh", State: model.StateNew, LastActivity: t0.Add(2 * time.Hour)})

	res := repo.SweepExpired(t0.Add(2*time.Hour + time.Minute))
	assert.Equal(t, SweepResult{Sessions: 1, Quotes: 1}, res)

	_, ok := repo.Peek("idle")
	assert.False(t, ok)

	quoted, ok := repo.Peek("quoted")
	require.True(t, ok)
	assert.Equal(t, model.StateAwaitingCategory, quoted.State)
	assert.Nil(t, quoted.Quote)

	assert.Equal(t, 2, repo.Count())
}

func TestSessionRepository_GetExpiresLapsedQuote(t *testing.T) {
	repo := NewSessionRepository(2 * time.Hour)
	repo.Save(model.Session{
		ContactKey:   "quoted",
		State:        model.StateAwaitingSellerConfirmation,
		Answers:      map[string]string{"categoria": "dama"},
		Quote:        &model.PendingQuote{Category: "dama", ExpiresAt: t0.Add(30 * time.Minute)},
		LastActivity: t0,
	})

	live := repo.Get("quoted", t0.Add(29*time.Minute))
	assert.Equal(t, model.StateAwaitingSellerConfirmation, live.State)
	require.NotNil(t, live.Quote)

	lapsed := repo.Get("quoted", t0.Add(31*time.Minute))
	assert.Equal(t, model.StateAwaitingCategory, lapsed.State)
	assert.Nil(t, lapsed.Quote)

	stored, ok := repo.Peek("quoted")
	require.True(t, ok)
	assert.Equal(t, model.StateAwaitingCategory, stored.State)
	assert.Equal(t, SweepResult{}, repo.SweepExpired(t0.Add(32*time.Minute)))
}

func TestSessionRepository_ListAndCountByState(t *testing.T) {
	repo := NewSessionRepository(0)
	repo.Get("a", t0)
	repo.Set("b", model.SessionPatch{State: model.StatePtr(model.StateHandedOff)}, t0.Add(time.Minute))

	list := repo.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ContactKey)

	counts := repo.CountByState()
	assert.Equal(t, 1, counts[model.StateNew])
	assert.Equal(t, 1, counts[model.StateHandedOff])
	assert.Equal(t, 0, counts[model.StateAwaitingCategory])
}
