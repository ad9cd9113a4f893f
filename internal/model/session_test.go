package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_Valid(t *testing.T) {
	now := time.Now()

	t.Run("new session is valid", func(t *testing.T) {
		assert.True(t, NewSession("50688887777", now).Valid())
	})

	t.Run("unknown state is invalid", func(t *testing.T) {
		s := NewSession("50688887777", now)
		s.State = "BOGUS"
		assert.False(t, s.Valid())
	})

	t.Run("confirmation state without quote is invalid", func(t *testing.T) {
		s := NewSession("50688887777", now)
		s.State = StateAwaitingSellerConfirmation
		assert.False(t, s.Valid())

		s.Quote = &PendingQuote{Category: "dama"}
		assert.True(t, s.Valid())
	})
}

func TestSessionPatch_Apply(t *testing.T) {
	now := time.Now()
	base := NewSession("50688887777", now)
	base.Answers["categoria"] = "dama"

	t.Run("merges answers without touching original", func(t *testing.T) {
		out := SessionPatch{Answers: map[string]string{"entrega": "envio"}}.Apply(base)
		assert.Equal(t, "dama", out.Answers["categoria"])
		assert.Equal(t, "envio", out.Answers["entrega"])
		_, leaked := base.Answers["entrega"]
		assert.False(t, leaked)
	})

	t.Run("sets and clears quote", func(t *testing.T) {
		withQuote := SessionPatch{
			State: StatePtr(StateAwaitingSellerConfirmation),
			Quote: &PendingQuote{Category: "dama", Total: 10000},
		}.Apply(base)
		assert.Equal(t, StateAwaitingSellerConfirmation, withQuote.State)
		assert.Equal(t, int64(10000), withQuote.Quote.Total)

		cleared := SessionPatch{State: StatePtr(StateAwaitingCategory), ClearQuote: true}.Apply(withQuote)
		assert.Nil(t, cleared.Quote)
		assert.NotNil(t, withQuote.Quote)
	})

	t.Run("leaving handed off drops timestamp", func(t *testing.T) {
		handed := SessionPatch{State: StatePtr(StateHandedOff), HandedOffAt: &now}.Apply(base)
		assert.NotNil(t, handed.HandedOffAt)

		back := SessionPatch{State: StatePtr(StateNew)}.Apply(handed)
		assert.Nil(t, back.HandedOffAt)
	})
}

func TestPendingQuote_Expired(t *testing.T) {
	now := time.Now()
	var nilQuote *PendingQuote
	assert.True(t, nilQuote.Expired(now))

	q := &PendingQuote{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, q.Expired(now))
	assert.True(t, q.Expired(now.Add(time.Minute)))
}
