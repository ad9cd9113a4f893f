package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

type SessionRepository interface {
	Get(key string, now time.Time) model.Session
	Peek(key string) (model.Session, bool)
	Set(key string, patch model.SessionPatch, now time.Time) model.Session
	Save(session model.Session)
	Reset(key string, now time.Time) model.Session
	SweepExpired(now time.Time) SweepResult
	List() []model.Session
	Count() int
	CountByState() map[model.SessionState]int
}

// SweepResult counts what one sweep changed.
type SweepResult struct {
	Sessions int `json:"sessions"`
	Quotes   int `json:"quotes"`
}

type memorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]model.Session
	timeout  time.Duration
}

// NewSessionRepository returns an in-memory store. Sessions idle for longer
// than timeout are reset to NEW on the next access or sweep.
func NewSessionRepository(timeout time.Duration) SessionRepository {
	return &memorySessionRepo{
		sessions: make(map[string]model.Session),
		timeout:  timeout,
	}
}

func (r *memorySessionRepo) expired(s model.Session, now time.Time) bool {
	return r.timeout > 0 && now.Sub(s.LastActivity) > r.timeout
}

// quoteLapsed drops an expired pending quote and sends the contact back to
// category selection. It reports whether s changed.
func quoteLapsed(s *model.Session, now time.Time) bool {
	if s.State != model.StateAwaitingSellerConfirmation || s.Quote == nil || !s.Quote.Expired(now) {
		return false
	}
	s.State = model.StateAwaitingCategory
	s.Quote = nil
	return true
}

func (r *memorySessionRepo) Get(key string, now time.Time) model.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	switch {
	case !ok || r.expired(s, now):
		s = model.NewSession(key, now)
		r.sessions[key] = s
	case quoteLapsed(&s, now):
		r.sessions[key] = s
	}
	return s.Clone()
}

func (r *memorySessionRepo) Peek(key string) (model.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	if !ok {
		return model.Session{}, false
	}
	return s.Clone(), true
}

func (r *memorySessionRepo) Set(key string, patch model.SessionPatch, now time.Time) model.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[key]
	if !ok || r.expired(s, now) {
		s = model.NewSession(key, now)
	}
	s = patch.Apply(s)
	s.LastActivity = now
	r.sessions[key] = s
	return s.Clone()
}

func (r *memorySessionRepo) Save(session model.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ContactKey] = session.Clone()
}

func (r *memorySessionRepo) Reset(key string, now time.Time) model.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := model.NewSession(key, now)
	if prev, ok := r.sessions[key]; ok {
		s.CreatedAt = prev.CreatedAt
	}
	r.sessions[key] = s
	return s.Clone()
}

func (r *memorySessionRepo) SweepExpired(now time.Time) SweepResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res SweepResult
	for key, s := range r.sessions {
		switch {
		case r.expired(s, now):
			delete(r.sessions, key)
			res.Sessions++
		case quoteLapsed(&s, now):
			r.sessions[key] = s
			res.Quotes++
		}
	}
	return res
}

func (r *memorySessionRepo) List() []model.Session {
	r.mu.Lock()
	out := make([]model.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Clone())
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out
}

func (r *memorySessionRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *memorySessionRepo) CountByState() map[model.SessionState]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[model.SessionState]int, len(model.SessionStates))
	for _, st := range model.SessionStates {
		counts[st] = 0
	}
	for _, s := range r.sessions {
		counts[s.State]++
	}
	return counts
}
