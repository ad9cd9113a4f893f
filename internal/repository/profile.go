package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

type ProfileRepository interface {
	Touch(key, display string, now time.Time) model.Profile
	Record(key string, now time.Time, fn func(p *model.Profile)) model.Profile
	Get(key string) (*model.Profile, bool)
	List() []model.Profile
	Count() int
	Load(profiles []model.Profile)
	// Dirty returns profiles changed since the previous call.
	Dirty() []model.Profile
}

type memoryProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]model.Profile
	dirty    map[string]struct{}
}

func NewProfileRepository() ProfileRepository {
	return &memoryProfileRepo{
		profiles: make(map[string]model.Profile),
		dirty:    make(map[string]struct{}),
	}
}

func (r *memoryProfileRepo) Touch(key, display string, now time.Time) model.Profile {
	return r.Record(key, now, func(p *model.Profile) {
		if display != "" {
			p.Display = display
		}
	})
}

// Record applies fn to a copy of the profile and stores the result, creating
// the profile on first sight.
func (r *memoryProfileRepo) Record(key string, now time.Time, fn func(p *model.Profile)) model.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[key]
	if !ok {
		p = model.NewProfile(key, "", now)
	}
	p = p.Clone()
	if fn != nil {
		fn(&p)
	}
	if now.After(p.LastSeenAt) {
		p.LastSeenAt = now
	}
	r.profiles[key] = p
	r.dirty[key] = struct{}{}
	return p.Clone()
}

func (r *memoryProfileRepo) Get(key string) (*model.Profile, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[key]
	if !ok {
		return nil, false
	}
	out := p.Clone()
	return &out, true
}

func (r *memoryProfileRepo) List() []model.Profile {
	r.mu.Lock()
	out := make([]model.Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p.Clone())
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSeenAt.After(out[j].LastSeenAt)
	})
	return out
}

func (r *memoryProfileRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.profiles)
}

// Load seeds profiles without marking them dirty. Profiles already in memory
// win over the loaded copy.
func (r *memoryProfileRepo) Load(profiles []model.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range profiles {
		if _, ok := r.profiles[p.ContactKey]; ok {
			continue
		}
		p = p.Clone()
		r.profiles[p.ContactKey] = p
	}
}

func (r *memoryProfileRepo) Dirty() []model.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Profile, 0, len(r.dirty))
	for key := range r.dirty {
		out = append(out, r.profiles[key].Clone())
	}
	r.dirty = make(map[string]struct{})
	return out
}
