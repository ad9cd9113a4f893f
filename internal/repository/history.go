package repository

import (
	"sync"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
)

const DefaultHistoryCapacity = 500

type HistoryRepository interface {
	Append(entry model.HistoryEntry)
	// Recent returns entries newest first.
	Recent(limit, offset int) []model.HistoryEntry
	ByContact(key string, limit int) []model.HistoryEntry
	Len() int
}

// ringHistoryRepo keeps the last capacity entries; the oldest entry is
// evicted when a new one arrives at capacity.
type ringHistoryRepo struct {
	mu      sync.RWMutex
	entries []model.HistoryEntry
	head    int
	size    int
}

func NewHistoryRepository(capacity int) HistoryRepository {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &ringHistoryRepo{entries: make([]model.HistoryEntry, capacity)}
}

func (r *ringHistoryRepo) Append(entry model.HistoryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.head] = entry
	r.head = (r.head + 1) % len(r.entries)
	if r.size < len(r.entries) {
		r.size++
	}
}

// at returns the i-th newest entry.
func (r *ringHistoryRepo) at(i int) model.HistoryEntry {
	idx := (r.head - 1 - i + len(r.entries)) % len(r.entries)
	return r.entries[idx]
}

func (r *ringHistoryRepo) Recent(limit, offset int) []model.HistoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= r.size {
		return []model.HistoryEntry{}
	}
	n := r.size - offset
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.HistoryEntry, 0, n)
	for i := offset; i < offset+n; i++ {
		out = append(out, r.at(i))
	}
	return out
}

func (r *ringHistoryRepo) ByContact(key string, limit int) []model.HistoryEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.HistoryEntry{}
	for i := 0; i < r.size; i++ {
		e := r.at(i)
		if e.ContactKey != key {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func (r *ringHistoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}
