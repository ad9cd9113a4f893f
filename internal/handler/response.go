package handler

import (
	"net/http"
	"time"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/httputil"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/repository"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

type contactView struct {
	model.Profile
	State        model.SessionState `json:"state,omitempty"`
	LastActivity *time.Time         `json:"lastActivity,omitempty"`
}

func formatContact(p model.Profile, sessions repository.SessionRepository) contactView {
	view := contactView{Profile: p}
	if s, ok := sessions.Peek(p.ContactKey); ok {
		view.State = s.State
		at := s.LastActivity
		view.LastActivity = &at
	}
	return view
}

func paginate[T any](items []T, p PaginationParams) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	end := p.Offset + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[p.Offset:end]
}
