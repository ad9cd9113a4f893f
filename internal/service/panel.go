package service

import (
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "github.com/dhooHub/Bot-La-Vaca-sub000/internal/errors"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/util"
)

// PanelService authenticates dashboard operators with the shared PIN and
// keeps their login sessions in memory.
type PanelService struct {
	pin           string
	pinHashed     bool
	sessionSecret string
	ttl           time.Duration
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]model.PanelSession // token hash -> session
}

// NewPanelService accepts the PIN either in plain text or as a bcrypt hash.
// An empty PIN disables the panel.
func NewPanelService(pin, sessionSecret string, ttl time.Duration) *PanelService {
	return &PanelService{
		pin:           pin,
		pinHashed:     strings.HasPrefix(pin, "$2"),
		sessionSecret: sessionSecret,
		ttl:           ttl,
		now:           time.Now,
		sessions:      make(map[string]model.PanelSession),
	}
}

func (s *PanelService) Enabled() bool {
	return s.pin != ""
}

func (s *PanelService) checkPIN(pin string) bool {
	if s.pinHashed {
		return util.CheckPasswordHash(pin, s.pin)
	}
	return util.ConstantTimeEqual(pin, s.pin)
}

func (s *PanelService) Login(pin, ip string) (string, *model.PanelSession, error) {
	if !s.Enabled() {
		return "", nil, apperrors.Forbidden("Panel login disabled")
	}
	if pin == "" {
		return "", nil, apperrors.MissingRequired("pin")
	}
	if !s.checkPIN(pin) {
		return "", nil, apperrors.InvalidPIN()
	}

	token, err := util.GenerateToken()
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}

	now := s.now()
	tokenHash := util.HmacSHA256(s.sessionSecret, token)
	session := model.PanelSession{
		ID:        tokenHash[:12],
		TokenHash: tokenHash,
		IP:        ip,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	s.mu.Lock()
	s.sessions[tokenHash] = session
	s.mu.Unlock()

	return token, &session, nil
}

func (s *PanelService) Logout(token string) {
	tokenHash := util.HmacSHA256(s.sessionSecret, token)
	s.mu.Lock()
	delete(s.sessions, tokenHash)
	s.mu.Unlock()
}

func (s *PanelService) ValidateSession(token string) (*model.PanelSession, bool) {
	if token == "" {
		return nil, false
	}
	tokenHash := util.HmacSHA256(s.sessionSecret, token)

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[tokenHash]
	if !ok {
		return nil, false
	}
	if !s.now().Before(session.ExpiresAt) {
		delete(s.sessions, tokenHash)
		return nil, false
	}
	return &session, true
}

func (s *PanelService) DeleteExpired() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for hash, session := range s.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(s.sessions, hash)
			removed++
		}
	}
	return removed
}

func (s *PanelService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
