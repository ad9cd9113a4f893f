package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/audit"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/contact"
	apperrors "github.com/dhooHub/Bot-La-Vaca-sub000/internal/errors"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/httputil"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/middleware"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/model"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/repository"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/service"
)

const (
	snapshotHistoryLimit = 50
	contactHistoryLimit  = 20
)

type PanelHandler struct {
	panel    *service.PanelService
	bot      *service.BotService
	sessions repository.SessionRepository
	profiles repository.ProfileRepository
	history  *service.HistoryService

	sessionMiddleware func(http.Handler) http.Handler
	loginRateLimiter  *middleware.LoginRateLimiter
	events            http.Handler
	ws                http.Handler
	isProduction      bool
}

type PanelDeps struct {
	Panel    *service.PanelService
	Bot      *service.BotService
	Sessions repository.SessionRepository
	Profiles repository.ProfileRepository
	History  *service.HistoryService
	Events   http.Handler
	WS       http.Handler
}

func NewPanelHandler(deps PanelDeps, sessionMiddleware func(http.Handler) http.Handler, isProduction bool) *PanelHandler {
	return &PanelHandler{
		panel:             deps.Panel,
		bot:               deps.Bot,
		sessions:          deps.Sessions,
		profiles:          deps.Profiles,
		history:           deps.History,
		sessionMiddleware: sessionMiddleware,
		loginRateLimiter:  middleware.NewLoginRateLimiter(),
		events:            deps.Events,
		ws:                deps.WS,
		isProduction:      isProduction,
	}
}

func (h *PanelHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.loginRateLimiter.Handler).Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.sessionMiddleware)

		if h.events != nil {
			r.Method(http.MethodGet, "/events", h.events)
		}
		if h.ws != nil {
			r.Method(http.MethodGet, "/ws", h.ws)
		}

		r.Get("/snapshot", h.Snapshot)
		r.Get("/history", h.History)
		r.Get("/metrics", h.Metrics)

		// Contacts
		r.Get("/contacts", h.ListContacts)
		r.Get("/contacts/{key}", h.GetContact)
		r.Post("/contacts/{key}/release", h.ReleaseContact)

		// Bot controls
		r.Post("/pause", h.Pause)
		r.Post("/resume", h.Resume)
		r.Post("/reply", h.Reply)
	})

	return r
}

func (h *PanelHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.MissingRequired("pin"))
		return
	}

	token, session, err := h.panel.Login(req.PIN, r.RemoteAddr)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeInvalidPIN {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginFailure})
		}
		if !apperrors.IsAppError(err) {
			log.Error().Err(err).Msg("panel login error")
		}
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLoginSuccess, SessionID: session.ID})
	middleware.SetSessionCookie(w, middleware.PanelSessionCookie, token, middleware.PanelCookiePath, h.isProduction)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"token":     token,
		"expiresAt": session.ExpiresAt,
	})
}

func (h *PanelHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.ExtractPanelToken(r); token != "" {
		if session, ok := h.panel.ValidateSession(token); ok {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout, SessionID: session.ID})
		}
		h.panel.Logout(token)
	}

	middleware.ClearSessionCookie(w, middleware.PanelSessionCookie, middleware.PanelCookiePath)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Snapshot is the initial dashboard state; later changes arrive as events.
func (h *PanelHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   h.bot.Status(),
		"metrics":  h.bot.Metrics(),
		"sessions": h.sessions.List(),
		"byState":  h.sessions.CountByState(),
		"history":  h.history.Recent(snapshotHistoryLimit, 0),
	})
}

func (h *PanelHandler) History(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)

	if raw := r.URL.Query().Get("contact"); raw != "" {
		entries, err := h.history.ByContact(r.Context(), contact.Normalize(raw), p.Limit, p.Offset)
		if err != nil {
			log.Error().Err(err).Str("contact", raw).Msg("failed to get contact history")
			httputil.WriteError(w, apperrors.Database(err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items":  entries,
			"limit":  p.Limit,
			"offset": p.Offset,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":  h.history.Recent(p.Limit, p.Offset),
		"total":  h.history.Len(),
		"limit":  p.Limit,
		"offset": p.Offset,
	})
}

func (h *PanelHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.bot.Metrics())
}

func (h *PanelHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)
	profiles := h.profiles.List()

	page := paginate(profiles, p)
	items := make([]contactView, 0, len(page))
	for _, profile := range page {
		items = append(items, formatContact(profile, h.sessions))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items":  items,
		"total":  len(profiles),
		"limit":  p.Limit,
		"offset": p.Offset,
	})
}

func (h *PanelHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	key := contact.Normalize(chi.URLParam(r, "key"))
	profile, ok := h.profiles.Get(key)
	if !ok {
		httputil.WriteError(w, apperrors.NotFound("Contact"))
		return
	}

	entries, err := h.history.ByContact(r.Context(), key, contactHistoryLimit, 0)
	if err != nil {
		log.Warn().Err(err).Str("contact", key).Msg("failed to load contact history")
		entries = []model.HistoryEntry{}
	}

	resp := map[string]any{
		"contact": formatContact(*profile, h.sessions),
		"history": entries,
	}
	if s, ok := h.sessions.Peek(key); ok {
		resp["session"] = s
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PanelHandler) ReleaseContact(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	session, err := h.bot.Release(r.Context(), key)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventContactRelease,
		SessionID: panelSessionID(r),
		Contact:   session.ContactKey,
	})
	writeJSON(w, http.StatusOK, map[string]any{"session": session})
}

func (h *PanelHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.bot.Pause(r.Context())
	audit.LogFromRequest(r, audit.Event{Type: audit.EventBotPaused, SessionID: panelSessionID(r)})
	writeJSON(w, http.StatusOK, h.bot.Status())
}

func (h *PanelHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.bot.Resume(r.Context())
	audit.LogFromRequest(r, audit.Event{Type: audit.EventBotResumed, SessionID: panelSessionID(r)})
	writeJSON(w, http.StatusOK, h.bot.Status())
}

type replyRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

func (h *PanelHandler) Reply(w http.ResponseWriter, r *http.Request) {
	var req replyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.InvalidInput("body", "invalid JSON"))
		return
	}
	if req.To == "" {
		httputil.WriteError(w, apperrors.MissingRequired("to"))
		return
	}

	c, err := h.bot.ManualReply(r.Context(), req.To, req.Text)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventManualReply,
		SessionID: panelSessionID(r),
		Contact:   c.Key,
		Details:   map[string]interface{}{"length": len(req.Text)},
	})
	writeJSON(w, http.StatusAccepted, map[string]any{"contact": c, "queued": true})
}

func panelSessionID(r *http.Request) string {
	if s := middleware.GetPanelSession(r.Context()); s != nil {
		return s.ID
	}
	return ""
}
