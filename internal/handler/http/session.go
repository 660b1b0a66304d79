package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/FocusGate/internal/domain"
	"github.com/utafrali/FocusGate/internal/service"
	apperrors "github.com/utafrali/FocusGate/pkg/errors"
	"github.com/utafrali/FocusGate/pkg/httputil"
	"github.com/utafrali/FocusGate/pkg/middleware"
)

// SessionHandler handles HTTP requests for focus session endpoints.
type SessionHandler struct {
	engine *service.Engine
	logger *slog.Logger
}

// NewSessionHandler creates a new focus session HTTP handler.
func NewSessionHandler(engine *service.Engine, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{engine: engine, logger: logger}
}

// EndSessionResponse is the body returned when a session is closed.
type EndSessionResponse struct {
	Session        *domain.FocusSession `json:"session"`
	XPEarned       int                  `json:"xpEarned"`
	StreakBonus    int                  `json:"streakBonus"`
	Streak         string               `json:"streak"`
	Progress       *domain.Progress     `json:"progress"`
	RevokedUnlocks int                  `json:"revokedUnlocks"`
	EndedAt        time.Time            `json:"endedAt"`
}

// Start handles POST /api/v1/focus-sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	session, err := h.engine.StartSession(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, session)
}

// Active handles GET /api/v1/focus-sessions/active
func (h *SessionHandler) Active(w http.ResponseWriter, r *http.Request) {
	session, err := h.engine.ActiveSession(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		// No open session is a lookup miss here, not a rejected action.
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == service.CodeNoActiveSession {
			err = apperrors.New(appErr.Code, http.StatusNotFound, apperrors.ErrNotFound, appErr.Message)
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, session)
}

// RecordDistraction handles POST /api/v1/focus-sessions/{id}/distractions
func (h *SessionHandler) RecordDistraction(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	session, err := h.engine.RecordDistraction(r.Context(), middleware.UserIDFromContext(r.Context()), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, session)
}

// End handles POST /api/v1/focus-sessions/{id}/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	summary, err := h.engine.EndSession(r.Context(), middleware.UserIDFromContext(r.Context()), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	resp := EndSessionResponse{
		Session:        summary.Session,
		XPEarned:       summary.XPEarned,
		StreakBonus:    summary.StreakBonus,
		Streak:         summary.Streak.String(),
		Progress:       summary.Progress,
		RevokedUnlocks: len(summary.RevokedUnlocks),
	}
	if summary.Session.EndedAt != nil {
		resp.EndedAt = *summary.Session.EndedAt
	}
	httputil.WriteData(w, http.StatusOK, resp)
}
