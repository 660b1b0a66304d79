package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/FocusGate/internal/domain"
	"github.com/utafrali/FocusGate/internal/service"
	"github.com/utafrali/FocusGate/pkg/httputil"
	"github.com/utafrali/FocusGate/pkg/middleware"
	"github.com/utafrali/FocusGate/pkg/validator"
)

// AccountHandler serves a user's progression and gating settings.
type AccountHandler struct {
	engine *service.Engine
	logger *slog.Logger
}

// NewAccountHandler creates a new account HTTP handler.
func NewAccountHandler(engine *service.Engine, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{engine: engine, logger: logger}
}

// UpdateSettingsRequest is a partial settings change. Omitted fields keep
// their current value.
type UpdateSettingsRequest struct {
	ChallengesEnabled     *bool    `json:"challengesEnabled"`
	AllowedTypes          []string `json:"allowedTypes" validate:"omitempty,min=1,dive,oneof=arithmetic memory typing exercise breathing puzzle reaction"`
	Difficulty            *int     `json:"difficulty" validate:"omitempty,gte=1,lte=5"`
	CooldownMinutes       *int     `json:"cooldownMinutes" validate:"omitempty,gte=0,lte=1440"`
	MaxUnlocksPerSession  *int     `json:"maxUnlocksPerSession" validate:"omitempty,gte=0,lte=100"`
	UnlockDurationMinutes *int     `json:"unlockDurationMinutes" validate:"omitempty,gte=1,lte=240"`
}

// Progress handles GET /api/v1/progress
func (h *AccountHandler) Progress(w http.ResponseWriter, r *http.Request) {
	p, err := h.engine.Progress(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// Settings handles GET /api/v1/settings
func (h *AccountHandler) Settings(w http.ResponseWriter, r *http.Request) {
	s, err := h.engine.Settings(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, s)
}

// UpdateSettings handles PUT /api/v1/settings
func (h *AccountHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	update := service.SettingsUpdate{
		ChallengesEnabled:     req.ChallengesEnabled,
		Difficulty:            req.Difficulty,
		CooldownMinutes:       req.CooldownMinutes,
		MaxUnlocksPerSession:  req.MaxUnlocksPerSession,
		UnlockDurationMinutes: req.UnlockDurationMinutes,
	}
	for _, t := range req.AllowedTypes {
		update.AllowedTypes = append(update.AllowedTypes, domain.ChallengeType(t))
	}

	s, err := h.engine.UpdateSettings(r.Context(), middleware.UserIDFromContext(r.Context()), update)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, s)
}
