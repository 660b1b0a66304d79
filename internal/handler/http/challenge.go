package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/FocusGate/internal/domain"
	"github.com/utafrali/FocusGate/internal/service"
	"github.com/utafrali/FocusGate/pkg/httputil"
	"github.com/utafrali/FocusGate/pkg/middleware"
	"github.com/utafrali/FocusGate/pkg/validator"
)

// ChallengeHandler handles HTTP requests for challenge endpoints.
type ChallengeHandler struct {
	engine *service.Engine
	logger *slog.Logger
}

// NewChallengeHandler creates a new challenge HTTP handler.
func NewChallengeHandler(engine *service.Engine, logger *slog.Logger) *ChallengeHandler {
	return &ChallengeHandler{engine: engine, logger: logger}
}

// --- Request DTOs ---

// GenerateChallengeRequest is the JSON request body for issuing a challenge.
type GenerateChallengeRequest struct {
	Type   string `json:"type" validate:"omitempty,oneof=arithmetic memory typing exercise breathing puzzle reaction"`
	Domain string `json:"domain" validate:"required,max=253"`
}

// VerifyChallengeRequest is the JSON request body for answering a challenge.
type VerifyChallengeRequest struct {
	UserAnswer string `json:"userAnswer" validate:"max=4000"`
	TimeTaken  *int   `json:"timeTaken" validate:"required,gte=0"`
}

// --- Response DTOs ---

// ChallengeResponse is an issued challenge without its answer.
type ChallengeResponse struct {
	ID               string               `json:"id"`
	Type             domain.ChallengeType `json:"type"`
	Difficulty       int                  `json:"difficulty"`
	Content          any                  `json:"content"`
	XPReward         int                  `json:"xpReward"`
	UnlockDuration   int                  `json:"unlockDuration"`
	RemainingUnlocks int                  `json:"remainingUnlocks"`
}

// VerifyResponse reports a verification outcome. The unlock fields are only
// set on success.
type VerifyResponse struct {
	Success           bool             `json:"success"`
	XPAwarded         int              `json:"xpAwarded,omitempty"`
	UnlockDuration    int              `json:"unlockDuration,omitempty"`
	ExpiresAt         *time.Time       `json:"expiresAt,omitempty"`
	TemporaryUnlockID string           `json:"temporaryUnlockId,omitempty"`
	Progress          *domain.Progress `json:"progress,omitempty"`
}

// --- Handlers ---

// Generate handles POST /api/v1/challenges/generate
func (h *ChallengeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateChallengeRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	issued, err := h.engine.Issue(r.Context(), middleware.UserIDFromContext(r.Context()),
		domain.ChallengeType(req.Type), req.Domain)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	c := issued.Challenge
	httputil.WriteData(w, http.StatusCreated, ChallengeResponse{
		ID:               c.ID,
		Type:             c.Type,
		Difficulty:       c.Difficulty,
		Content:          c.Content.Public(),
		XPReward:         issued.XPReward,
		UnlockDuration:   c.UnlockDurationMinutes,
		RemainingUnlocks: issued.RemainingUnlocks,
	})
}

// Verify handles POST /api/v1/challenges/{id}/verify
func (h *ChallengeHandler) Verify(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req VerifyChallengeRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.engine.Verify(r.Context(), middleware.UserIDFromContext(r.Context()),
		id.String(), req.UserAnswer, *req.TimeTaken)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	resp := VerifyResponse{Success: result.Success}
	if result.Success {
		resp.XPAwarded = result.XPAwarded
		resp.Progress = result.Progress
		if u := result.Unlock; u != nil {
			resp.UnlockDuration = u.DurationMinutes
			resp.ExpiresAt = &u.ExpiresAt
			resp.TemporaryUnlockID = u.ID
		}
	}
	httputil.WriteData(w, http.StatusOK, resp)
}
