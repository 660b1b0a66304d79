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
)

// UnlockHandler handles HTTP requests for temporary unlock endpoints.
type UnlockHandler struct {
	ledger *service.Ledger
	logger *slog.Logger
}

// NewUnlockHandler creates a new unlock HTTP handler.
func NewUnlockHandler(ledger *service.Ledger, logger *slog.Logger) *UnlockHandler {
	return &UnlockHandler{ledger: ledger, logger: logger}
}

// AccessResponse answers an access check.
type AccessResponse struct {
	IsUnlocked bool          `json:"isUnlocked"`
	Unlock     *UnlockStatus `json:"unlock,omitempty"`
}

// UnlockStatus describes the unlock that grants access.
type UnlockStatus struct {
	ID               string    `json:"id"`
	Domain           string    `json:"domain"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RemainingMinutes int       `json:"remainingMinutes"`
	RemainingSeconds int       `json:"remainingSeconds"`
}

// CleanupResponse reports how many unlocks a sweep deactivated.
type CleanupResponse struct {
	ModifiedCount int64 `json:"modifiedCount"`
}

// Check handles GET /api/v1/unlocks/check/{domain}
func (h *UnlockHandler) Check(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "domain")
	if domain.NormalizeDomain(target) == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "domain is required"},
		})
		return
	}

	access, err := h.ledger.CheckAccess(r.Context(), middleware.UserIDFromContext(r.Context()), target)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	resp := AccessResponse{IsUnlocked: access.IsUnlocked}
	if access.IsUnlocked && access.Unlock != nil {
		resp.Unlock = &UnlockStatus{
			ID:               access.Unlock.ID,
			Domain:           access.Unlock.Domain,
			ExpiresAt:        access.Unlock.ExpiresAt,
			RemainingMinutes: access.RemainingMinutes,
			RemainingSeconds: access.RemainingSeconds,
		}
	}
	httputil.WriteData(w, http.StatusOK, resp)
}

// ListActive handles GET /api/v1/unlocks/active
func (h *UnlockHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	unlocks, err := h.ledger.ListActive(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if unlocks == nil {
		unlocks = []domain.TemporaryUnlock{}
	}
	httputil.WriteData(w, http.StatusOK, unlocks)
}

// Revoke handles DELETE /api/v1/unlocks/{id}
func (h *UnlockHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	u, err := h.ledger.Revoke(r.Context(), middleware.UserIDFromContext(r.Context()), id.String(), domain.RevokedByUser)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, u)
}

// Cleanup handles POST /api/v1/unlocks/cleanup
func (h *UnlockHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	n, err := h.ledger.SweepExpired(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, CleanupResponse{ModifiedCount: n})
}
