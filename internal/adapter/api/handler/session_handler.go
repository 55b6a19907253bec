package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/inventory-audit/internal/adapter/api/middleware"
	"github.com/user/inventory-audit/internal/domain"
	"github.com/user/inventory-audit/internal/usecase"
)

// SessionHandler exposes the lifecycle signal endpoints the external
// authentication flow calls after issuing or invalidating a token.
type SessionHandler struct {
	auditor usecase.SessionAuditor
	users   domain.UserRepository
	logger  *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(auditor usecase.SessionAuditor, users domain.UserRepository, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{auditor: auditor, users: users, logger: logger}
}

// Start handles POST /sessions/start. The user snapshot is resolved from the
// user store; a lookup failure degrades to the claims' own fields so the
// login is never blocked by audit bookkeeping.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	snapshot := domain.UserSnapshot{ID: claims.UserID, Role: claims.Role}
	user, err := h.users.FindByID(r.Context(), claims.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logger.Error("user snapshot lookup failed", "user_id", claims.UserID, "error", err)
		}
	} else {
		snapshot = *user
	}

	locator := h.auditor.Start(r.Context(), claims.UserID, snapshot, r)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"locator": locator})
}

type endRequest struct {
	Reason string `json:"reason"`
}

// End handles POST /sessions/end.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req endRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: invalid JSON body", http.StatusBadRequest)
		return
	}

	reason := domain.EndReason(req.Reason)
	if !reason.Valid() {
		http.Error(w, "Bad Request: unknown end reason", http.StatusBadRequest)
		return
	}

	h.auditor.End(r.Context(), claims.UserID, reason)
	w.WriteHeader(http.StatusNoContent)
}

type failedLoginRequest struct {
	Matricula string `json:"matricula"`
	Reason    string `json:"reason"`
}

// FailedLogin handles POST /failed-logins. The endpoint is unauthenticated:
// the attempt being recorded is, by definition, one that produced no token.
func (h *SessionHandler) FailedLogin(w http.ResponseWriter, r *http.Request) {
	var req failedLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request: invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Matricula == "" {
		http.Error(w, "Bad Request: matricula is required", http.StatusBadRequest)
		return
	}

	h.auditor.FailedLogin(r.Context(), req.Matricula, req.Reason, r)
	w.WriteHeader(http.StatusAccepted)
}
