package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/user/inventory-audit/internal/adapter/api/middleware"
	"github.com/user/inventory-audit/internal/domain"
	"github.com/user/inventory-audit/internal/usecase"
)

// AuditHandler exposes the administrative read API over the log store.
// Access decisions (self vs. admin) are made here, at the caller side of the
// store contract.
type AuditHandler struct {
	auditor      usecase.SessionAuditor
	logger       *slog.Logger
	defaultLimit int
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditor usecase.SessionAuditor, logger *slog.Logger, defaultLimit int) *AuditHandler {
	return &AuditHandler{auditor: auditor, logger: logger, defaultLimit: defaultLimit}
}

// MyLogs handles GET /logs/me.
func (h *AuditHandler) MyLogs(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	docs := h.auditor.UserLogs(r.Context(), claims.UserID, h.limit(r))
	if docs == nil {
		docs = []*domain.SessionDocument{}
	}
	writeJSON(w, docs)
}

// UserLogs handles GET /logs/{userID}. Admin only.
func (h *AuditHandler) UserLogs(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if claims.Role != middleware.RoleAdmin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	userID := r.PathValue("userID")
	docs := h.auditor.UserLogs(r.Context(), userID, h.limit(r))
	if docs == nil {
		docs = []*domain.SessionDocument{}
	}
	writeJSON(w, docs)
}

// SearchEvents handles GET /logs/search?type=&start=&end=. Admin only.
// start and end are optional RFC 3339 timestamps.
func (h *AuditHandler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if claims.Role != middleware.RoleAdmin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	eventType := r.URL.Query().Get("type")
	if eventType == "" {
		http.Error(w, "Bad Request: type is required", http.StatusBadRequest)
		return
	}

	start, err := parseTimeParam(r, "start")
	if err != nil {
		http.Error(w, "Bad Request: invalid start timestamp", http.StatusBadRequest)
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		http.Error(w, "Bad Request: invalid end timestamp", http.StatusBadRequest)
		return
	}

	results := h.auditor.SearchEvents(r.Context(), eventType, start, end)
	if results == nil {
		results = []domain.SearchResult{}
	}
	writeJSON(w, results)
}

func (h *AuditHandler) limit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return h.defaultLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return h.defaultLimit
	}
	return limit
}

func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
