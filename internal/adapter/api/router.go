package api

import (
	"log/slog"
	"net/http"

	"github.com/user/inventory-audit/internal/adapter/api/handler"
	"github.com/user/inventory-audit/internal/adapter/api/middleware"
	"github.com/user/inventory-audit/internal/domain"
	"github.com/user/inventory-audit/internal/pkg/config"
	"github.com/user/inventory-audit/internal/usecase"
)

// NewRouter creates and configures the HTTP router for the audit service.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	auditor usecase.SessionAuditor,
	users domain.UserRepository,
) http.Handler {
	mux := http.NewServeMux()

	sessionHandler := handler.NewSessionHandler(auditor, users, logger)
	auditHandler := handler.NewAuditHandler(auditor, logger, cfg.ListDefaultLimit)

	auth := middleware.Auth(cfg.JWTSecret, logger)

	// Session lifecycle signals from the authentication flow.
	mux.Handle("POST /sessions/start", auth(http.HandlerFunc(sessionHandler.Start)))
	mux.Handle("POST /sessions/end", auth(http.HandlerFunc(sessionHandler.End)))
	mux.Handle("POST /failed-logins", http.HandlerFunc(sessionHandler.FailedLogin))

	// Administrative read API. Viewing another user's trail and cross-session
	// search are themselves audited.
	viewAudit := middleware.Audit(auditor, func(r *http.Request) (domain.EventPayload, map[string]string) {
		return domain.GenericPayload{EventTag: "AUDIT_LOG_VIEW"}, map[string]string{"userID": r.PathValue("userID")}
	}, false)
	searchAudit := middleware.Audit(auditor, middleware.TagPayload("AUDIT_LOG_SEARCH"), false)

	mux.Handle("GET /logs/me", auth(http.HandlerFunc(auditHandler.MyLogs)))
	mux.Handle("GET /logs/search", auth(searchAudit(http.HandlerFunc(auditHandler.SearchEvents))))
	mux.Handle("GET /logs/{userID}", auth(viewAudit(http.HandlerFunc(auditHandler.UserLogs))))

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}
