package middleware

import (
	"net/http"

	"github.com/user/inventory-audit/internal/domain"
	"github.com/user/inventory-audit/internal/usecase"
)

// PayloadFunc chooses the event payload for a request; the route decides the
// tag and which request details (route params, body fields for known tags)
// end up in the payload.
type PayloadFunc func(r *http.Request) (domain.EventPayload, map[string]string)

// TagPayload is a PayloadFunc for routes that only need a bare tag.
func TagPayload(tag string) PayloadFunc {
	return func(r *http.Request) (domain.EventPayload, map[string]string) {
		return domain.GenericPayload{EventTag: tag}, nil
	}
}

// Audit is a middleware factory that records one event on the caller's live
// session per request. Requests without claims, or for users with no live
// session, pass through unrecorded; auditing never blocks the request.
func Audit(auditor usecase.SessionAuditor, payloadFn PayloadFunc, critical bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				return
			}
			payload, routeParams := payloadFn(r)
			if critical {
				auditor.RecordCriticalEvent(r.Context(), claims.UserID, payload, r, routeParams)
			} else {
				auditor.RecordEvent(r.Context(), claims.UserID, payload, r, routeParams)
			}
		})
	}
}
