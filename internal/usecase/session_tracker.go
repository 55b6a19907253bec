package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/user/inventory-audit/internal/adapter/metrics"
	"github.com/user/inventory-audit/internal/domain"
)

const (
	priorityNormal   = "normal"
	priorityCritical = "critical"
)

// SessionAuditor is the contract the request pipeline and the auth flow
// program against. No method propagates an error: audit logging must never
// break the business operation it observes.
type SessionAuditor interface {
	Start(ctx context.Context, userID string, user domain.UserSnapshot, r *http.Request) string
	RecordEvent(ctx context.Context, userID string, payload domain.EventPayload, r *http.Request, routeParams map[string]string)
	RecordCriticalEvent(ctx context.Context, userID string, payload domain.EventPayload, r *http.Request, routeParams map[string]string)
	End(ctx context.Context, userID string, reason domain.EndReason)
	UserLogs(ctx context.Context, userID string, limit int) []*domain.SessionDocument
	SearchEvents(ctx context.Context, eventType string, start, end *time.Time) []domain.SearchResult
	FailedLogin(ctx context.Context, matricula, reason string, r *http.Request)
}

// SessionTracker bridges live session state to the log store. It holds the
// locator map (which session document each live user is appending to) and
// enriches raw events with ambient request metadata before persisting.
//
// It is an explicitly constructed component with process-scoped lifetime;
// build one at startup and inject it into the request pipeline.
type SessionTracker struct {
	store        domain.SessionLogStore
	locators     domain.LocatorMap
	metrics      *metrics.AuditMetrics
	logger       *slog.Logger
	failedLogins *rate.Limiter
}

// NewSessionTracker creates a SessionTracker. failedLoginRate/burst bound how
// many failed-login diagnostic records may be written per second, so a
// credential-stuffing run cannot flood the disk.
func NewSessionTracker(
	store domain.SessionLogStore,
	locators domain.LocatorMap,
	m *metrics.AuditMetrics,
	logger *slog.Logger,
	failedLoginRate float64,
	failedLoginBurst int,
) *SessionTracker {
	return &SessionTracker{
		store:        store,
		locators:     locators,
		metrics:      m,
		logger:       logger.With("component", "session_tracker"),
		failedLogins: rate.NewLimiter(rate.Limit(failedLoginRate), failedLoginBurst),
	}
}

// Start opens a session document for userID and remembers its locator,
// overwriting any live entry for the same user (last login wins; the prior
// document stays on disk, readable but never finalized). A synthetic LOGIN
// event is appended immediately. Returns "" on any internal failure.
func (t *SessionTracker) Start(ctx context.Context, userID string, user domain.UserSnapshot, r *http.Request) string {
	client := deriveClientContext(r)

	locator, err := t.store.CreateSession(ctx, userID, user, client)
	if err != nil {
		t.logger.Error("failed to create session document", "user_id", userID, "error", err)
		t.metrics.StoreFailures.WithLabelValues("create").Inc()
		return ""
	}

	replaced, err := t.locators.Put(ctx, userID, locator)
	if err != nil {
		t.logger.Error("failed to track session locator", "user_id", userID, "error", err)
		t.metrics.StoreFailures.WithLabelValues("locator_map").Inc()
		return ""
	}
	if replaced {
		t.logger.Warn("replaced live session entry, previous document left open", "user_id", userID)
	} else {
		t.metrics.OpenSessions.Inc()
	}

	t.append(ctx, locator, t.newEvent(domain.EventLogin, nil, r, nil), priorityNormal)
	return locator
}

// RecordEvent appends an enriched event to the user's live session. No live
// session is a deliberate no-op.
func (t *SessionTracker) RecordEvent(ctx context.Context, userID string, payload domain.EventPayload, r *http.Request, routeParams map[string]string) {
	t.record(ctx, userID, payload, r, routeParams, priorityNormal)
}

// RecordCriticalEvent is RecordEvent with the payload stamped
// priority=CRITICAL; used for operations with compliance significance.
func (t *SessionTracker) RecordCriticalEvent(ctx context.Context, userID string, payload domain.EventPayload, r *http.Request, routeParams map[string]string) {
	t.record(ctx, userID, domain.Critical(payload), r, routeParams, priorityCritical)
}

func (t *SessionTracker) record(ctx context.Context, userID string, payload domain.EventPayload, r *http.Request, routeParams map[string]string, priority string) {
	locator, ok := t.lookup(ctx, userID)
	if !ok {
		return
	}
	t.append(ctx, locator, t.newEvent(payload.Tag(), payload.Fields(), r, routeParams), priority)
}

// End appends a synthetic LOGOUT event carrying the reason, finalizes the
// document, and removes the locator entry regardless of whether the
// finalize succeeded.
func (t *SessionTracker) End(ctx context.Context, userID string, reason domain.EndReason) {
	locator, ok := t.lookup(ctx, userID)
	if !ok {
		return
	}
	defer func() {
		if err := t.locators.Delete(ctx, userID); err != nil {
			t.logger.Error("failed to remove session locator", "user_id", userID, "error", err)
			t.metrics.StoreFailures.WithLabelValues("locator_map").Inc()
			return
		}
		t.metrics.OpenSessions.Dec()
	}()

	t.append(ctx, locator, t.newEvent(domain.EventLogout, map[string]any{"reason": string(reason)}, nil, nil), priorityNormal)

	if err := t.store.Finalize(ctx, locator); err != nil {
		t.logger.Error("failed to finalize session document", "locator", locator, "error", err)
		t.metrics.StoreFailures.WithLabelValues("finalize").Inc()
	}
}

// UserLogs returns the user's most recent session documents. Read access is
// independent of whether the user's session is currently live.
func (t *SessionTracker) UserLogs(ctx context.Context, userID string, limit int) []*domain.SessionDocument {
	docs, err := t.store.ListRecent(ctx, userID, limit)
	if err != nil {
		t.logger.Error("failed to list session documents", "user_id", userID, "error", err)
		t.metrics.StoreFailures.WithLabelValues("list").Inc()
		return nil
	}
	return docs
}

// SearchEvents scans all historical sessions for matching events.
func (t *SessionTracker) SearchEvents(ctx context.Context, eventType string, start, end *time.Time) []domain.SearchResult {
	results, err := t.store.Search(ctx, eventType, start, end)
	if err != nil {
		t.logger.Error("event search failed", "type", eventType, "error", err)
		t.metrics.StoreFailures.WithLabelValues("search").Inc()
		return nil
	}
	return results
}

// FailedLogin writes a standalone diagnostic record for a rejected login
// attempt. There is no session yet, so the locator map is not involved.
func (t *SessionTracker) FailedLogin(ctx context.Context, matricula, reason string, r *http.Request) {
	if !t.failedLogins.Allow() {
		t.metrics.FailedLoginsThrottled.Inc()
		t.logger.Warn("failed-login record throttled", "matricula", matricula)
		return
	}

	attempt := domain.FailedLoginAttempt{
		Timestamp: time.Now().UTC(),
		Matricula: matricula,
		Reason:    reason,
	}
	if r != nil {
		attempt.IPAddress = clientIP(r)
		attempt.UserAgent = r.UserAgent()
	}

	if err := t.store.RecordFailedLogin(ctx, attempt); err != nil {
		t.logger.Error("failed to record failed login", "matricula", matricula, "error", err)
		t.metrics.StoreFailures.WithLabelValues("failed_login").Inc()
		return
	}
	t.metrics.FailedLogins.Inc()
}

func (t *SessionTracker) lookup(ctx context.Context, userID string) (string, bool) {
	locator, ok, err := t.locators.Get(ctx, userID)
	if err != nil {
		t.logger.Error("locator lookup failed", "user_id", userID, "error", err)
		t.metrics.StoreFailures.WithLabelValues("locator_map").Inc()
		return "", false
	}
	return locator, ok
}

func (t *SessionTracker) append(ctx context.Context, locator string, ev domain.Event, priority string) {
	if err := t.store.AppendEvent(ctx, locator, ev); err != nil {
		t.logger.Error("failed to append event", "locator", locator, "type", ev.Type, "error", err)
		t.metrics.StoreFailures.WithLabelValues("append").Inc()
		return
	}
	t.metrics.EventsRecorded.WithLabelValues(ev.Type, priority).Inc()
}

// newEvent builds an event enriched from the request; the request-derived
// fields stay empty when no request was supplied.
func (t *SessionTracker) newEvent(eventType string, payload map[string]any, r *http.Request, routeParams map[string]string) domain.Event {
	ev := domain.Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Payload:   payload,
	}
	if r != nil {
		osName, browser := parseUserAgent(r.UserAgent())
		ev.IPAddress = clientIP(r)
		ev.UserAgent = r.UserAgent()
		ev.OS = osName
		ev.Browser = browser
		ev.Method = r.Method
		ev.Path = r.URL.Path
		ev.RouteParams = routeParams
		ev.QueryParams = flattenQuery(r)
	}
	return ev
}
