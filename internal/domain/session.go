package domain

import (
	"time"
)

// Well-known event types. The vocabulary is open; these are the tags the
// subsystem itself emits.
const (
	EventLogin  = "LOGIN"
	EventLogout = "LOGOUT"
)

// PriorityCritical is the payload marker stamped on critical events.
const PriorityCritical = "CRITICAL"

// EndReason describes why a session was terminated.
type EndReason string

const (
	EndReasonManual       EndReason = "manual"
	EndReasonTokenExpired EndReason = "token_expired"
	EndReasonRevoked      EndReason = "revoked"
)

// Valid reports whether the reason belongs to the closed set.
func (r EndReason) Valid() bool {
	switch r {
	case EndReasonManual, EndReasonTokenExpired, EndReasonRevoked:
		return true
	}
	return false
}

// UserSnapshot is the denormalized user header captured at login time, so a
// session document stays self-describing even if the user record changes later.
type UserSnapshot struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	ExternalKey string `json:"external_key,omitempty"`
}

// ClientContext is the client metadata snapshot captured at login time.
type ClientContext struct {
	IPAddress string `json:"ip_address"`
	OS        string `json:"os"`
	Browser   string `json:"browser"`
	UserAgent string `json:"user_agent"`
}

// Event is one recorded occurrence within a session. The request-derived
// fields are present only when a request was supplied at record time.
type Event struct {
	ID          string            `json:"event_id"`
	Timestamp   time.Time         `json:"timestamp"`
	Type        string            `json:"type"`
	IPAddress   string            `json:"ip_address,omitempty"`
	UserAgent   string            `json:"user_agent,omitempty"`
	OS          string            `json:"os,omitempty"`
	Browser     string            `json:"browser,omitempty"`
	Method      string            `json:"method,omitempty"`
	Path        string            `json:"path,omitempty"`
	RouteParams map[string]string `json:"route_params,omitempty"`
	QueryParams map[string]string `json:"query_params,omitempty"`
	Payload     map[string]any    `json:"payload,omitempty"`
}

// SessionDocument is the durable record of one login session. Once created it
// is mutated only by appending to Events and by the single finalize transition
// that sets SessionEnd and DurationSeconds.
type SessionDocument struct {
	SessionStart    time.Time     `json:"session_start"`
	User            UserSnapshot  `json:"user"`
	Context         ClientContext `json:"context"`
	Events          []Event       `json:"events"`
	SessionEnd      *time.Time    `json:"session_end,omitempty"`
	DurationSeconds *int64        `json:"duration_seconds,omitempty"`
}

// SearchResult groups the matching events of one session document with its
// user header. Only documents with at least one match produce a result.
type SearchResult struct {
	User    UserSnapshot `json:"user"`
	Locator string       `json:"locator"`
	Events  []Event      `json:"events"`
}

// FailedLoginAttempt is a standalone diagnostic record for a rejected login.
// It never belongs to a session.
type FailedLoginAttempt struct {
	Timestamp time.Time `json:"timestamp"`
	Matricula string    `json:"matricula"`
	Reason    string    `json:"reason"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}
