package domain

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// SessionLogStore is the durable store of session documents. Implementations
// must document which append-consistency guarantee they provide.
type SessionLogStore interface {
	// EnsureUserDir creates the user's storage partition if absent.
	// Idempotent; repeat calls succeed without touching existing documents.
	EnsureUserDir(ctx context.Context, userID string) (string, error)

	// CreateSession writes a new uniquely named session document and returns
	// its locator for subsequent appends.
	CreateSession(ctx context.Context, userID string, user UserSnapshot, client ClientContext) (string, error)

	// AppendEvent appends an event to the document at locator. A locator that
	// does not resolve to an existing document is a logged no-op.
	AppendEvent(ctx context.Context, locator string, event Event) error

	// Finalize sets the session end timestamp and the duration in whole
	// seconds. A missing document is a logged no-op.
	Finalize(ctx context.Context, locator string) error

	// ListRecent returns up to limit of the user's session documents, most
	// recently created first. Unparsable documents are skipped.
	// A limit <= 0 means no cap.
	ListRecent(ctx context.Context, userID string, limit int) ([]*SessionDocument, error)

	// Search scans every partition for events of eventType whose timestamp
	// falls within [start, end] (either bound may be nil). Partitions and
	// documents that fail to read are skipped; the scan degrades, it does
	// not fail.
	Search(ctx context.Context, eventType string, start, end *time.Time) ([]SearchResult, error)

	// RecordFailedLogin writes one standalone attempt record into the
	// reserved failed-login partition.
	RecordFailedLogin(ctx context.Context, attempt FailedLoginAttempt) error
}

// LocatorMap tracks which session document is currently being appended to for
// each live user. It is a cache, not the source of truth; documents on disk
// outlive any entry. Implementations must be safe for concurrent use.
type LocatorMap interface {
	// Put stores the locator for userID, overwriting any prior entry.
	// replaced reports whether an entry already existed.
	Put(ctx context.Context, userID, locator string) (replaced bool, err error)
	Get(ctx context.Context, userID string) (locator string, ok bool, err error)
	Delete(ctx context.Context, userID string) error
}

// UserRepository resolves the user snapshot captured at session start.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*UserSnapshot, error)
}
