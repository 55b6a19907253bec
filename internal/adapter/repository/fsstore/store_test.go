package fsstore

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/user/inventory-audit/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := NewStore(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func testUser(id string) domain.UserSnapshot {
	return domain.UserSnapshot{ID: id, DisplayName: "User " + id, Role: "estoquista", ExternalKey: uuid.NewString()}
}

func testEvent(eventType string, ts time.Time) domain.Event {
	return domain.Event{ID: uuid.NewString(), Timestamp: ts, Type: eventType}
}

func TestStore_SessionLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	locator, err := store.CreateSession(ctx, "u1", testUser("u1"), domain.ClientContext{IPAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	now := time.Now().UTC()
	if err := store.AppendEvent(ctx, locator, testEvent(domain.EventLogin, now)); err != nil {
		t.Fatalf("failed to append LOGIN: %v", err)
	}
	if err := store.AppendEvent(ctx, locator, testEvent("ESTOQUE_MOVIMENTO", now.Add(time.Second))); err != nil {
		t.Fatalf("failed to append event: %v", err)
	}
	if err := store.Finalize(ctx, locator); err != nil {
		t.Fatalf("failed to finalize: %v", err)
	}

	docs, err := store.ListRecent(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}

	doc := docs[0]
	if len(doc.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(doc.Events))
	}
	if doc.Events[0].Type != domain.EventLogin {
		t.Errorf("expected first event LOGIN, got %s", doc.Events[0].Type)
	}
	if doc.SessionEnd == nil {
		t.Fatal("expected session_end to be set")
	}
	if doc.DurationSeconds == nil {
		t.Fatal("expected duration_seconds to be set")
	}
	want := int64(doc.SessionEnd.Sub(doc.SessionStart) / time.Second)
	if *doc.DurationSeconds != want || *doc.DurationSeconds < 0 {
		t.Errorf("duration mismatch: got %d, want %d", *doc.DurationSeconds, want)
	}
	if doc.User.ID != "u1" || doc.Context.IPAddress != "10.0.0.1" {
		t.Error("header snapshot not persisted")
	}
}

func TestStore_AppendOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	locator, err := store.CreateSession(ctx, "u1", testUser("u1"), domain.ClientContext{})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	const n = 10
	base := time.Now().UTC()
	for i := 0; i < n; i++ {
		ev := testEvent("ACTION", base.Add(time.Duration(i)*time.Millisecond))
		ev.Payload = map[string]any{"seq": i}
		if err := store.AppendEvent(ctx, locator, ev); err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}

	docs, err := store.ListRecent(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(docs) != 1 || len(docs[0].Events) != n {
		t.Fatalf("expected 1 document with %d events, got %d documents", n, len(docs))
	}
	for i, ev := range docs[0].Events {
		// JSON numbers decode as float64.
		if seq, _ := ev.Payload["seq"].(float64); int(seq) != i {
			t.Errorf("event %d out of order: seq %v", i, ev.Payload["seq"])
		}
	}
}

func TestStore_ConcurrentAppends(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	locator, err := store.CreateSession(ctx, "u1", testUser("u1"), domain.ClientContext{})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.AppendEvent(ctx, locator, testEvent("ACTION", time.Now().UTC())); err != nil {
				t.Errorf("concurrent append failed: %v", err)
			}
		}()
	}
	wg.Wait()

	docs, err := store.ListRecent(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(docs[0].Events) != n {
		t.Errorf("lost events under concurrency: got %d, want %d", len(docs[0].Events), n)
	}
}

func TestStore_AppendMissingDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	missing := filepath.Join(store.root, "u1", "session-19700101T000000.000000000.json")
	if err := store.AppendEvent(ctx, missing, testEvent("ACTION", time.Now())); err != nil {
		t.Fatalf("expected no-op for missing document, got %v", err)
	}
	if err := store.Finalize(ctx, missing); err != nil {
		t.Fatalf("expected no-op finalize for missing document, got %v", err)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Error("no-op append must not create a document")
	}
}

func TestStore_ListRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var locators []string
	for i := 0; i < 3; i++ {
		locator, err := store.CreateSession(ctx, "u1", testUser("u1"), domain.ClientContext{})
		if err != nil {
			t.Fatalf("failed to create session %d: %v", i, err)
		}
		locators = append(locators, locator)
		time.Sleep(2 * time.Millisecond) // distinct creation timestamps
	}

	docs, err := store.ListRecent(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if !docs[0].SessionStart.After(docs[1].SessionStart) {
		t.Error("expected most recent session first")
	}

	t.Run("skips corrupt documents", func(t *testing.T) {
		corrupt := filepath.Join(filepath.Dir(locators[0]), "session-99990101T000000.000000000.json")
		if err := os.WriteFile(corrupt, []byte("{not json"), 0644); err != nil {
			t.Fatalf("failed to plant corrupt document: %v", err)
		}

		docs, err := store.ListRecent(ctx, "u1", 10)
		if err != nil {
			t.Fatalf("list failed on corrupt document: %v", err)
		}
		if len(docs) != 3 {
			t.Errorf("expected 3 well-formed documents, got %d", len(docs))
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		docs, err := store.ListRecent(ctx, "nobody", 10)
		if err != nil {
			t.Fatalf("expected no error for unknown user, got %v", err)
		}
		if len(docs) != 0 {
			t.Errorf("expected no documents, got %d", len(docs))
		}
	})
}

func TestStore_Search(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	locA, err := store.CreateSession(ctx, "alice", testUser("alice"), domain.ClientContext{})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	locB, err := store.CreateSession(ctx, "bob", testUser("bob"), domain.ClientContext{})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	// alice: two X events (one outside the window) and one Y.
	mustAppend(t, store, locA, testEvent("X", base))
	mustAppend(t, store, locA, testEvent("X", base.Add(2*time.Hour)))
	mustAppend(t, store, locA, testEvent("Y", base.Add(time.Minute)))
	// bob: one X inside the window.
	mustAppend(t, store, locB, testEvent("X", base.Add(10*time.Minute)))

	// carol has only Y events and must be omitted.
	locC, err := store.CreateSession(ctx, "carol", testUser("carol"), domain.ClientContext{})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	mustAppend(t, store, locC, testEvent("Y", base))

	start := base.Add(-time.Minute)
	end := base.Add(time.Hour)
	results, err := store.Search(ctx, "X", &start, &end)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 result groups, got %d", len(results))
	}
	for _, res := range results {
		switch res.User.ID {
		case "alice":
			if len(res.Events) != 1 || !res.Events[0].Timestamp.Equal(base) {
				t.Errorf("alice: expected the single in-window X event, got %+v", res.Events)
			}
			if res.Locator != locA {
				t.Errorf("alice: locator mismatch")
			}
		case "bob":
			if len(res.Events) != 1 {
				t.Errorf("bob: expected 1 event, got %d", len(res.Events))
			}
		default:
			t.Errorf("unexpected user %q in results", res.User.ID)
		}
	}

	t.Run("open-ended range", func(t *testing.T) {
		results, err := store.Search(ctx, "X", nil, nil)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}
		total := 0
		for _, res := range results {
			total += len(res.Events)
		}
		if total != 3 {
			t.Errorf("expected all 3 X events, got %d", total)
		}
	})

	t.Run("tolerates corruption and ignores reserved partition", func(t *testing.T) {
		corrupt := filepath.Join(filepath.Dir(locA), "session-99990101T000000.000000000.json")
		if err := os.WriteFile(corrupt, []byte("garbage"), 0644); err != nil {
			t.Fatalf("failed to plant corrupt document: %v", err)
		}
		if err := store.RecordFailedLogin(ctx, domain.FailedLoginAttempt{Timestamp: base, Matricula: "x"}); err != nil {
			t.Fatalf("failed to record failed login: %v", err)
		}

		results, err := store.Search(ctx, "X", nil, nil)
		if err != nil {
			t.Fatalf("search failed after corruption: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("expected 2 result groups, got %d", len(results))
		}
	})
}

func mustAppend(t *testing.T, store *Store, locator string, ev domain.Event) {
	t.Helper()
	if err := store.AppendEvent(context.Background(), locator, ev); err != nil {
		t.Fatalf("append failed: %v", err)
	}
}

func TestStore_EnsureUserDirIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	locator, err := store.CreateSession(ctx, "u1", testUser("u1"), domain.ClientContext{})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	dir1, err := store.EnsureUserDir(ctx, "u1")
	if err != nil {
		t.Fatalf("first ensure failed: %v", err)
	}
	dir2, err := store.EnsureUserDir(ctx, "u1")
	if err != nil {
		t.Fatalf("second ensure failed: %v", err)
	}
	if dir1 != dir2 {
		t.Errorf("ensure not stable: %s != %s", dir1, dir2)
	}

	if _, err := os.Stat(locator); err != nil {
		t.Errorf("existing document altered by ensure: %v", err)
	}
}

func TestStore_RejectsUnsafeUserIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"", ".", "..", "a/b", `a\b`, "_failed_logins"} {
		if _, err := store.EnsureUserDir(ctx, id); err == nil {
			t.Errorf("expected error for user id %q", id)
		}
	}
}

func TestStore_RecordFailedLogin(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	attempt := domain.FailedLoginAttempt{
		Timestamp: time.Now().UTC(),
		Matricula: "12345",
		Reason:    "bad_password",
		IPAddress: "10.0.0.9",
	}
	if err := store.RecordFailedLogin(ctx, attempt); err != nil {
		t.Fatalf("failed to record: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(store.root, failedLoginDir))
	if err != nil {
		t.Fatalf("failed to read partition: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 record, got %d", len(entries))
	}

	data, err := os.ReadFile(filepath.Join(store.root, failedLoginDir, entries[0].Name()))
	if err != nil {
		t.Fatalf("failed to read record: %v", err)
	}
	var got domain.FailedLoginAttempt
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("record not valid JSON: %v", err)
	}
	if got.Matricula != "12345" || got.Reason != "bad_password" {
		t.Errorf("record mismatch: %+v", got)
	}
}
