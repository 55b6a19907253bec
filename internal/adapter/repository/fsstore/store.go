package fsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/user/inventory-audit/internal/domain"
)

const (
	sessionPrefix  = "session-"
	attemptPrefix  = "attempt-"
	failedLoginDir = "_failed_logins"
	docExt         = ".json"
	dirPerm        = 0755

	// timestampLayout is embedded in document names; lexicographic order of
	// names equals chronological order of creation.
	timestampLayout = "20060102T150405.000000000"
)

// Store implements domain.SessionLogStore on a directory tree: one partition
// per user under the root, one JSON document per session.
//
// Consistency contract: appends and finalizes on the same locator are
// serialized through a per-locator mutex, so sequential and concurrent
// in-process writers never lose events. The store assumes exclusive ownership
// of its data directory; a second process writing the same tree is out of
// contract. Two CreateSession calls for the same user in the same nanosecond
// collide on the document name; accepted risk.
type Store struct {
	root   string
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates the root directory if needed and returns a Store.
func NewStore(root string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create audit root directory %s: %w", root, err)
	}
	return &Store{
		root:   root,
		logger: logger.With("component", "fsstore"),
		locks:  make(map[string]*sync.Mutex),
	}, nil
}

func (s *Store) lockFor(locator string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[locator]
	if !ok {
		l = &sync.Mutex{}
		s.locks[locator] = l
	}
	return l
}

// validUserID rejects identifiers that would escape the user's partition.
func validUserID(userID string) bool {
	if userID == "" || userID == "." || userID == ".." {
		return false
	}
	if strings.HasPrefix(userID, "_") {
		return false // reserved partition namespace
	}
	return !strings.ContainsAny(userID, `/\`)
}

// EnsureUserDir creates the user's partition if absent. Idempotent.
func (s *Store) EnsureUserDir(ctx context.Context, userID string) (string, error) {
	if !validUserID(userID) {
		return "", fmt.Errorf("invalid user id %q", userID)
	}
	dir := filepath.Join(s.root, userID)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("failed to create user partition %s: %w", dir, err)
	}
	return dir, nil
}

// CreateSession writes the initial document and returns its path as locator.
func (s *Store) CreateSession(ctx context.Context, userID string, user domain.UserSnapshot, client domain.ClientContext) (string, error) {
	dir, err := s.EnsureUserDir(ctx, userID)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	doc := &domain.SessionDocument{
		SessionStart: now,
		User:         user,
		Context:      client,
		Events:       []domain.Event{},
	}

	name := sessionPrefix + now.Format(timestampLayout) + docExt
	path := filepath.Join(dir, name)
	if err := writeDocument(path, doc); err != nil {
		return "", fmt.Errorf("failed to create session document %s: %w", path, err)
	}

	s.logger.Info("created session document", "user_id", userID, "locator", path)
	return path, nil
}

// AppendEvent loads the document, appends the event and writes it back.
// A missing document is a logged no-op: audit writes must not surface
// lifecycle races to the request that triggered them.
func (s *Store) AppendEvent(ctx context.Context, locator string, event domain.Event) error {
	l := s.lockFor(locator)
	l.Lock()
	defer l.Unlock()

	doc, err := readDocument(locator)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("session document missing, dropping event", "locator", locator, "type", event.Type)
			return nil
		}
		return fmt.Errorf("failed to load session document %s: %w", locator, err)
	}

	doc.Events = append(doc.Events, event)
	if err := writeDocument(locator, doc); err != nil {
		return fmt.Errorf("failed to write session document %s: %w", locator, err)
	}
	return nil
}

// Finalize stamps the end timestamp and the duration in whole seconds.
func (s *Store) Finalize(ctx context.Context, locator string) error {
	l := s.lockFor(locator)
	l.Lock()
	defer l.Unlock()

	doc, err := readDocument(locator)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("session document missing, skipping finalize", "locator", locator)
			return nil
		}
		return fmt.Errorf("failed to load session document %s: %w", locator, err)
	}

	end := time.Now().UTC()
	duration := int64(end.Sub(doc.SessionStart) / time.Second)
	doc.SessionEnd = &end
	doc.DurationSeconds = &duration

	if err := writeDocument(locator, doc); err != nil {
		return fmt.Errorf("failed to write session document %s: %w", locator, err)
	}
	return nil
}

// ListRecent returns the user's session documents, most recent first.
func (s *Store) ListRecent(ctx context.Context, userID string, limit int) ([]*domain.SessionDocument, error) {
	if !validUserID(userID) {
		return nil, fmt.Errorf("invalid user id %q", userID)
	}
	dir := filepath.Join(s.root, userID)

	names, err := sessionDocumentNames(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to enumerate partition %s: %w", dir, err)
	}

	// Names embed the creation timestamp, so descending name order is
	// descending creation order.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	var docs []*domain.SessionDocument
	for _, name := range names {
		if limit > 0 && len(docs) >= limit {
			break
		}
		path := filepath.Join(dir, name)
		doc, err := readDocument(path)
		if err != nil {
			s.logger.Warn("skipping unreadable session document", "path", path, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Search scans every user partition for events of eventType within
// [start, end]. Unreadable partitions and documents are skipped; the scan
// degrades instead of failing.
func (s *Store) Search(ctx context.Context, eventType string, start, end *time.Time) ([]domain.SearchResult, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit root %s: %w", s.root, err)
	}

	var results []domain.SearchResult
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == failedLoginDir {
			continue
		}
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		dir := filepath.Join(s.root, entry.Name())
		names, err := sessionDocumentNames(dir)
		if err != nil {
			s.logger.Warn("skipping unreadable partition", "path", dir, "error", err)
			continue
		}

		for _, name := range names {
			path := filepath.Join(dir, name)
			doc, err := readDocument(path)
			if err != nil {
				s.logger.Warn("skipping unreadable session document", "path", path, "error", err)
				continue
			}

			var matched []domain.Event
			for _, ev := range doc.Events {
				if ev.Type != eventType {
					continue
				}
				if start != nil && ev.Timestamp.Before(*start) {
					continue
				}
				if end != nil && ev.Timestamp.After(*end) {
					continue
				}
				matched = append(matched, ev)
			}
			if len(matched) > 0 {
				results = append(results, domain.SearchResult{
					User:    doc.User,
					Locator: path,
					Events:  matched,
				})
			}
		}
	}
	return results, nil
}

// RecordFailedLogin writes one attempt record into the reserved partition.
func (s *Store) RecordFailedLogin(ctx context.Context, attempt domain.FailedLoginAttempt) error {
	dir := filepath.Join(s.root, failedLoginDir)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("failed to create failed-login partition: %w", err)
	}

	name := attemptPrefix + attempt.Timestamp.UTC().Format(timestampLayout) + docExt
	path := filepath.Join(dir, name)
	if err := writeJSON(path, attempt); err != nil {
		return fmt.Errorf("failed to write failed-login record %s: %w", path, err)
	}
	return nil
}

func sessionDocumentNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, sessionPrefix) && strings.HasSuffix(name, docExt) {
			names = append(names, name)
		}
	}
	return names, nil
}

func readDocument(path string) (*domain.SessionDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc domain.SessionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed session document: %w", err)
	}
	return &doc, nil
}

func writeDocument(path string, doc *domain.SessionDocument) error {
	return writeJSON(path, doc)
}

// writeJSON writes atomically via a temp file and os.Rename, so enumeration
// never observes a partially written document.
func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".audit-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
