package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/user/inventory-audit/internal/domain"
)

// MockSessionLogStore is a mock implementation of domain.SessionLogStore for testing.
type MockSessionLogStore struct {
	mu                sync.Mutex
	CreatedSessions   []string // userIDs in creation order
	AppendedEvents    map[string][]domain.Event
	FinalizedLocators []string
	FailedLogins      []domain.FailedLoginAttempt
	ListRecentResult  []*domain.SessionDocument
	SearchResult      []domain.SearchResult

	NextLocator string
	EnsureErr   error
	CreateErr   error
	AppendErr   error
	FinalizeErr error
	ListErr     error
	SearchErr   error
	FailedErr   error
}

func (m *MockSessionLogStore) EnsureUserDir(ctx context.Context, userID string) (string, error) {
	if m.EnsureErr != nil {
		return "", m.EnsureErr
	}
	return "/mock/" + userID, nil
}

func (m *MockSessionLogStore) CreateSession(ctx context.Context, userID string, user domain.UserSnapshot, client domain.ClientContext) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.CreatedSessions = append(m.CreatedSessions, userID)
	locator := m.NextLocator
	if locator == "" {
		locator = "/mock/" + userID + "/session.json"
	}
	return locator, nil
}

func (m *MockSessionLogStore) AppendEvent(ctx context.Context, locator string, event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return m.AppendErr
	}
	if m.AppendedEvents == nil {
		m.AppendedEvents = make(map[string][]domain.Event)
	}
	m.AppendedEvents[locator] = append(m.AppendedEvents[locator], event)
	return nil
}

func (m *MockSessionLogStore) Finalize(ctx context.Context, locator string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FinalizeErr != nil {
		return m.FinalizeErr
	}
	m.FinalizedLocators = append(m.FinalizedLocators, locator)
	return nil
}

func (m *MockSessionLogStore) ListRecent(ctx context.Context, userID string, limit int) ([]*domain.SessionDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.ListRecentResult, nil
}

func (m *MockSessionLogStore) Search(ctx context.Context, eventType string, start, end *time.Time) ([]domain.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.SearchResult, nil
}

func (m *MockSessionLogStore) RecordFailedLogin(ctx context.Context, attempt domain.FailedLoginAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailedErr != nil {
		return m.FailedErr
	}
	m.FailedLogins = append(m.FailedLogins, attempt)
	return nil
}

// Events returns a copy of the events appended to locator.
func (m *MockSessionLogStore) Events(locator string) []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]domain.Event, len(m.AppendedEvents[locator]))
	copy(events, m.AppendedEvents[locator])
	return events
}

// MockUserRepository is a mock implementation of domain.UserRepository.
type MockUserRepository struct {
	Users   map[string]*domain.UserSnapshot
	FindErr error
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.UserSnapshot, error) {
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	if u, ok := m.Users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}
