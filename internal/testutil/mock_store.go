package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/interviews/internal/store"
	"github.com/MikeSquared-Agency/interviews/internal/transcript"
)

// MockStore is a thread-safe in-memory implementation of store.DataStore for testing.
// It enforces call_id uniqueness like the real backends.
type MockStore struct {
	mu sync.Mutex

	Interviews map[string]*store.Interview

	FindErr   error
	InsertErr error
	UpdateErr error
	ListErr   error

	// BeforeInsert runs ahead of the uniqueness check; tests use it to
	// simulate a concurrent writer winning the race.
	BeforeInsert func(m *MockStore)

	FindCalls   int
	InsertCalls int
	UpdateCalls int

	clock time.Time
}

func NewMockStore() *MockStore {
	return &MockStore{
		Interviews: make(map[string]*store.Interview),
		clock:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *MockStore) FindByCallID(_ context.Context, callID string) (*store.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCalls++
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	iv, ok := m.Interviews[callID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := copyInterview(iv)
	return &cp, nil
}

func (m *MockStore) InsertInterview(_ context.Context, iv *store.Interview) error {
	if m.BeforeInsert != nil {
		m.BeforeInsert(m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalls++
	if m.InsertErr != nil {
		return m.InsertErr
	}
	if _, exists := m.Interviews[iv.CallID]; exists {
		return store.ErrDuplicateCallID
	}
	if iv.ID == "" {
		iv.ID = "iv-" + iv.CallID
	}
	now := m.tick()
	iv.CreatedAt = now
	iv.UpdatedAt = now
	cp := copyInterview(iv)
	if cp.Transcript == nil {
		cp.Transcript = []transcript.Utterance{}
	}
	m.Interviews[iv.CallID] = &cp
	return nil
}

func (m *MockStore) UpdateInterview(_ context.Context, callID string, u store.InterviewUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	iv, ok := m.Interviews[callID]
	if !ok {
		return store.ErrNotFound
	}
	iv.DurationSeconds = u.DurationSeconds
	iv.Completed = u.Completed
	if u.Transcript != nil {
		iv.Transcript = append([]transcript.Utterance(nil), u.Transcript...)
	}
	iv.UpdatedAt = m.tick()
	return nil
}

func (m *MockStore) ListInterviews(_ context.Context, limit int) ([]store.Interview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	results := make([]store.Interview, 0, len(m.Interviews))
	for _, iv := range m.Interviews {
		results = append(results, copyInterview(iv))
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (m *MockStore) Migrate(_ context.Context) error { return nil }

func (m *MockStore) Close() {}

// Seed stores an interview directly, bypassing uniqueness and call counters.
func (m *MockStore) Seed(iv store.Interview) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = m.tick()
		iv.UpdatedAt = iv.CreatedAt
	}
	cp := copyInterview(&iv)
	m.Interviews[iv.CallID] = &cp
}

// Get returns a copy of the stored interview for callID.
func (m *MockStore) Get(callID string) (store.Interview, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	iv, ok := m.Interviews[callID]
	if !ok {
		return store.Interview{}, false
	}
	return copyInterview(iv), true
}

// Count returns how many interviews are stored.
func (m *MockStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Interviews)
}

// StorageCalls returns the total number of find/insert/update calls.
func (m *MockStore) StorageCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FindCalls + m.InsertCalls + m.UpdateCalls
}

// tick advances the fake clock so created_at ordering is deterministic.
func (m *MockStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func copyInterview(iv *store.Interview) store.Interview {
	cp := *iv
	if iv.ParticipantID != nil {
		p := *iv.ParticipantID
		cp.ParticipantID = &p
	}
	if iv.Transcript != nil {
		cp.Transcript = append([]transcript.Utterance(nil), iv.Transcript...)
	}
	return cp
}
