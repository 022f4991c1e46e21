package subscription

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is an in-process Repository for tests and local runs
// without Postgres.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[int64]Record
	// Err, when set, is returned by every method.
	Err error
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[int64]Record)}
}

func (m *MemoryRepository) Find(_ context.Context, userID int64) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	rec, ok := m.records[userID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *MemoryRepository) UpsertSubscribed(_ context.Context, userID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	rec, ok := m.records[userID]
	if !ok || !rec.IsSubscribed {
		rec.SubscriptionDate = at
	}
	rec.UserID = userID
	rec.IsSubscribed = true
	rec.UpdatedAt = at
	m.records[userID] = rec
	return nil
}

func (m *MemoryRepository) EnsureAdmin(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	now := time.Now()
	rec, ok := m.records[userID]
	if !ok {
		rec.SubscriptionDate = now
	}
	rec.UserID = userID
	rec.IsSubscribed = true
	rec.IsAdmin = true
	rec.UpdatedAt = now
	m.records[userID] = rec
	return nil
}

func (m *MemoryRepository) CountSubscribed(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return 0, m.Err
	}
	n := 0
	for _, rec := range m.records {
		if rec.IsSubscribed {
			n++
		}
	}
	return n, nil
}
