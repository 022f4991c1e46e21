package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemoryStore()
	_, ok := s.Get(1)
	assert.False(t, ok)

	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	s.Put(1, Session{State: "awaiting_city", LastInteractionAt: at})
	got, ok := s.Get(1)
	assert.True(t, ok)
	assert.Equal(t, State("awaiting_city"), got.State)
	assert.Equal(t, at, got.LastInteractionAt)
	assert.Equal(t, 1, s.Len())

	s.Put(1, Session{State: StateIdle})
	_, ok = s.Get(1)
	assert.False(t, ok)

	s.Put(2, Session{State: "awaiting_continue"})
	s.Delete(2)
	assert.Zero(t, s.Len())
}

func TestMemoryStoreIsolatesUsers(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Put(id, Session{State: "awaiting_city", LastInteractionAt: time.Unix(id, 0)})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
	for i := int64(1); i <= 50; i++ {
		got, ok := s.Get(i)
		assert.True(t, ok)
		assert.Equal(t, time.Unix(i, 0), got.LastInteractionAt)
	}
}
