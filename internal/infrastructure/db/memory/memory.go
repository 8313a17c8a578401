// Package memory is an in-process store implementing the principal and job
// card repositories. It backs tests and STORE_DRIVER=memory.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds every table behind a single lock. Repositories built from the
// same Store share state.
type Store struct {
	mu         sync.RWMutex
	principals []principalRow
	jobCards   []jobCardRow
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// newID returns a time-ordered identifier, so slice order matches id order.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
