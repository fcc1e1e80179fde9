// Package memory provides an in-process KeyValueStore with expiring entries.
// It gives one process the same semantics as the Redis store and is used by
// tests and by STORE_DRIVER=memory for local development.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kugather/signup-verification/internal/core/ports"
)

var errNonPositiveTTL = errors.New("store: ttl must be positive")

// sweepInterval bounds how often a write scans for expired entries.
const sweepInterval = time.Minute

type entry struct {
	value     string
	hash      map[string]string
	expiresAt time.Time
}

// Store is a mutex-guarded map of expiring entries.
type Store struct {
	mu        sync.Mutex
	entries   map[string]*entry
	now       func() time.Time
	lastSweep time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{entries: make(map[string]*entry), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

var _ ports.KeyValueStore = (*Store)(nil)

// live returns the entry for key, purging it if it has expired. Caller holds mu.
func (s *Store) live(key string) (*entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return e, true
}

// sweep drops expired entries that were never read again. Caller holds mu.
func (s *Store) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

func (s *Store) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return errNonPositiveTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	s.entries[key] = &entry{value: value, expiresAt: now.Add(ttl)}
	return nil
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok || e.hash != nil {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *Store) GetAndDelete(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok || e.hash != nil {
		return "", false, nil
	}
	delete(s.entries, key)
	return e.value, true, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *Store) HashSetWithTTL(_ context.Context, key string, fields map[string]string, ttl time.Duration) error {
	if ttl <= 0 {
		return errNonPositiveTTL
	}
	if len(fields) == 0 {
		return errors.New("store: no hash fields")
	}
	h := make(map[string]string, len(fields))
	for k, v := range fields {
		h[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	s.entries[key] = &entry{hash: h, expiresAt: now.Add(ttl)}
	return nil
}

func (s *Store) HashGetAll(_ context.Context, key string) (map[string]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok || e.hash == nil {
		return nil, false, nil
	}
	out := make(map[string]string, len(e.hash))
	for k, v := range e.hash {
		out[k] = v
	}
	return out, true, nil
}

func (s *Store) HashSetIfExists(_ context.Context, key, field, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok || e.hash == nil {
		return false, nil
	}
	e.hash[field] = value
	return true, nil
}

// Len reports the number of entries not yet purged, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
