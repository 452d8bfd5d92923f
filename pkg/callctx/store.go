// Package callctx is the process-wide store handing outbound-call context
// from the call-initiation API to the turn orchestrator. Entries are
// consumed on first read and reaped after a TTL so calls that are never
// answered do not leak memory.
package callctx

import (
	"sync"
	"time"

	"github.com/callwire/callwire/internal/log"
)

// DefaultTTL bounds how long an unconsumed context survives.
const DefaultTTL = 10 * time.Minute

type entry struct {
	context   string
	createdAt time.Time
	expiresAt time.Time
	consumed  bool
}

// Store maps a call identifier to one-time outbound context. Safe for
// concurrent use; this is the only state shared across call goroutines.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// New creates a store and starts its background reaper.
func New() *Store {
	s := NewWithClock(time.Now)
	go s.reapLoop(time.Minute)
	return s
}

// NewWithClock creates a store without a reaper, using the given clock.
// Tests drive reaping explicitly via Reap.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		entries: make(map[string]*entry),
		now:     now,
		done:    make(chan struct{}),
	}
}

// Put stores context for a call. A zero ttl uses DefaultTTL. Overwrites any
// previous entry for the same call, consumed or not.
func (s *Store) Put(callID, context string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	now := s.now()
	s.mu.Lock()
	s.entries[callID] = &entry{
		context:   context,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	s.mu.Unlock()

	log.Debug("call context stored", "call_id", callID, "ttl", ttl)
}

// Take returns the context for a call and marks it consumed. At most one
// caller ever observes the value; concurrent takers for the same key see
// absence. Expired entries are absent even before the reaper runs.
func (s *Store) Take(callID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[callID]
	if !ok || e.consumed || s.now().After(e.expiresAt) {
		return "", false
	}

	// Keep the entry flagged for diagnostics; the reaper removes it.
	e.consumed = true
	return e.context, true
}

// Peek returns the context without consuming it. The call path consumes
// through Take; Peek is for inspection, where the entry must stay claimable.
func (s *Store) Peek(callID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[callID]
	if !ok || e.consumed || s.now().After(e.expiresAt) {
		return "", false
	}
	return e.context, true
}

// Reap removes expired entries and returns how many were dropped.
func (s *Store) Reap() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped int
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of retained entries, consumed ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the background reaper.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Store) reapLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Reap(); n > 0 {
				log.Debug("reaped expired call contexts", "count", n)
			}
		case <-s.done:
			return
		}
	}
}
