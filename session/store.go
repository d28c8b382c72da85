// Package session keeps one conversation state per user in memory and serializes the
// turns of each user.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"

	"nutriroutine/dialogue"
)

const DefaultTTL = 30 * time.Minute

type entry struct {
	// lock is a one-slot semaphore so waiting for a turn can honor ctx.
	lock     chan struct{}
	state    dialogue.State
	started  bool
	lastSeen time.Time
}

type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
	ttl     time.Duration
	now     func() time.Time
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[int64]*entry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// acquire locks the entry of userID, creating it if needed. The map mutex is never
// held while waiting on the entry lock.
func (s *Store) acquire(ctx context.Context, userID int64, create bool) (*entry, error) {
	for {
		s.mu.Lock()
		e, ok := s.entries[userID]
		if !ok {
			if !create {
				s.mu.Unlock()
				return nil, nil
			}
			e = &entry{lock: make(chan struct{}, 1), lastSeen: s.now()}
			s.entries[userID] = e
		}
		s.mu.Unlock()

		select {
		case e.lock <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		// The entry may have been evicted while we waited.
		s.mu.Lock()
		current := s.entries[userID] == e
		s.mu.Unlock()
		if current {
			return e, nil
		}
		<-e.lock
	}
}

func (e *entry) release() { <-e.lock }

func newState(userID int64, sessionID string) dialogue.State {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return dialogue.NewState(userID, sessionID)
}

// Do runs fn with exclusive access to the user's state, starting an idle session if
// none exists. Turns of different users run in parallel.
func (s *Store) Do(ctx context.Context, userID int64, fn func(*dialogue.State) error) error {
	e, err := s.acquire(ctx, userID, true)
	if err != nil {
		return err
	}
	defer e.release()

	if !e.started {
		e.state = newState(userID, "")
		e.started = true
		slog.Info("SESSION: Started", "user_id", userID, "session_id", e.state.SessionID)
	}
	err = fn(&e.state)
	e.lastSeen = s.now()

	if slog.Default().Enabled(ctx, slog.LevelDebug) {
		slog.Debug("SESSION: State after turn", "user_id", userID, "state", spew.Sdump(e.state))
	}
	return err
}

// Start replaces the user's state with a fresh idle one. An empty sessionID gets a
// new random id.
func (s *Store) Start(ctx context.Context, userID int64, sessionID string) (dialogue.State, error) {
	e, err := s.acquire(ctx, userID, true)
	if err != nil {
		return dialogue.State{}, err
	}
	defer e.release()

	e.state = newState(userID, sessionID)
	e.started = true
	e.lastSeen = s.now()
	slog.Info("SESSION: Started", "user_id", userID, "session_id", e.state.SessionID)
	return e.state, nil
}

// End clears the user's state. Ending a session that does not exist is a no-op.
func (s *Store) End(ctx context.Context, userID int64) error {
	e, err := s.acquire(ctx, userID, false)
	if err != nil || e == nil {
		return err
	}
	defer e.release()

	s.mu.Lock()
	delete(s.entries, userID)
	s.mu.Unlock()
	slog.Info("SESSION: Ended", "user_id", userID, "session_id", e.state.SessionID)
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many were
// removed. Sessions in the middle of a turn are skipped.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for userID, e := range s.entries {
		select {
		case e.lock <- struct{}{}:
		default:
			continue
		}
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.entries, userID)
			evicted++
		}
		<-e.lock
	}
	return evicted
}

// Run sweeps every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				slog.Info("SESSION: Evicted idle sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}
