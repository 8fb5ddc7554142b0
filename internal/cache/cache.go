// Package cache memoizes the rendered global feed in a single, time-keyed
// slot.
//
// HOW THE SLOT WORKS:
// The slot holds at most one Snapshot. Get serves it verbatim while it is
// younger than the window and was rendered for the same key; otherwise it
// recomputes, replaces the snapshot and returns the fresh bytes.
//
//	t=0s   Get("1") → miss, render, store
//	t=5s   Get("1") → hit (even if posts changed meanwhile)
//	t=21s  Get("1") → window elapsed: miss, render, store
//	       Flush()  → slot cleared, next Get renders
//
// Writes to posts never touch the slot. Staleness is bounded by the window
// alone.
//
// FAIL-OPEN:
// A broken Store never breaks a page. Load/Save/Clear failures are logged and
// counted, and Get falls back to recomputing on every call.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/blogfeed/internal/metrics"
)

// DefaultWindow is how long a rendered feed is served without recomputing.
const DefaultWindow = 20 * time.Second

// Snapshot is one stored render.
type Snapshot struct {
	Key      string
	Body     []byte
	StoredAt time.Time
}

// Store persists the single snapshot. Load reports ok=false when the slot
// is empty.
type Store interface {
	Load(ctx context.Context) (snap Snapshot, ok bool, err error)
	Save(ctx context.Context, snap Snapshot) error
	Clear(ctx context.Context) error
}

// Slot is the single-slot memoizer. It is safe for concurrent use.
type Slot struct {
	store  Store
	window time.Duration
	now    func() time.Time
	logger *slog.Logger

	// mu serializes Get and Flush. Holding it across compute means an
	// expired slot is recomputed once, not once per concurrent request.
	mu sync.Mutex

	// stale is set when Flush could not clear the store; whatever the store
	// still holds is ignored until the next successful Save.
	stale bool
}

// Option configures a Slot.
type Option func(*Slot)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Slot) { s.now = now }
}

// New creates a Slot backed by store. A non-positive window uses
// DefaultWindow.
func New(store Store, window time.Duration, logger *slog.Logger, opts ...Option) *Slot {
	if window <= 0 {
		window = DefaultWindow
	}
	s := &Slot{
		store:  store,
		window: window,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window returns the configured cache window.
func (s *Slot) Window() time.Duration {
	return s.window
}

// Get returns the stored body for key if it is still inside the window,
// otherwise the result of compute (which is then stored).
//
// Only compute's own error is returned; store failures are swallowed.
func (s *Slot) Get(ctx context.Context, key string, compute func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	snap, ok, err := s.store.Load(ctx)
	if err != nil {
		s.storeFailed("load", err)
		ok = false
	}
	if ok && !s.stale && snap.Key == key && now.Sub(snap.StoredAt) < s.window {
		metrics.FeedCacheHits.Inc()
		return snap.Body, nil
	}

	metrics.FeedCacheMisses.Inc()

	body, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, Snapshot{Key: key, Body: body, StoredAt: now}); err != nil {
		s.storeFailed("save", err)
	} else {
		s.stale = false
	}

	return body, nil
}

// Flush empties the slot so the next Get recomputes regardless of the
// window.
func (s *Slot) Flush(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		s.storeFailed("clear", err)
		s.stale = true
		return
	}
	s.stale = false
	s.logger.Info("feed cache flushed")
}

func (s *Slot) storeFailed(op string, err error) {
	metrics.FeedCacheStoreErrors.WithLabelValues(op).Inc()
	s.logger.Warn("feed cache store failed, serving uncached",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
}

// MemoryStore keeps the snapshot in process memory. Callers (the Slot)
// provide the locking.
type MemoryStore struct {
	snap Snapshot
	ok   bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (Snapshot, bool, error) {
	return m.snap, m.ok, nil
}

func (m *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	m.snap, m.ok = snap, true
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.snap, m.ok = Snapshot{}, false
	return nil
}
