// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store holds the working set of classified signals. The set is
// owned by one Store value and mutated only through Append and Merge.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/pdiddy/signal-engine/internal/taxonomy"
	"github.com/pdiddy/signal-engine/pkg/types"
)

var (
	// ErrUnknownCategory is returned for a signal outside the taxonomy.
	ErrUnknownCategory = errors.New("unknown signal category")

	// ErrInvalidSignal is returned for a signal with a missing id or
	// timestamp, or an unknown direction or strength.
	ErrInvalidSignal = errors.New("invalid signal")
)

// Store is the signal working set.
type Store interface {
	// Append assigns an id and timestamp to p and adds it.
	Append(p types.PartialSignal) (types.Signal, error)

	// Merge adds every signal whose id is not already present and
	// returns how many were added. The batch is applied atomically: if
	// any signal is invalid nothing is added.
	Merge(batch []types.Signal) (int, error)

	// Snapshot returns a copy of the current signals, newest first.
	Snapshot() []types.Signal

	// Len returns the number of signals held.
	Len() int
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithClock sets the clock used to timestamp appended signals.
func WithClock(c clockwork.Clock) Option {
	return func(s *MemoryStore) { s.clock = c }
}

// WithIDFunc sets the id generator used by Append.
func WithIDFunc(f func() string) Option {
	return func(s *MemoryStore) { s.newID = f }
}

// WithCapacity bounds the store; once full, the oldest inserted signals
// are dropped. Zero means unbounded.
func WithCapacity(n int) Option {
	return func(s *MemoryStore) { s.capacity = n }
}

// MemoryStore is an in-process Store safe for concurrent use.
type MemoryStore struct {
	tax      *taxonomy.Taxonomy
	clock    clockwork.Clock
	newID    func() string
	capacity int

	mu      sync.RWMutex
	signals []types.Signal      // newest first
	ids     map[string]struct{} // every id ever admitted, evicted included
}

// NewMemoryStore returns an empty store validating against tax.
func NewMemoryStore(tax *taxonomy.Taxonomy, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		tax:   tax,
		clock: clockwork.NewRealClock(),
		newID: func() string { return "sig_" + uuid.NewString() },
		ids:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns a fresh signal id from the store's generator.
func (s *MemoryStore) NewID() string { return s.newID() }

// Append implements Store.
func (s *MemoryStore) Append(p types.PartialSignal) (types.Signal, error) {
	sig := types.Signal{
		Category:  p.Category,
		Direction: p.Direction,
		Strength:  p.Strength,
		Timestamp: s.clock.Now().UnixMilli(),
	}
	if err := s.check(sig); err != nil {
		return types.Signal{}, err
	}
	sig = s.normalize(sig)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Regenerate on the unlikely collision so Append never silently
	// drops a signal.
	sig.ID = s.newID()
	for s.has(sig.ID) {
		sig.ID = s.newID()
	}
	s.prepend([]types.Signal{sig})
	return cloneSignal(sig), nil
}

// Merge implements Store.
func (s *MemoryStore) Merge(batch []types.Signal) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	normalized := make([]types.Signal, 0, len(batch))
	for i, sig := range batch {
		if sig.ID == "" {
			return 0, fmt.Errorf("signal %d: %w: missing id", i, ErrInvalidSignal)
		}
		if sig.Timestamp <= 0 {
			return 0, fmt.Errorf("signal %s: %w: missing timestamp", sig.ID, ErrInvalidSignal)
		}
		if err := s.check(sig); err != nil {
			return 0, fmt.Errorf("signal %s: %w", sig.ID, err)
		}
		normalized = append(normalized, s.normalize(sig))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make([]types.Signal, 0, len(normalized))
	seen := make(map[string]struct{}, len(normalized))
	for _, sig := range normalized {
		if s.has(sig.ID) {
			continue
		}
		if _, dup := seen[sig.ID]; dup {
			continue
		}
		seen[sig.ID] = struct{}{}
		fresh = append(fresh, sig)
	}
	s.prepend(fresh)
	return len(fresh), nil
}

// Snapshot implements Store.
func (s *MemoryStore) Snapshot() []types.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Signal, len(s.signals))
	for i, sig := range s.signals {
		out[i] = cloneSignal(sig)
	}
	return out
}

// Len implements Store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.signals)
}

func (s *MemoryStore) check(sig types.Signal) error {
	if !s.tax.Contains(sig.Category) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, sig.Category)
	}
	if !sig.Direction.Valid() {
		return fmt.Errorf("%w: direction %q", ErrInvalidSignal, sig.Direction)
	}
	if !sig.Strength.Valid() {
		return fmt.Errorf("%w: strength %q", ErrInvalidSignal, sig.Strength)
	}
	return nil
}

// normalize re-derives the fields that are a function of category and
// strength, so callers cannot supply their own.
func (s *MemoryStore) normalize(sig types.Signal) types.Signal {
	sig.AffectedNodes = s.tax.AffectedNodes(sig.Category)
	sig.Weight = sig.Strength.Weight()
	return sig
}

func (s *MemoryStore) has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// prepend must be called with mu held.
func (s *MemoryStore) prepend(fresh []types.Signal) {
	if len(fresh) == 0 {
		return
	}
	merged := make([]types.Signal, 0, len(fresh)+len(s.signals))
	merged = append(merged, fresh...)
	merged = append(merged, s.signals...)
	for _, sig := range fresh {
		s.ids[sig.ID] = struct{}{}
	}

	// Evicted ids stay in s.ids so a later merge cannot bring them back.
	if s.capacity > 0 && len(merged) > s.capacity {
		merged = merged[:s.capacity]
	}
	s.signals = merged
}

func cloneSignal(sig types.Signal) types.Signal {
	sig.AffectedNodes = append([]string(nil), sig.AffectedNodes...)
	return sig
}
