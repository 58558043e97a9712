package catalog

import (
	"context"
	"iter"
	"slices"
	"sync"
)

// MemStorage keeps the persisted lines in memory. FailWrites, when set, makes
// every WriteLines call fail with that error.
type MemStorage struct {
	mu     sync.RWMutex
	lines  []string
	writes int

	FailWrites error
}

func NewMemStorage(lines ...string) *MemStorage {
	return &MemStorage{lines: lines}
}

func (s *MemStorage) Ping(ctx context.Context) error { return nil }

func (s *MemStorage) ReadLines(ctx context.Context, fn func(line string) error) error {
	s.mu.RLock()
	lines := slices.Clone(s.lines)
	s.mu.RUnlock()

	if lines == nil {
		return ErrNoSnapshot
	}
	for _, l := range lines {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemStorage) WriteLines(ctx context.Context, lines iter.Seq[string]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.lines = slices.Collect(lines)
	s.writes++
	return nil
}

// Lines returns a copy of what was last written.
func (s *MemStorage) Lines() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lines)
}

// Writes counts successful WriteLines calls.
func (s *MemStorage) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
