// Package memstore is an in-memory core.Store used by tests and by
// STORE_DRIVER=memory for local runs. Records are kept in insertion order.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/JonMunkholm/translocations/internal/core"
	"github.com/JonMunkholm/translocations/internal/schema"
)

// Store holds records in a slice guarded by a RWMutex.
type Store struct {
	mu      sync.RWMutex
	records []schema.Translocation
}

var _ core.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{}
}

func (s *Store) Create(ctx context.Context, rec schema.Translocation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(rec.ID) >= 0 {
		return fmt.Errorf("duplicate key: id %s", rec.ID)
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *Store) List(ctx context.Context, f schema.Filter) ([]schema.Translocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]schema.Translocation, 0, len(s.records))
	for _, r := range s.records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, id string, in schema.TranslocationInput) (schema.Translocation, error) {
	if err := ctx.Err(); err != nil {
		return schema.Translocation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return schema.Translocation{}, core.ErrNotFound
	}
	in.Apply(&s.records[i])
	return s.records[i], nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.records = slices.Delete(s.records, i, i+1)
	return nil
}

func (s *Store) Stats(ctx context.Context) (schema.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := schema.Stats{}
	for _, r := range s.records {
		st := stats[r.Species]
		st.TotalAnimals += r.NumberOfAnimals
		st.TotalTranslocations++
		stats[r.Species] = st
	}
	return stats, nil
}

// ReplaceAll swaps the whole slice under the write lock, so readers see
// either the old or the new set.
func (s *Store) ReplaceAll(ctx context.Context, recs []schema.Translocation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	next := slices.Clone(recs)

	s.mu.Lock()
	s.records = next
	s.mu.Unlock()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close(context.Context) error {
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.records, func(r schema.Translocation) bool { return r.ID == id })
}
