package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/translocations/internal/metrics"
	"github.com/JonMunkholm/translocations/internal/schema"
)

// instrumentedStore records a metric for every call to the wrapped store.
type instrumentedStore struct {
	next    Store
	metrics *metrics.StoreMetrics
}

func instrument(next Store, m *metrics.StoreMetrics) Store {
	return &instrumentedStore{next: next, metrics: m}
}

func (s *instrumentedStore) Create(ctx context.Context, rec schema.Translocation) (err error) {
	defer s.record("create", time.Now(), &err)
	return s.next.Create(ctx, rec)
}

func (s *instrumentedStore) List(ctx context.Context, f schema.Filter) (_ []schema.Translocation, err error) {
	defer s.record("list", time.Now(), &err)
	return s.next.List(ctx, f)
}

func (s *instrumentedStore) Update(ctx context.Context, id string, in schema.TranslocationInput) (_ schema.Translocation, err error) {
	defer s.record("update", time.Now(), &err)
	return s.next.Update(ctx, id, in)
}

func (s *instrumentedStore) Delete(ctx context.Context, id string) (err error) {
	defer s.record("delete", time.Now(), &err)
	return s.next.Delete(ctx, id)
}

func (s *instrumentedStore) Stats(ctx context.Context) (_ schema.Stats, err error) {
	defer s.record("stats", time.Now(), &err)
	return s.next.Stats(ctx)
}

func (s *instrumentedStore) ReplaceAll(ctx context.Context, recs []schema.Translocation) (err error) {
	defer s.record("replace_all", time.Now(), &err)
	return s.next.ReplaceAll(ctx, recs)
}

func (s *instrumentedStore) Ping(ctx context.Context) (err error) {
	defer s.record("ping", time.Now(), &err)
	return s.next.Ping(ctx)
}

func (s *instrumentedStore) Close(ctx context.Context) error {
	return s.next.Close(ctx)
}

func (s *instrumentedStore) record(op string, start time.Time, err *error) {
	s.metrics.RecordOperation(op, start, *err)
}
