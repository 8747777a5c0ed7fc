package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/translocations/internal/importer"
	"github.com/JonMunkholm/translocations/internal/logging"
	"github.com/JonMunkholm/translocations/internal/metrics"
	"github.com/JonMunkholm/translocations/internal/schema"
)

// Options tunes a Service. Zero values pick the defaults noted per field.
type Options struct {
	MaxErrors            int           // row errors listed in a summary; default 10, negative lists all
	FallbackYear         int           // year for rows without one; default importer.DefaultFallbackYear
	MaxFileSize          int64         // bytes; 0 means unlimited
	MaxConcurrentImports int           // default DefaultMaxConcurrentImports
	MaxImportWait        time.Duration // default DefaultMaxImportWait
	ImportTimeout        time.Duration // 0 means no extra deadline
	AuditCapacity        int           // default DefaultAuditCapacity, negative disables

	// Metrics is optional.
	Metrics *metrics.Metrics

	now   func() time.Time
	newID func() string
}

// DefaultMaxErrors is how many row errors a summary lists when unset.
const DefaultMaxErrors = 10

// Service provides the translocation operations shared by the API and CLI.
type Service struct {
	store   Store
	opts    Options
	limiter *ImportLimiter
	audit   *AuditLog
	metrics *metrics.Metrics
}

// NewService wraps store. When opts.Metrics is set every store call is
// instrumented.
func NewService(store Store, opts Options) *Service {
	if opts.MaxErrors == 0 {
		opts.MaxErrors = DefaultMaxErrors
	}
	if opts.FallbackYear == 0 {
		opts.FallbackYear = importer.DefaultFallbackYear
	}
	if opts.AuditCapacity == 0 {
		opts.AuditCapacity = DefaultAuditCapacity
	}
	if opts.now == nil {
		opts.now = func() time.Time { return time.Now().UTC() }
	}
	if opts.newID == nil {
		opts.newID = func() string { return uuid.New().String() }
	}

	limiter := NewImportLimiter(opts.MaxConcurrentImports, opts.MaxImportWait)
	if opts.Metrics != nil {
		store = instrument(store, opts.Metrics.Store)
		limiter.OnChange(opts.Metrics.Import.SetActive)
	}

	return &Service{
		store:   store,
		opts:    opts,
		limiter: limiter,
		audit:   NewAuditLog(opts.AuditCapacity),
		metrics: opts.Metrics,
	}
}

// Limiter exposes the import limiter for health reporting and shutdown.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Audit returns recorded changes, newest first.
func (s *Service) Audit(f AuditFilter) []AuditEntry {
	return s.audit.Entries(f)
}

// Create validates in, assigns an id and creation time, and stores it.
func (s *Service) Create(ctx context.Context, in schema.TranslocationInput) (*schema.Translocation, error) {
	in = normalizeInput(in)
	if err := ValidateInput(in); err != nil {
		return nil, err
	}

	rec := schema.Translocation{ID: s.opts.newID(), CreatedAt: s.opts.now()}
	in.Apply(&rec)

	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create translocation: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{Action: ActionCreate, RecordID: rec.ID, RowsAffected: 1})
	logging.WithFields(ctx, "id", rec.ID, "species", rec.Species).Info("translocation created")
	return &rec, nil
}

// List returns the records matching f.
func (s *Service) List(ctx context.Context, f schema.Filter) ([]schema.Translocation, error) {
	recs, err := s.store.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list translocations: %w", err)
	}
	if recs == nil {
		recs = []schema.Translocation{}
	}
	return recs, nil
}

// Update replaces the user fields of record id. The id and creation time
// are kept.
func (s *Service) Update(ctx context.Context, id string, in schema.TranslocationInput) (*schema.Translocation, error) {
	in = normalizeInput(in)
	if err := ValidateInput(in); err != nil {
		return nil, err
	}

	rec, err := s.store.Update(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("update translocation %s: %w", id, err)
	}

	s.audit.Record(ctx, AuditEntry{Action: ActionUpdate, RecordID: id, RowsAffected: 1})
	logging.WithFields(ctx, "id", id).Info("translocation updated")
	return &rec, nil
}

// Delete removes record id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete translocation %s: %w", id, err)
	}
	s.audit.Record(ctx, AuditEntry{Action: ActionDelete, RecordID: id, RowsAffected: 1})
	logging.WithFields(ctx, "id", id).Info("translocation deleted")
	return nil
}

// Stats returns per-species totals. Species with no records are absent.
func (s *Service) Stats(ctx context.Context) (schema.Stats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("translocation stats: %w", err)
	}
	if stats == nil {
		stats = schema.Stats{}
	}
	return stats, nil
}

// Reset removes every record.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.ReplaceAll(ctx, nil); err != nil {
		return fmt.Errorf("reset translocations: %w", err)
	}
	s.audit.Record(ctx, AuditEntry{Action: ActionReset})
	logging.FromContext(ctx).Warn("all translocations removed")
	return nil
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
