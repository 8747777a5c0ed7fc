package core

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/translocations/internal/importer"
	"github.com/JonMunkholm/translocations/internal/logging"
)

const (
	modeCommit  = "commit"
	modePreview = "preview"
)

// Import parses a spreadsheet, normalizes every row and replaces the stored
// collection with the valid records. The replacement happens even when no
// row was valid. Row errors are reported in the summary, never returned.
//
// Returned errors are file-level: importer.ErrUnsupportedFormat,
// importer.ErrEmptyFile, importer.ErrFileTooLarge, *importer.MissingColumnsError,
// ErrTooManyImports, or a store failure.
func (s *Service) Import(ctx context.Context, fileName string, data []byte) (*importer.Summary, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.opts.ImportTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ImportTimeout)
		defer cancel()
	}

	return s.runImport(ctx, fileName, data, modeCommit)
}

// PreviewImport runs the import pipeline without touching the store.
func (s *Service) PreviewImport(ctx context.Context, fileName string, data []byte) (*importer.Summary, error) {
	return s.runImport(ctx, fileName, data, modePreview)
}

func (s *Service) runImport(ctx context.Context, fileName string, data []byte, mode string) (summary *importer.Summary, err error) {
	start := time.Now()
	format, _ := importer.DetectFormat(fileName)
	log := logging.WithFields(ctx, "file", fileName, "mode", mode)
	if ip := ClientIPFromContext(ctx); ip != "" {
		log = log.With("client_ip", ip)
	}

	var imported, rejected int
	defer func() {
		if s.metrics != nil {
			s.metrics.Import.RecordImport(string(format), mode, imported, rejected, start, err)
		}
	}()

	if s.opts.MaxFileSize > 0 && int64(len(data)) > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", importer.ErrFileTooLarge, len(data), s.opts.MaxFileSize)
	}

	table, err := importer.Parse(fileName, data)
	if err != nil {
		log.Warn("import rejected", "error", err)
		return nil, err
	}

	batch, err := importer.Normalize(table, importer.Options{FallbackYear: s.opts.FallbackYear})
	if err != nil {
		log.Warn("import rejected", "error", err)
		return nil, err
	}
	log.Debug("columns resolved", "columns", batch.Columns.Mapping(batch.Headers))

	records := batch.Records()
	imported, rejected = len(records), len(batch.Errors())

	if mode == modeCommit {
		now := s.opts.now()
		for i := range records {
			records[i].ID = s.opts.newID()
			records[i].CreatedAt = now
		}

		if len(records) == 0 {
			log.Warn("import produced no valid rows; stored translocations will be cleared",
				"rows", batch.TotalRows, "row_errors", rejected)
		}
		if err := s.store.ReplaceAll(ctx, records); err != nil {
			return nil, fmt.Errorf("commit import: %w", err)
		}
		s.audit.Record(ctx, AuditEntry{
			Action:       ActionImport,
			FileName:     fileName,
			RowsAffected: imported,
			RowErrors:    rejected,
		})
	}

	sum := importer.Summarize(fileName, batch, s.opts.MaxErrors, mode == modePreview)
	log.Info("import finished",
		"rows", sum.TotalRowsProcessed,
		"imported", sum.SuccessfulImports,
		"row_errors", sum.ErrorCount,
		"duration", time.Since(start))

	return &sum, nil
}
