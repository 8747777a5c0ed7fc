package importer

import (
	"fmt"

	"github.com/JonMunkholm/translocations/internal/schema"
)

// Summary is the report returned to the uploader.
type Summary struct {
	Message            string                 `json:"message"`
	FileName           string                 `json:"file_name"`
	TotalRowsProcessed int                    `json:"total_rows_processed"`
	SuccessfulImports  int                    `json:"successful_imports"`
	Errors             []string               `json:"errors"`
	ErrorCount         int                    `json:"error_count"`
	SpeciesSummary     map[schema.Species]int `json:"species_summary"`
	Columns            map[string]string      `json:"columns"`
	DryRun             bool                   `json:"dry_run,omitempty"`
}

// Summarize builds the report for a batch. At most maxErrors row errors are
// listed; ErrorCount always carries the full number.
func Summarize(fileName string, b *Batch, maxErrors int, dryRun bool) Summary {
	records := b.Records()
	rowErrs := b.Errors()

	shown := len(rowErrs)
	if maxErrors >= 0 && shown > maxErrors {
		shown = maxErrors
	}
	msgs := make([]string, 0, shown)
	for _, e := range rowErrs[:shown] {
		msgs = append(msgs, e.Error())
	}

	species := make(map[schema.Species]int)
	for _, r := range records {
		species[r.Species]++
	}

	verb := "imported"
	if dryRun {
		verb = "parsed"
	}
	msg := fmt.Sprintf("Successfully %s %d translocations from %s", verb, len(records), fileName)
	if len(rowErrs) > 0 {
		msg += fmt.Sprintf(". %d rows had errors and were skipped.", len(rowErrs))
	}

	return Summary{
		Message:            msg,
		FileName:           fileName,
		TotalRowsProcessed: b.TotalRows,
		SuccessfulImports:  len(records),
		Errors:             msgs,
		ErrorCount:         len(rowErrs),
		SpeciesSummary:     species,
		Columns:            b.Columns.Mapping(b.Headers),
		DryRun:             dryRun,
	}
}
