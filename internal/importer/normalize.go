package importer

import (
	"fmt"

	"github.com/JonMunkholm/translocations/internal/schema"
)

// DefaultFallbackYear is used for rows without a recognizable year.
const DefaultFallbackYear = 2024

// Options tunes Normalize.
type Options struct {
	FallbackYear int
}

// RowError describes why one data row produced no record.
type RowError struct {
	Row int // 1-based data row number, header excluded
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("Row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// RowResult is the outcome for one non-empty data row: exactly one of
// Record and Err is set.
type RowResult struct {
	Row    int
	Record *schema.Translocation
	Err    *RowError
}

// OK reports whether the row produced a record.
func (r RowResult) OK() bool { return r.Err == nil }

// Batch is the normalized content of a table.
type Batch struct {
	Columns   Columns
	Headers   []string
	TotalRows int         // Data rows in the file, including skipped empty rows
	Results   []RowResult // One per non-empty row, in source order
}

// Records returns the successfully normalized records in source order.
func (b *Batch) Records() []schema.Translocation {
	out := make([]schema.Translocation, 0, len(b.Results))
	for _, r := range b.Results {
		if r.OK() {
			out = append(out, *r.Record)
		}
	}
	return out
}

// Errors returns the row errors in source order.
func (b *Batch) Errors() []*RowError {
	var out []*RowError
	for _, r := range b.Results {
		if !r.OK() {
			out = append(out, r.Err)
		}
	}
	return out
}

// Normalize resolves the table's columns and converts every non-empty row.
// A *MissingColumnsError is returned before any row is read when a required
// field cannot be resolved. Row failures never abort the batch.
//
// Records carry no ID or CreatedAt; the caller stamps them on commit.
func Normalize(t *Table, opts Options) (*Batch, error) {
	if opts.FallbackYear == 0 {
		opts.FallbackYear = DefaultFallbackYear
	}

	cols, err := Resolve(t.Headers)
	if err != nil {
		return nil, err
	}

	b := &Batch{
		Columns:   cols,
		Headers:   t.Headers,
		TotalRows: len(t.Rows),
		Results:   make([]RowResult, 0, len(t.Rows)),
	}

	for i, row := range t.Rows {
		if isEmptyRow(row) {
			continue
		}
		n := i + 1
		rec, err := normalizeRow(t, i, cols, opts)
		if err != nil {
			b.Results = append(b.Results, RowResult{Row: n, Err: &RowError{Row: n, Err: err}})
			continue
		}
		b.Results = append(b.Results, RowResult{Row: n, Record: rec})
	}

	return b, nil
}

func normalizeRow(t *Table, i int, cols Columns, opts Options) (*schema.Translocation, error) {
	cell := func(f Field) string { return t.Cell(i, cols.Index(f)) }

	count, err := ParseAnimalCount(cell(FieldNumberOfAnimals))
	if err != nil {
		return nil, err
	}

	notes := CleanNotes(cell(FieldAdditionalInfo))

	return &schema.Translocation{
		ProjectTitle:    textOr(cell(FieldProjectTitle), fmt.Sprintf("Project %d", i+1)),
		Year:            ParseYear(cell(FieldYear), opts.FallbackYear),
		Species:         CategorizeSpecies(cell(FieldSpecies), notes),
		NumberOfAnimals: count,
		SourceArea: schema.Location{
			Name:        textOr(cell(FieldSourceName), schema.UnknownSource),
			Coordinates: NormalizeCoordinates(cell(FieldSourceCoordinates)),
			Country:     textOr(cell(FieldSourceCountry), schema.UnknownCountry),
		},
		RecipientArea: schema.Location{
			Name:        textOr(cell(FieldRecipientName), schema.UnknownDestination),
			Coordinates: NormalizeCoordinates(cell(FieldRecipientCoordinates)),
			Country:     textOr(cell(FieldRecipientCountry), schema.UnknownCountry),
		},
		Transport:      ParseTransport(cell(FieldTransport)),
		SpecialProject: ParseSpecialProject(cell(FieldSpecialProject)),
		AdditionalInfo: notes,
	}, nil
}
