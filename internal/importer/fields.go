package importer

import (
	"fmt"
	"strings"
	"unicode"
)

// Field names one semantic column of the import.
type Field string

const (
	FieldProjectTitle         Field = "project_title"
	FieldYear                 Field = "year"
	FieldSpecies              Field = "species"
	FieldNumberOfAnimals      Field = "number_of_animals"
	FieldSourceName           Field = "source_name"
	FieldSourceCoordinates    Field = "source_coordinates"
	FieldSourceCountry        Field = "source_country"
	FieldRecipientName        Field = "recipient_name"
	FieldRecipientCoordinates Field = "recipient_coordinates"
	FieldRecipientCountry     Field = "recipient_country"
	FieldTransport            Field = "transport"
	FieldSpecialProject       Field = "special_project"
	FieldAdditionalInfo       Field = "additional_info"
)

// FieldSpec describes how a field is found among the headers.
type FieldSpec struct {
	Field    Field
	Label    string   // Human-readable name used in error messages
	Patterns []string // Candidate substrings, tried in order
	Required bool
}

// FieldSpecs is the canonical resolution table. Patterns are matched against
// normalized headers (see normalizeHeader), more specific patterns first.
var FieldSpecs = []FieldSpec{
	{Field: FieldProjectTitle, Label: "project title", Required: true,
		Patterns: []string{"project title", "project name", "title", "project", "name"}},
	{Field: FieldYear, Label: "year", Required: true,
		Patterns: []string{"year", "date"}},
	{Field: FieldSpecies, Label: "species", Required: true,
		Patterns: []string{"species", "animal"}},
	{Field: FieldNumberOfAnimals, Label: "number of animals", Required: true,
		Patterns: []string{"number", "count", "animals"}},
	{Field: FieldSourceName, Label: "source name",
		Patterns: []string{"source area name", "source name", "origin name", "source area", "source", "origin"}},
	{Field: FieldSourceCoordinates, Label: "source coordinates",
		Patterns: []string{"source area coord", "source coord", "origin coord", "source gps"}},
	{Field: FieldSourceCountry, Label: "source country",
		Patterns: []string{"source area country", "source country", "origin country"}},
	{Field: FieldRecipientName, Label: "recipient name",
		Patterns: []string{"recipient area name", "recipient name", "destination name", "recipient area", "recipient", "destination", "dest"}},
	{Field: FieldRecipientCoordinates, Label: "recipient coordinates",
		Patterns: []string{"recipient area coord", "recipient coord", "destination coord", "dest coord", "recipient gps"}},
	{Field: FieldRecipientCountry, Label: "recipient country",
		Patterns: []string{"recipient area country", "recipient country", "destination country", "dest country"}},
	{Field: FieldTransport, Label: "transport",
		Patterns: []string{"transport", "method"}},
	{Field: FieldSpecialProject, Label: "special project",
		Patterns: []string{"special", "project"}},
	{Field: FieldAdditionalInfo, Label: "additional info",
		Patterns: []string{"info", "additional", "notes", "comment"}},
}

// MissingColumnsError reports required fields that matched no header.
type MissingColumnsError struct {
	Missing   []string // Labels of the unresolved required fields
	Available []string // Every header in the file, in order
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s (available columns: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Available, ", "))
}

// Columns maps each resolved field to its column index.
type Columns map[Field]int

// Index returns the column for f, or -1 when f is unresolved.
func (c Columns) Index(f Field) int {
	if i, ok := c[f]; ok {
		return i
	}
	return -1
}

// Mapping returns field -> header label for the resolved fields.
func (c Columns) Mapping(headers []string) map[string]string {
	out := make(map[string]string, len(c))
	for f, i := range c {
		if i >= 0 && i < len(headers) {
			out[string(f)] = headers[i]
		}
	}
	return out
}

// Resolve maps every field in FieldSpecs onto the headers. For each field,
// patterns are tried in order and for each pattern the first header (left
// to right) containing it wins. Several fields may share one column.
func Resolve(headers []string) (Columns, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	cols := make(Columns, len(FieldSpecs))
	var missing []string

	for _, spec := range FieldSpecs {
		idx := findColumn(normalized, spec.Patterns)
		if idx < 0 {
			if spec.Required {
				missing = append(missing, spec.Label)
			}
			continue
		}
		cols[spec.Field] = idx
	}

	if len(missing) > 0 {
		available := make([]string, len(headers))
		copy(available, headers)
		return nil, &MissingColumnsError{Missing: missing, Available: available}
	}
	return cols, nil
}

func findColumn(headers []string, patterns []string) int {
	for _, p := range patterns {
		for i, h := range headers {
			if h != "" && strings.Contains(h, p) {
				return i
			}
		}
	}
	return -1
}

// normalizeHeader lower-cases a header, folds "co-ordinates" into
// "coordinates" and collapses punctuation to single spaces, so
// "Source Area: Co-Ordinates" becomes "source area coordinates".
func normalizeHeader(h string) string {
	h = strings.ToLower(h)
	h = strings.ReplaceAll(h, "co-ord", "coord")

	var b strings.Builder
	b.Grow(len(h))
	space := false
	for _, r := range h {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}
