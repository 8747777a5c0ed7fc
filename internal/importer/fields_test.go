package importer

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var fullHeaders = []string{
	"Project Title", "Year", "Species", "Number",
	"Source Area: Name", "Source Area: Co-Ordinates", "Source Area: Country",
	"Recipient Area: Name", "Recipient Area: Co-Ordinates", "Recipient Area: Country",
	"Transport", "Special Project", "Additional Info",
}

func TestResolve_FullLayout(t *testing.T) {
	cols, err := Resolve(fullHeaders)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := Columns{
		FieldProjectTitle:         0,
		FieldYear:                 1,
		FieldSpecies:              2,
		FieldNumberOfAnimals:      3,
		FieldSourceName:           4,
		FieldSourceCoordinates:    5,
		FieldSourceCountry:        6,
		FieldRecipientName:        7,
		FieldRecipientCoordinates: 8,
		FieldRecipientCountry:     9,
		FieldTransport:            10,
		FieldSpecialProject:       11,
		FieldAdditionalInfo:       12,
	}
	if diff := cmp.Diff(want, cols); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_AlternateNames(t *testing.T) {
	headers := []string{"Name", "Date", "Animal", "Animal Count", "Origin", "Destination", "Method", "Notes"}

	cols, err := Resolve(headers)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	tests := []struct {
		field Field
		want  int
	}{
		{FieldProjectTitle, 0},
		{FieldYear, 1},
		{FieldSpecies, 2},
		{FieldNumberOfAnimals, 3},
		{FieldSourceName, 4},
		{FieldRecipientName, 5},
		{FieldTransport, 6},
		{FieldAdditionalInfo, 7},
		{FieldSourceCoordinates, -1},
		{FieldRecipientCountry, -1},
		{FieldSpecialProject, -1},
	}
	for _, tt := range tests {
		if got := cols.Index(tt.field); got != tt.want {
			t.Errorf("Index(%s) = %d, want %d", tt.field, got, tt.want)
		}
	}
}

func TestResolve_PatternOrderBeatsColumnOrder(t *testing.T) {
	// "project title" is tried before "project", so the later column wins.
	headers := []string{"Special Project", "Project Title", "Year", "Species", "Count"}

	cols, err := Resolve(headers)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := cols.Index(FieldProjectTitle); got != 1 {
		t.Errorf("project title column = %d, want 1", got)
	}
	if got := cols.Index(FieldSpecialProject); got != 0 {
		t.Errorf("special project column = %d, want 0", got)
	}
}

func TestResolve_MissingRequired(t *testing.T) {
	headers := []string{"Title", "Species", "Transport"}

	_, err := Resolve(headers)

	var mce *MissingColumnsError
	if !errors.As(err, &mce) {
		t.Fatalf("Resolve() error = %v, want *MissingColumnsError", err)
	}
	if diff := cmp.Diff([]string{"year", "number of animals"}, mce.Missing); diff != "" {
		t.Errorf("Missing mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(headers, mce.Available); diff != "" {
		t.Errorf("Available mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Source Area: Co-Ordinates", "source area coordinates"},
		{"  Recipient_Area  Country ", "recipient area country"},
		{"Number of Animals", "number of animals"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := normalizeHeader(tt.in); got != tt.want {
			t.Errorf("normalizeHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestColumnsMapping(t *testing.T) {
	cols := Columns{FieldYear: 1, FieldSpecies: 0}
	got := cols.Mapping([]string{"Kind", "When"})
	want := map[string]string{"year": "When", "species": "Kind"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Mapping mismatch (-want +got):\n%s", diff)
	}
}
