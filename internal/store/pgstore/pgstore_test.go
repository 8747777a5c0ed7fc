package pgstore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/translocations/internal/schema"
)

func TestListQuery(t *testing.T) {
	table := pgx.Identifier{"translocations"}.Sanitize()

	tests := []struct {
		name     string
		filter   schema.Filter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "no filter",
			filter:  schema.Filter{},
			wantSQL: `SELECT doc FROM "translocations" ORDER BY seq`,
		},
		{
			name:     "year only",
			filter:   schema.Filter{Year: 2019},
			wantSQL:  `SELECT doc FROM "translocations" WHERE year = $1 ORDER BY seq`,
			wantArgs: []any{2019},
		},
		{
			name: "every field",
			filter: schema.Filter{
				Species:        schema.SpeciesBlackRhino,
				Year:           2017,
				Transport:      schema.TransportAir,
				SpecialProject: schema.SpecialProjectAfricanParks,
			},
			wantSQL:  `SELECT doc FROM "translocations" WHERE species = $1 AND year = $2 AND transport = $3 AND special_project = $4 ORDER BY seq`,
			wantArgs: []any{"Black Rhino", 2017, "Air", "African Parks"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := listQuery(table, tt.filter)
			if sql != tt.wantSQL {
				t.Errorf("sql = %q, want %q", sql, tt.wantSQL)
			}
			if diff := cmp.Diff(tt.wantArgs, args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRowValues(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := schema.Translocation{
		ID:              "id-1",
		ProjectTitle:    "Liwonde to Nkhotakota",
		Year:            2016,
		Species:         schema.SpeciesElephant,
		NumberOfAnimals: 366,
		Transport:       schema.TransportRoad,
		SpecialProject:  schema.SpecialProjectAfricanParks,
		CreatedAt:       created,
	}

	row, err := rowValues(rec)
	if err != nil {
		t.Fatal(err)
	}
	if len(row) != len(copyColumns) {
		t.Fatalf("row has %d values for %d columns", len(row), len(copyColumns))
	}

	want := []any{"id-1", "Elephant", 2016, "Road", "African Parks", 366, created}
	if diff := cmp.Diff(want, row[:7]); diff != "" {
		t.Errorf("promoted columns mismatch (-want +got):\n%s", diff)
	}

	var back schema.Translocation
	if err := json.Unmarshal(row[7].(json.RawMessage), &back); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(rec, back); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}

func TestNewSanitizesTable(t *testing.T) {
	s := New(nil, `odd"name`, 0)
	if s.table != `"odd""name"` {
		t.Errorf("table = %s", s.table)
	}
}
