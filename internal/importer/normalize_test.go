package importer

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JonMunkholm/translocations/internal/schema"
)

const fullHeaderLine = "Project Title,Year,Species,Number,Source Area: Name,Source Area: Co-Ordinates,Source Area: Country," +
	"Recipient Area: Name,Recipient Area: Co-Ordinates,Recipient Area: Country,Transport,Special Project,Additional Info\n"

func mustParseCSV(t *testing.T, content string) *Table {
	t.Helper()
	table, err := Parse("upload.csv", []byte(content))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return table
}

func TestNormalize_FiveRowScenario(t *testing.T) {
	content := fullHeaderLine +
		`500 Elephants,2016,Elephant,366,Liwonde National Park,"-14.843917, 35.346718",Malawi,Nkhotakota National Park,"-12.798572, 34.01148",Malawi,Road,African Parks,` + "\n" +
		`Akagera Black Rhino,2017,Black Rhino,18,Thaba Tholo,"-24.528, 27.865",South Africa,Akagera National Park,"-1.879, 30.796",Rwanda,Air,African Parks,Plane: C130` + "\n" +
		`Broken Row,2019,White Rhino,many,Somewhere,not a coordinate,South Africa,Elsewhere,"1, 2, 3",South Africa,Road,,` + "\n" +
		`Kasungu Plains Game,2022-2023,Mixed,423,Liwonde National Park,"-14.844, 35.347",Malawi,Kasungu National Park,way off,Malawi,Road,African Parks,"Buffalo (84); Impala (127)"` + "\n" +
		`Zinave White Rhino,2022,White Rhino,40,Hluhluwe Game Reserve,"-28.062, 32.162",South Africa,Zinave National Park,"-21.879, 33.550",Mozambique,Road,Peace Parks,` + "\n"

	batch, err := Normalize(mustParseCSV(t, content), Options{FallbackYear: 2024})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	records := batch.Records()
	if len(records) != 4 {
		t.Fatalf("records = %d, want 4", len(records))
	}

	errs := batch.Errors()
	if len(errs) != 1 {
		t.Fatalf("row errors = %d, want 1", len(errs))
	}
	if errs[0].Row != 3 || !strings.HasPrefix(errs[0].Error(), "Row 3: ") {
		t.Errorf("row error = %q, want it to reference row 3", errs[0].Error())
	}
	if !errors.Is(errs[0], ErrInvalidCount) {
		t.Errorf("row error should wrap ErrInvalidCount: %v", errs[0])
	}

	for _, r := range records {
		for _, c := range []string{r.SourceArea.Coordinates, r.RecipientArea.Coordinates} {
			if !ValidCoordinates(c) {
				t.Errorf("%s: invalid coordinates %q", r.ProjectTitle, c)
			}
		}
	}

	plains := records[2]
	if plains.Year != 2022 {
		t.Errorf("plains game year = %d, want 2022", plains.Year)
	}
	if plains.Species != schema.SpeciesPlainsGame {
		t.Errorf("plains game species = %q, want %q", plains.Species, schema.SpeciesPlainsGame)
	}
	if plains.RecipientArea.Coordinates != schema.UnknownCoordinates {
		t.Errorf("bad recipient coordinates = %q, want %q", plains.RecipientArea.Coordinates, schema.UnknownCoordinates)
	}

	want := schema.Translocation{
		ProjectTitle:    "Akagera Black Rhino",
		Year:            2017,
		Species:         schema.SpeciesBlackRhino,
		NumberOfAnimals: 18,
		SourceArea:      schema.Location{Name: "Thaba Tholo", Coordinates: "-24.528, 27.865", Country: "South Africa"},
		RecipientArea:   schema.Location{Name: "Akagera National Park", Coordinates: "-1.879, 30.796", Country: "Rwanda"},
		Transport:       schema.TransportAir,
		SpecialProject:  schema.SpecialProjectAfricanParks,
		AdditionalInfo:  "Plane: C130",
	}
	if diff := cmp.Diff(want, records[1]); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_AnimalCountHeader(t *testing.T) {
	content := "Project,Year,Species,Animal Count\n" +
		"A,2018,Elephant,29\n" +
		"B,2019,Black Rhino,9 rhino\n" +
		"C,2020,White Rhino,\"1,500\"\n"

	batch, err := Normalize(mustParseCSV(t, content), Options{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got := batch.Columns.Index(FieldNumberOfAnimals); got != 3 {
		t.Fatalf("count column = %d, want 3", got)
	}

	var counts []int
	for _, r := range batch.Records() {
		counts = append(counts, r.NumberOfAnimals)
	}
	// The first digit run is kept, so a thousands separator truncates.
	if diff := cmp.Diff([]int{29, 9, 1}, counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalize_DefaultsAndEmptyRows(t *testing.T) {
	content := "Title,Year,Species,Number\n" +
		",,,\n" +
		",unknown,Lion,\n"

	batch, err := Normalize(mustParseCSV(t, content), Options{FallbackYear: 2001})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if batch.TotalRows != 2 {
		t.Errorf("TotalRows = %d, want 2", batch.TotalRows)
	}
	if len(batch.Results) != 1 {
		t.Fatalf("results = %d, want 1 (empty row skipped)", len(batch.Results))
	}

	want := schema.Translocation{
		ProjectTitle:    "Project 2",
		Year:            2001,
		Species:         schema.SpeciesOther,
		NumberOfAnimals: 1,
		SourceArea:      schema.Location{Name: schema.UnknownSource, Coordinates: schema.UnknownCoordinates, Country: schema.UnknownCountry},
		RecipientArea:   schema.Location{Name: schema.UnknownDestination, Coordinates: schema.UnknownCoordinates, Country: schema.UnknownCountry},
		Transport:       schema.TransportRoad,
		SpecialProject:  schema.SpecialProjectNone,
	}
	if diff := cmp.Diff(want, *batch.Results[0].Record); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	if batch.Results[0].Row != 2 {
		t.Errorf("Row = %d, want 2", batch.Results[0].Row)
	}
}

func TestNormalize_DefaultFallbackYear(t *testing.T) {
	batch, err := Normalize(mustParseCSV(t, "Title,Year,Species,Number\nX,,Elephant,2\n"), Options{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if got := batch.Records()[0].Year; got != DefaultFallbackYear {
		t.Errorf("Year = %d, want %d", got, DefaultFallbackYear)
	}
}

func TestNormalize_MissingColumnsAbort(t *testing.T) {
	_, err := Normalize(mustParseCSV(t, "Title,Species\nX,Elephant\n"), Options{})

	var mce *MissingColumnsError
	if !errors.As(err, &mce) {
		t.Fatalf("Normalize() error = %v, want *MissingColumnsError", err)
	}
}

func TestNormalize_RowIsolation(t *testing.T) {
	var b strings.Builder
	b.WriteString("Title,Year,Species,Number,Source Coordinates\n")
	for i := 1; i <= 6; i++ {
		count := "5"
		if i == 2 || i == 5 {
			count = "none"
		}
		b.WriteString("T" + string(rune('0'+i)) + ",2020,Elephant," + count + ",\"-10, 30\"\n")
	}

	batch, err := Normalize(mustParseCSV(t, b.String()), Options{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	var titles []string
	for _, r := range batch.Records() {
		titles = append(titles, r.ProjectTitle)
		if r.NumberOfAnimals != 5 || r.SourceArea.Coordinates != "-10.0, 30.0" {
			t.Errorf("%s corrupted: %+v", r.ProjectTitle, r)
		}
	}
	if diff := cmp.Diff([]string{"T1", "T3", "T4", "T6"}, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}

	var rows []int
	for _, e := range batch.Errors() {
		rows = append(rows, e.Row)
	}
	if diff := cmp.Diff([]int{2, 5}, rows); diff != "" {
		t.Errorf("error rows mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	var b strings.Builder
	b.WriteString("Title,Year,Species,Number\n")
	b.WriteString("A,2020,Elephant,3\nB,2020,Elephant,4\nC,2020,Lion,1\n")
	for i := 0; i < 12; i++ {
		b.WriteString("Bad,2020,Elephant,zero\n")
	}

	batch, err := Normalize(mustParseCSV(t, b.String()), Options{})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	s := Summarize("moves.csv", batch, 10, false)

	if s.TotalRowsProcessed != 15 {
		t.Errorf("TotalRowsProcessed = %d, want 15", s.TotalRowsProcessed)
	}
	if s.SuccessfulImports != 3 {
		t.Errorf("SuccessfulImports = %d, want 3", s.SuccessfulImports)
	}
	if len(s.Errors) != 10 || s.ErrorCount != 12 {
		t.Errorf("errors shown=%d count=%d, want 10 and 12", len(s.Errors), s.ErrorCount)
	}
	if s.Errors[0] != `Row 4: invalid number of animals: "zero" contains no digits` {
		t.Errorf("first error = %q", s.Errors[0])
	}
	wantSpecies := map[schema.Species]int{schema.SpeciesElephant: 2, schema.SpeciesOther: 1}
	if diff := cmp.Diff(wantSpecies, s.SpeciesSummary); diff != "" {
		t.Errorf("species summary mismatch (-want +got):\n%s", diff)
	}
	wantMsg := "Successfully imported 3 translocations from moves.csv. 12 rows had errors and were skipped."
	if s.Message != wantMsg {
		t.Errorf("Message = %q, want %q", s.Message, wantMsg)
	}
	if s.Columns["year"] != "Year" {
		t.Errorf("Columns[year] = %q, want Year", s.Columns["year"])
	}

	dry := Summarize("moves.csv", batch, -1, true)
	if len(dry.Errors) != 12 || !dry.DryRun || !strings.HasPrefix(dry.Message, "Successfully parsed 3") {
		t.Errorf("dry run summary = %+v", dry)
	}
}
