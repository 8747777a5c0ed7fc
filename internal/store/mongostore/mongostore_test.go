package mongostore

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/JonMunkholm/translocations/internal/schema"
)

func TestFilterDoc(t *testing.T) {
	tests := []struct {
		name   string
		filter schema.Filter
		want   bson.D
	}{
		{"empty", schema.Filter{}, bson.D{}},
		{"species", schema.Filter{Species: schema.SpeciesElephant}, bson.D{{Key: "species", Value: schema.SpeciesElephant}}},
		{
			name: "all fields in order",
			filter: schema.Filter{
				Species:        schema.SpeciesWhiteRhino,
				Year:           2022,
				Transport:      schema.TransportAir,
				SpecialProject: schema.SpecialProjectRhinoRewild,
			},
			want: bson.D{
				{Key: "species", Value: schema.SpeciesWhiteRhino},
				{Key: "year", Value: 2022},
				{Key: "transport", Value: schema.TransportAir},
				{Key: "special_project", Value: schema.SpecialProjectRhinoRewild},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, filterDoc(tt.filter)); diff != "" {
				t.Errorf("filterDoc mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDocumentShape(t *testing.T) {
	rec := schema.Translocation{
		ID:              "abc",
		ProjectTitle:    "Zinave",
		Year:            2022,
		Species:         schema.SpeciesWhiteRhino,
		NumberOfAnimals: 40,
		SourceArea:      schema.Location{Name: "Hluhluwe", Coordinates: "-28.062, 32.162", Country: "South Africa"},
		Transport:       schema.TransportRoad,
	}

	raw, err := bson.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	for _, key := range []string{"id", "project_title", "number_of_animals", "source_area", "special_project", "created_at"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("document missing %q: %v", key, doc)
		}
	}
	if src, ok := doc["source_area"].(bson.M); !ok || src["coordinates"] != "-28.062, 32.162" {
		t.Errorf("source_area = %v", doc["source_area"])
	}
}

func TestStatsPipelineGroupsBySpecies(t *testing.T) {
	p := statsPipeline()
	if len(p) != 1 || p[0][0].Key != "$group" {
		t.Fatalf("pipeline = %v", p)
	}
	group := p[0][0].Value.(bson.D)
	if group[0].Key != "_id" || group[0].Value != "$species" {
		t.Errorf("group key = %v", group[0])
	}
}
