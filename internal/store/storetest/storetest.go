// Package storetest is the behavior suite every core.Store backend must pass.
// memstore runs it in the normal test run; pgstore and mongostore run it
// under the integration build tag against a live database.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/JonMunkholm/translocations/internal/core"
	"github.com/JonMunkholm/translocations/internal/schema"
)

// Opener returns an empty store for one subtest. It should register any
// cleanup with t.Cleanup.
type Opener func(t *testing.T) core.Store

// Record returns a fully populated record with a fixed creation time.
func Record(id string, species schema.Species, n int) schema.Translocation {
	return schema.Translocation{
		ID:              id,
		ProjectTitle:    "Project " + id,
		Year:            2020,
		Species:         species,
		NumberOfAnimals: n,
		SourceArea: schema.Location{
			Name:        "Kruger",
			Coordinates: "-24.0117, 31.4853",
			Country:     "South Africa",
		},
		RecipientArea: schema.Location{
			Name:        "Liwonde",
			Coordinates: "-14.8439, 35.3467",
			Country:     "Malawi",
		},
		Transport:      schema.TransportRoad,
		AdditionalInfo: "notes " + id,
		CreatedAt:      time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
	}
}

var equateEmpty = cmpopts.EquateEmpty()

// Run executes the suite. Each subtest gets a fresh store from open.
func Run(t *testing.T, open Opener) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s core.Store)
	}{
		{"create and list", testCreateAndList},
		{"update merges input", testUpdate},
		{"missing id", testNotFound},
		{"stats", testStats},
		{"replace all", testReplaceAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

func mustCreate(t *testing.T, s core.Store, recs ...schema.Translocation) {
	t.Helper()
	for _, r := range recs {
		if err := s.Create(context.Background(), r); err != nil {
			t.Fatalf("Create(%s): %v", r.ID, err)
		}
	}
}

func mustList(t *testing.T, s core.Store, f schema.Filter) []schema.Translocation {
	t.Helper()
	got, err := s.List(context.Background(), f)
	if err != nil {
		t.Fatalf("List(%+v): %v", f, err)
	}
	return got
}

func ids(recs []schema.Translocation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func testCreateAndList(t *testing.T, s core.Store) {
	air := Record("b", schema.SpeciesBlackRhino, 5)
	air.Transport = schema.TransportAir
	air.SpecialProject = schema.SpecialProjectAfricanParks
	all := []schema.Translocation{Record("a", schema.SpeciesElephant, 1), air, Record("c", schema.SpeciesElephant, 2)}
	mustCreate(t, s, all...)

	if err := s.Create(context.Background(), Record("a", schema.SpeciesOther, 1)); err == nil {
		t.Error("Create with duplicate id should fail")
	}

	if diff := cmp.Diff(all, mustList(t, s, schema.Filter{})); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}

	filters := []struct {
		name   string
		filter schema.Filter
		want   []string
	}{
		{"species", schema.Filter{Species: schema.SpeciesElephant}, []string{"a", "c"}},
		{"transport", schema.Filter{Transport: schema.TransportAir}, []string{"b"}},
		{"special project", schema.Filter{SpecialProject: schema.SpecialProjectAfricanParks}, []string{"b"}},
		{"year", schema.Filter{Year: 2020}, []string{"a", "b", "c"}},
		{"no match", schema.Filter{Year: 1999}, nil},
	}
	for _, f := range filters {
		if diff := cmp.Diff(f.want, ids(mustList(t, s, f.filter)), equateEmpty); diff != "" {
			t.Errorf("%s: List ids mismatch (-want +got):\n%s", f.name, diff)
		}
	}
}

func testUpdate(t *testing.T, s core.Store) {
	orig := Record("a", schema.SpeciesElephant, 10)
	mustCreate(t, s, orig, Record("b", schema.SpeciesElephant, 4))

	in := orig.Input()
	in.Species = schema.SpeciesWhiteRhino
	in.NumberOfAnimals = 3
	in.Transport = schema.TransportAir
	in.SpecialProject = schema.SpecialProjectRhinoRewild
	in.RecipientArea = schema.Location{Name: "Akagera", Coordinates: "-1.879, 30.796", Country: "Rwanda"}
	in.AdditionalInfo = ""

	got, err := s.Update(context.Background(), "a", in)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := orig
	in.Apply(&want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Update result mismatch (-want +got):\n%s", diff)
	}

	// Promoted filter fields must follow the update.
	byRhino := mustList(t, s, schema.Filter{Species: schema.SpeciesWhiteRhino, Transport: schema.TransportAir})
	if diff := cmp.Diff([]schema.Translocation{want}, byRhino); diff != "" {
		t.Errorf("List after update mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b"}, ids(mustList(t, s, schema.Filter{Species: schema.SpeciesElephant}))); diff != "" {
		t.Errorf("old species still matches (-want +got):\n%s", diff)
	}
}

func testNotFound(t *testing.T, s core.Store) {
	ctx := context.Background()
	mustCreate(t, s, Record("a", schema.SpeciesElephant, 1))

	if _, err := s.Update(ctx, "missing", Record("x", schema.SpeciesOther, 1).Input()); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Update missing error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete missing error = %v, want ErrNotFound", err)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
	if _, err := s.Update(ctx, "a", Record("a", schema.SpeciesOther, 1).Input()); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Update after delete error = %v, want ErrNotFound", err)
	}
	if got := mustList(t, s, schema.Filter{}); len(got) != 0 {
		t.Errorf("List after delete = %v, want empty", ids(got))
	}
}

func testStats(t *testing.T, s core.Store) {
	ctx := context.Background()

	empty, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats on empty store: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Stats on empty store = %v, want empty", empty)
	}

	mustCreate(t, s,
		Record("a", schema.SpeciesElephant, 10),
		Record("b", schema.SpeciesElephant, 5),
		Record("c", schema.SpeciesBlackRhino, 2),
	)

	got, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := schema.Stats{
		schema.SpeciesElephant:   {TotalAnimals: 15, TotalTranslocations: 2},
		schema.SpeciesBlackRhino: {TotalAnimals: 2, TotalTranslocations: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}
}

func testReplaceAll(t *testing.T, s core.Store) {
	ctx := context.Background()
	mustCreate(t, s, Record("old", schema.SpeciesOther, 7))

	next := []schema.Translocation{
		Record("n1", schema.SpeciesWhiteRhino, 4),
		Record("n2", schema.SpeciesPlainsGame, 40),
	}
	if err := s.ReplaceAll(ctx, next); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if diff := cmp.Diff(next, mustList(t, s, schema.Filter{})); diff != "" {
		t.Errorf("List after ReplaceAll mismatch (-want +got):\n%s", diff)
	}
	if _, err := s.Update(ctx, "old", Record("old", schema.SpeciesOther, 1).Input()); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Update of replaced record error = %v, want ErrNotFound", err)
	}

	if err := s.ReplaceAll(ctx, nil); err != nil {
		t.Fatalf("ReplaceAll(nil): %v", err)
	}
	if got := mustList(t, s, schema.Filter{}); len(got) != 0 {
		t.Errorf("List after empty ReplaceAll = %v, want empty", ids(got))
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("Stats after empty ReplaceAll = %v, want empty", stats)
	}
}
