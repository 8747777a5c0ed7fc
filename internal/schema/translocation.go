// Package schema defines the translocation record and its closed
// enumerations as they travel over JSON and into the stores.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Placeholders written when an import row leaves a location field blank.
const (
	UnknownSource      = "Unknown Source"
	UnknownDestination = "Unknown Destination"
	UnknownCountry     = "Unknown"
	UnknownCoordinates = "0, 0"
)

// Species is the closed set of animal categories.
type Species string

const (
	SpeciesElephant   Species = "Elephant"
	SpeciesBlackRhino Species = "Black Rhino"
	SpeciesWhiteRhino Species = "White Rhino"
	SpeciesPlainsGame Species = "Plains Game Species"
	SpeciesOther      Species = "Other"
)

// AllSpecies lists every species in display order.
var AllSpecies = []Species{
	SpeciesElephant,
	SpeciesBlackRhino,
	SpeciesWhiteRhino,
	SpeciesPlainsGame,
	SpeciesOther,
}

// Valid reports whether s is one of the enumerated species.
func (s Species) Valid() bool {
	for _, v := range AllSpecies {
		if s == v {
			return true
		}
	}
	return false
}

func (s *Species) UnmarshalJSON(b []byte) error {
	v, err := unmarshalEnum(b, "species", func(raw string) bool { return Species(raw).Valid() })
	if err != nil {
		return err
	}
	*s = Species(v)
	return nil
}

// ParseSpecies accepts a wire value; matching ignores case.
func ParseSpecies(raw string) (Species, error) {
	for _, v := range AllSpecies {
		if strings.EqualFold(string(v), strings.TrimSpace(raw)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown species %q", raw)
}

// Transport is how the animals were moved.
type Transport string

const (
	TransportRoad Transport = "Road"
	TransportAir  Transport = "Air"
)

func (t Transport) Valid() bool {
	return t == TransportRoad || t == TransportAir
}

func (t *Transport) UnmarshalJSON(b []byte) error {
	v, err := unmarshalEnum(b, "transport", func(raw string) bool { return Transport(raw).Valid() })
	if err != nil {
		return err
	}
	*t = Transport(v)
	return nil
}

// ParseTransport accepts a wire value; matching ignores case.
func ParseTransport(raw string) (Transport, error) {
	for _, v := range []Transport{TransportRoad, TransportAir} {
		if strings.EqualFold(string(v), strings.TrimSpace(raw)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown transport %q", raw)
}

// SpecialProject is an optional named conservation initiative. The empty
// value means the translocation belongs to none.
type SpecialProject string

const (
	SpecialProjectNone         SpecialProject = ""
	SpecialProjectPeaceParks   SpecialProject = "Peace Parks"
	SpecialProjectAfricanParks SpecialProject = "African Parks"
	SpecialProjectRhinoRewild  SpecialProject = "Rhino Rewild"
)

// AllSpecialProjects lists the named initiatives, excluding none.
var AllSpecialProjects = []SpecialProject{
	SpecialProjectPeaceParks,
	SpecialProjectAfricanParks,
	SpecialProjectRhinoRewild,
}

func (p SpecialProject) Valid() bool {
	if p == SpecialProjectNone {
		return true
	}
	for _, v := range AllSpecialProjects {
		if p == v {
			return true
		}
	}
	return false
}

func (p *SpecialProject) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = SpecialProjectNone
		return nil
	}
	v, err := unmarshalEnum(b, "special_project", func(raw string) bool { return SpecialProject(raw).Valid() })
	if err != nil {
		return err
	}
	*p = SpecialProject(v)
	return nil
}

// ParseSpecialProject accepts a wire value; matching ignores case and the
// empty string maps to none.
func ParseSpecialProject(raw string) (SpecialProject, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SpecialProjectNone, nil
	}
	for _, v := range AllSpecialProjects {
		if strings.EqualFold(string(v), raw) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown special project %q", raw)
}

func unmarshalEnum(b []byte, field string, valid func(string) bool) (string, error) {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return "", fmt.Errorf("%s must be a string: %w", field, err)
	}
	if !valid(raw) {
		return "", fmt.Errorf("%s %q is not an accepted value", field, raw)
	}
	return raw, nil
}

// Location is one end of a translocation. Coordinates is a formatted
// "lat, lng" string, or UnknownCoordinates.
type Location struct {
	Name        string `json:"name" bson:"name"`
	Coordinates string `json:"coordinates" bson:"coordinates"`
	Country     string `json:"country" bson:"country"`
}

// Translocation is one movement of animals between two areas.
type Translocation struct {
	ID              string         `json:"id" bson:"id"`
	ProjectTitle    string         `json:"project_title" bson:"project_title"`
	Year            int            `json:"year" bson:"year"`
	Species         Species        `json:"species" bson:"species"`
	NumberOfAnimals int            `json:"number_of_animals" bson:"number_of_animals"`
	SourceArea      Location       `json:"source_area" bson:"source_area"`
	RecipientArea   Location       `json:"recipient_area" bson:"recipient_area"`
	Transport       Transport      `json:"transport" bson:"transport"`
	SpecialProject  SpecialProject `json:"special_project" bson:"special_project"`
	AdditionalInfo  string         `json:"additional_info" bson:"additional_info"`
	CreatedAt       time.Time      `json:"created_at" bson:"created_at"`
}

// TranslocationInput carries the user-editable fields of a record, as sent
// to create and update.
type TranslocationInput struct {
	ProjectTitle    string         `json:"project_title" bson:"project_title"`
	Year            int            `json:"year" bson:"year"`
	Species         Species        `json:"species" bson:"species"`
	NumberOfAnimals int            `json:"number_of_animals" bson:"number_of_animals"`
	SourceArea      Location       `json:"source_area" bson:"source_area"`
	RecipientArea   Location       `json:"recipient_area" bson:"recipient_area"`
	Transport       Transport      `json:"transport" bson:"transport"`
	SpecialProject  SpecialProject `json:"special_project" bson:"special_project"`
	AdditionalInfo  string         `json:"additional_info" bson:"additional_info"`
}

// Apply copies the input fields onto rec, leaving ID and CreatedAt alone.
func (in TranslocationInput) Apply(rec *Translocation) {
	rec.ProjectTitle = in.ProjectTitle
	rec.Year = in.Year
	rec.Species = in.Species
	rec.NumberOfAnimals = in.NumberOfAnimals
	rec.SourceArea = in.SourceArea
	rec.RecipientArea = in.RecipientArea
	rec.Transport = in.Transport
	rec.SpecialProject = in.SpecialProject
	rec.AdditionalInfo = in.AdditionalInfo
}

// Input returns the user-editable fields of rec.
func (t Translocation) Input() TranslocationInput {
	return TranslocationInput{
		ProjectTitle:    t.ProjectTitle,
		Year:            t.Year,
		Species:         t.Species,
		NumberOfAnimals: t.NumberOfAnimals,
		SourceArea:      t.SourceArea,
		RecipientArea:   t.RecipientArea,
		Transport:       t.Transport,
		SpecialProject:  t.SpecialProject,
		AdditionalInfo:  t.AdditionalInfo,
	}
}

// Filter narrows a listing. Zero-valued fields are not applied, so an
// empty SpecialProject matches every record.
type Filter struct {
	Species        Species
	Year           int
	Transport      Transport
	SpecialProject SpecialProject
}

// Matches reports whether t satisfies every set field of f.
func (f Filter) Matches(t Translocation) bool {
	if f.Species != "" && t.Species != f.Species {
		return false
	}
	if f.Year != 0 && t.Year != f.Year {
		return false
	}
	if f.Transport != "" && t.Transport != f.Transport {
		return false
	}
	if f.SpecialProject != SpecialProjectNone && t.SpecialProject != f.SpecialProject {
		return false
	}
	return true
}

// SpeciesStat is the per-species aggregate returned by stats.
type SpeciesStat struct {
	TotalAnimals        int `json:"total_animals" bson:"total_animals"`
	TotalTranslocations int `json:"total_translocations" bson:"total_translocations"`
}

// Stats maps each species present in the store to its aggregate.
type Stats map[Species]SpeciesStat
