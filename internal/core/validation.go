package core

// validation.go checks create and update payloads before they reach a store.
// Enum fields are already rejected at JSON decoding; this covers callers
// that build inputs directly and the numeric ranges.

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/translocations/internal/importer"
	"github.com/JonMunkholm/translocations/internal/schema"
)

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors is every problem found in one input. It unwraps to
// ErrInvalidRecord.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidRecord, strings.Join(msgs, "; "))
}

func (v ValidationErrors) Unwrap() error { return ErrInvalidRecord }

// ValidateInput reports every invalid field of in, or nil.
func ValidateInput(in schema.TranslocationInput) error {
	var errs ValidationErrors
	add := func(field, value, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if strings.TrimSpace(in.ProjectTitle) == "" {
		add("project_title", in.ProjectTitle, "required field is empty")
	}
	if in.Year < 1000 || in.Year > 9999 {
		add("year", fmt.Sprint(in.Year), "must be a four digit year")
	}
	if !in.Species.Valid() {
		add("species", string(in.Species), "invalid enum value")
	}
	if in.NumberOfAnimals < 1 {
		add("number_of_animals", fmt.Sprint(in.NumberOfAnimals), "must be at least 1")
	}
	if !in.Transport.Valid() {
		add("transport", string(in.Transport), "invalid enum value")
	}
	if !in.SpecialProject.Valid() {
		add("special_project", string(in.SpecialProject), "invalid enum value")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// normalizeInput applies the import coordinate rules and placeholders so API
// records obey the same invariants as imported ones.
func normalizeInput(in schema.TranslocationInput) schema.TranslocationInput {
	in.ProjectTitle = strings.TrimSpace(in.ProjectTitle)
	in.SourceArea = normalizeLocation(in.SourceArea, schema.UnknownSource)
	in.RecipientArea = normalizeLocation(in.RecipientArea, schema.UnknownDestination)
	in.AdditionalInfo = importer.CleanNotes(in.AdditionalInfo)
	return in
}

func normalizeLocation(loc schema.Location, unknownName string) schema.Location {
	loc.Coordinates = importer.NormalizeCoordinates(loc.Coordinates)
	if strings.TrimSpace(loc.Name) == "" {
		loc.Name = unknownName
	}
	if strings.TrimSpace(loc.Country) == "" {
		loc.Country = schema.UnknownCountry
	}
	return loc
}
