package importer

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/translocations/internal/schema"
)

var (
	yearRegex   = regexp.MustCompile(`(20\d{2}|19\d{2})`)
	digitsRegex = regexp.MustCompile(`\d+`)
	numberRegex = regexp.MustCompile(`-?\d+\.?\d*`)
)

// plainsGameKeywords are looked for in the notes when the species cell is
// not conclusive.
var plainsGameKeywords = []string{
	"buffalo", "impala", "sable", "kudu", "warthog", "waterbuck",
	"eland", "zebra", "hartebeest", "reedbuck", "oryx",
}

// Coordinate bounds applied to both source and recipient areas.
const (
	minLatitude  = -90
	maxLatitude  = 90
	minLongitude = -180
	maxLongitude = 180
)

// ErrInvalidCount is wrapped by ParseAnimalCount failures.
var ErrInvalidCount = errors.New("invalid number of animals")

// ParseYear returns the first 19xx or 20xx run in raw, so "2022-2023" and
// "2022 & 2023" both give 2022. fallback is used when nothing matches.
func ParseYear(raw string, fallback int) int {
	m := yearRegex.FindString(raw)
	if m == "" {
		return fallback
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return fallback
	}
	return y
}

// CategorizeSpecies maps free-text species and notes onto the closed
// species set. The result is always one of schema.AllSpecies.
func CategorizeSpecies(raw, notes string) schema.Species {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "elephant"):
		return schema.SpeciesElephant
	case strings.Contains(s, "black rhino"), strings.Contains(s, "black-rhino"):
		return schema.SpeciesBlackRhino
	case strings.Contains(s, "white rhino"), strings.Contains(s, "white-rhino"):
		return schema.SpeciesWhiteRhino
	case strings.Contains(s, "plains"), strings.Contains(s, "multiple"), strings.Contains(s, "game"):
		return schema.SpeciesPlainsGame
	}

	if isPlainsGameList(notes) {
		return schema.SpeciesPlainsGame
	}
	return schema.SpeciesOther
}

// isPlainsGameList reports whether notes name two or more plains game
// species, or name one inside a ';' or ',' separated list.
func isPlainsGameList(notes string) bool {
	n := strings.ToLower(notes)
	found := 0
	for _, kw := range plainsGameKeywords {
		if strings.Contains(n, kw) {
			found++
		}
	}
	if found >= 2 {
		return true
	}
	return found == 1 && strings.ContainsAny(n, ";,")
}

// ParseAnimalCount returns the first run of digits in raw. A blank cell
// gives 1. A non-blank cell without digits, or a count of zero, is an error.
func ParseAnimalCount(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1, nil
	}

	m := digitsRegex.FindString(raw)
	if m == "" {
		return 0, fmt.Errorf("%w: %q contains no digits", ErrInvalidCount, raw)
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidCount, raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %q must be at least 1", ErrInvalidCount, raw)
	}
	return n, nil
}

// NormalizeCoordinates turns a coordinate cell into "lat, lng". Quote and
// degree marks are stripped. A value with a comma must split into exactly
// two numbers; otherwise the first two numbers found are used. Anything
// unparseable or out of range gives schema.UnknownCoordinates.
func NormalizeCoordinates(raw string) string {
	lat, lng, ok := parseCoordinates(raw)
	if !ok {
		return schema.UnknownCoordinates
	}
	return formatCoordinate(lat) + ", " + formatCoordinate(lng)
}

func parseCoordinates(raw string) (lat, lng float64, ok bool) {
	s := strings.NewReplacer(`"`, "", "'", "", "°", "", "“", "", "”", "").Replace(raw)
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, false
	}

	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 2 {
			return 0, 0, false
		}
		var err1, err2 error
		lat, err1 = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lng, err2 = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
	} else {
		nums := numberRegex.FindAllString(s, 2)
		if len(nums) < 2 {
			return 0, 0, false
		}
		var err1, err2 error
		lat, err1 = strconv.ParseFloat(nums[0], 64)
		lng, err2 = strconv.ParseFloat(nums[1], 64)
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
	}

	if math.IsNaN(lat) || math.IsNaN(lng) {
		return 0, 0, false
	}
	if lat < minLatitude || lat > maxLatitude || lng < minLongitude || lng > maxLongitude {
		return 0, 0, false
	}
	return lat, lng, true
}

// formatCoordinate prints the shortest form that round-trips f, so trailing
// zeros are dropped ("-25.019400" becomes "-25.0194"), and always shows a
// decimal point, so 35 prints as "35.0".
func formatCoordinate(f float64) string {
	if f == 0 {
		f = 0 // drop negative zero
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ValidCoordinates reports whether s is a formatted pair within bounds or
// the unknown marker.
func ValidCoordinates(s string) bool {
	if s == schema.UnknownCoordinates {
		return true
	}
	parts := strings.Split(s, ", ")
	if len(parts) != 2 {
		return false
	}
	lat, err1 := strconv.ParseFloat(parts[0], 64)
	lng, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return false
	}
	return lat >= minLatitude && lat <= maxLatitude && lng >= minLongitude && lng <= maxLongitude
}

// ParseTransport maps free text to Air when it mentions air, plane or fly.
func ParseTransport(raw string) schema.Transport {
	s := strings.ToLower(raw)
	if strings.Contains(s, "air") || strings.Contains(s, "plane") || strings.Contains(s, "fly") {
		return schema.TransportAir
	}
	return schema.TransportRoad
}

// ParseSpecialProject recognizes the named initiatives by substring.
func ParseSpecialProject(raw string) schema.SpecialProject {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "african parks"):
		return schema.SpecialProjectAfricanParks
	case strings.Contains(s, "peace parks"):
		return schema.SpecialProjectPeaceParks
	case strings.Contains(s, "rhino rewild"):
		return schema.SpecialProjectRhinoRewild
	default:
		return schema.SpecialProjectNone
	}
}

// CleanNotes trims notes and blanks spreadsheet null markers.
func CleanNotes(raw string) string {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "nan", "none", "null":
		return ""
	}
	return s
}

// textOr returns the trimmed value, or fallback when it is blank.
func textOr(raw, fallback string) string {
	if s := strings.TrimSpace(raw); s != "" {
		return s
	}
	return fallback
}
