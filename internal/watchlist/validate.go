package watchlist

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxNameLength bounds record names, in runes.
	MaxNameLength = 200
	// MaxSeasonCount bounds the total season count.
	MaxSeasonCount = 1000
)

// NormalizeName trims name and converts it to Unicode NFC so visually equal
// names are stored identically.
func NormalizeName(name string) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return "", &ValidationError{Field: "name", Reason: "is required"}
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", &ValidationError{Field: "name", Reason: "must be at most " + strconv.Itoa(MaxNameLength) + " characters"}
	}
	return name, nil
}

// ParseSeasonCount parses user text as a positive whole number of seasons.
// Only ASCII digits are accepted; signs, spaces inside the number and
// exponents are rejected.
func ParseSeasonCount(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, &ValidationError{Field: "totalSeasonCount", Reason: "is required"}
	}
	// Atoi alone would accept "+5" and "-5".
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, &ValidationError{Field: "totalSeasonCount", Reason: "must be a whole number"}
		}
	}
	count, err := strconv.Atoi(value)
	if err != nil {
		// Only out-of-range digit strings get here.
		return 0, &ValidationError{Field: "totalSeasonCount", Reason: "must be at most " + strconv.Itoa(MaxSeasonCount)}
	}
	if err := checkSeasonCount(count); err != nil {
		return 0, err
	}
	return count, nil
}

func checkSeasonCount(count int) error {
	if count < 1 {
		return &ValidationError{Field: "totalSeasonCount", Reason: "must be at least 1"}
	}
	if count > MaxSeasonCount {
		return &ValidationError{Field: "totalSeasonCount", Reason: "must be at most " + strconv.Itoa(MaxSeasonCount)}
	}
	return nil
}

func normalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", &ValidationError{Field: "id", Reason: "is required"}
	}
	return id, nil
}
