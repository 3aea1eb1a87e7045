// Package phonefmt parses and formats phone numbers, including loose
// extraction of numbers embedded in free-form text.
package phonefmt

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrEmptyInput is returned when there is nothing to parse.
var ErrEmptyInput = errors.New("phonefmt: empty input")

// DefaultLang is the language used for carrier and location lookups
// when none is given.
const DefaultLang = "en"

// Formatted holds the common render styles of one number.
type Formatted struct {
	National      string `json:"national"`       // "020 8366 1177"
	International string `json:"international"`  // "+44 20 8366 1177"
	E164          string `json:"e164"`           // "+442083661177"
}

// Number is a parsed phone number with its lookup results.
type Number struct {
	Carrier     string    `json:"carrier"`
	Location    string    `json:"location"`
	CountryCode int       `json:"country_code"`
	National    uint64    `json:"national"`
	Extension   string    `json:"ext,omitempty"`
	Formatted   Formatted `json:"formatted"`
}

// candidatePattern matches runs of digits with the separators phone
// numbers are usually written with. Candidates still have to survive
// a full parse before they count.
var candidatePattern = regexp.MustCompile(`\+?[\d][\d\s().-]{6,}\d`)

// Parse parses one phone number. region is an ISO 3166-1 alpha-2 code
// ("GB", "US") used when the number has no leading +; it may be empty
// for fully qualified numbers. lang selects the language of carrier
// and location lookups, defaulting to English.
func Parse(phone, region, lang string) (*Number, error) {
	if strings.TrimSpace(phone) == "" {
		return nil, ErrEmptyInput
	}
	if lang == "" {
		lang = DefaultLang
	}

	parsed, err := phonenumbers.Parse(phone, strings.ToUpper(region))
	if err != nil {
		return nil, fmt.Errorf("phonefmt: parse %q: %w", phone, err)
	}

	carrier, err := phonenumbers.GetCarrierForNumber(parsed, strings.ToLower(lang))
	if err != nil {
		return nil, fmt.Errorf("phonefmt: carrier lookup for %q: %w", phone, err)
	}
	location, err := phonenumbers.GetGeocodingForNumber(parsed, strings.ToLower(lang))
	if err != nil {
		return nil, fmt.Errorf("phonefmt: geocoding lookup for %q: %w", phone, err)
	}

	return &Number{
		Carrier:     carrier,
		Location:    location,
		CountryCode: int(parsed.GetCountryCode()),
		National:    parsed.GetNationalNumber(),
		Extension:   parsed.GetExtension(),
		Formatted: Formatted{
			National:      phonenumbers.Format(parsed, phonenumbers.NATIONAL),
			International: phonenumbers.Format(parsed, phonenumbers.INTERNATIONAL),
			E164:          phonenumbers.Format(parsed, phonenumbers.E164),
		},
	}, nil
}

// FindInText extracts every parseable phone number from free-form
// text. Candidates that do not survive a full parse, or parse to an
// invalid number for the region, are skipped rather than failing the
// whole scan.
func FindInText(text, region, lang string) ([]*Number, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	var found []*Number
	for _, candidate := range candidatePattern.FindAllString(text, -1) {
		parsed, err := phonenumbers.Parse(candidate, strings.ToUpper(region))
		if err != nil || !phonenumbers.IsValidNumber(parsed) {
			continue
		}
		num, err := Parse(candidate, region, lang)
		if err != nil {
			continue
		}
		found = append(found, num)
	}
	return found, nil
}
