// Package address canonicalizes San Francisco street addresses and assessor
// parcel identifiers so they can be matched against the open-data registries.
package address

import (
	"strings"
	"unicode"
)

// suffixes maps street-type spellings to the abbreviation used by the city
// datasets. Every abbreviation also maps to itself so that Normalize is a
// fixed point.
var suffixes = map[string]string{
	"STREET": "ST", "ST": "ST", "STR": "ST",
	"AVENUE": "AVE", "AVE": "AVE", "AV": "AVE",
	"ROAD": "RD", "RD": "RD",
	"BOULEVARD": "BLVD", "BLVD": "BLVD",
	"DRIVE": "DR", "DR": "DR",
	"WAY": "WAY",
	"LANE": "LN", "LN": "LN",
	"COURT": "CT", "CT": "CT",
	"PLACE": "PL", "PL": "PL",
	"TERRACE": "TER", "TER": "TER",
	"CIRCLE": "CIR", "CIR": "CIR",
	"ALLEY": "ALY", "ALY": "ALY",
	"PLAZA": "PLZ", "PLZ": "PLZ",
	"SQUARE": "SQ", "SQ": "SQ",
	"PARKWAY": "PKWY", "PKWY": "PKWY",
	"HIGHWAY": "HWY", "HWY": "HWY",
	"CENTER": "CTR", "CTR": "CTR",
	"CRESCENT": "CRES", "CRES": "CRES",
	"LOOP": "LOOP",
	"TRAIL": "TRL", "TRL": "TRL",
	"PIER": "PIER",
	"HILL": "HL", "HL": "HL",
	"VIEW": "VW", "VW": "VW",
	"WALK": "WALK",
	"ROW": "ROW",
	"EXPRESSWAY": "EXPY", "EXPY": "EXPY",
	"FREEWAY": "FWY", "FWY": "FWY",
}

func isTrailing(r rune) bool {
	return unicode.IsSpace(r) || r == '.' || r == ',' || r == ';'
}

// Normalize returns the canonical form of a free-text address: trailing
// punctuation removed, upper-cased, whitespace collapsed and the street
// suffix abbreviated.
//
//	Normalize("123 Main Street.") == "123 MAIN ST"
func Normalize(addr string) string {
	if addr == "" {
		return addr
	}
	parts := strings.Fields(strings.ToUpper(strings.TrimRightFunc(addr, isTrailing)))
	if len(parts) >= 2 {
		if abbr, ok := suffixes[parts[len(parts)-1]]; ok {
			parts[len(parts)-1] = abbr
		}
	}
	return strings.Join(parts, " ")
}

// IsSuffix reports whether tok is a canonical street-type abbreviation.
func IsSuffix(tok string) bool {
	abbr, ok := suffixes[tok]
	return ok && abbr == tok
}
