package address

import (
	"net/url"
	"regexp"
	"strings"
)

// Street is the house number and street name of a normalized address, e.g.
// {"2989", "JACKSON ST"}.
type Street struct {
	Number string
	Name   string
}

func (s Street) String() string {
	return s.Number + " " + s.Name
}

// FirstWord is the first token of the street name ("VAN" for "VAN NESS AVE").
func (s Street) FirstWord() string {
	name, _, _ := strings.Cut(s.Name, " ")
	return name
}

// BaseName drops the trailing street type, so "JACKSON ST" becomes "JACKSON".
// Datasets that store the type in a separate column match on this.
func (s Street) BaseName() string {
	i := strings.LastIndexByte(s.Name, ' ')
	if i < 0 || !IsSuffix(s.Name[i+1:]) {
		return s.Name
	}
	return s.Name[:i]
}

// FirstSegment returns the part of addr before the first comma, which drops
// city, state and zip.
func FirstSegment(addr string) string {
	seg, _, _ := strings.Cut(addr, ",")
	return strings.TrimSpace(seg)
}

// SplitStreet normalizes the first segment of addr and splits it into house
// number and street name. It fails when the address does not start with a
// number or has no street name.
func SplitStreet(addr string) (Street, bool) {
	parts := strings.Fields(Normalize(FirstSegment(addr)))
	if len(parts) < 2 {
		return Street{}, false
	}
	if c := parts[0][0]; c < '0' || c > '9' {
		return Street{}, false
	}
	return Street{Number: parts[0], Name: strings.Join(parts[1:], " ")}, true
}

var unitPattern = regexp.MustCompile(`\b[A-Z]{2}(\d{4})$`)

// ExtractUnitNumber reads the unit from a fixed-width assessor location such
// as "0000 2989 JACKSON             ST0001". A zero unit means none.
func ExtractUnitNumber(location string) (string, bool) {
	m := unitPattern.FindStringSubmatch(strings.TrimSpace(location))
	if m == nil {
		return "", false
	}
	unit := strings.TrimLeft(m[1], "0")
	return unit, unit != ""
}

var urlAddressPattern = regexp.MustCompile(`(\d+[^,\n]+(?:street|st|avenue|ave|road|rd|boulevard|blvd|drive|dr|way|lane|ln|court|ct|place|pl)[^,\n]*,?\s*(?:san\s+francisco|sf)?)`)

// ExtractFromURL looks for a street address in a listing URL. The match is
// lower-case and may include URL slug noise; callers normalize it.
func ExtractFromURL(rawURL string) (string, bool) {
	// Only the path is searched; digits in the host or port are not house
	// numbers.
	target := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		target = u.Path
		if u.RawQuery != "" {
			q, _ := url.QueryUnescape(u.RawQuery)
			target += "?" + q
		}
	}
	m := urlAddressPattern.FindStringSubmatch(strings.ToLower(target))
	if m == nil {
		return "", false
	}
	addr := strings.TrimSpace(m[1])
	return addr, addr != ""
}
