package datasf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"sfproperty/internal/soql"
)

// Suggestion is a geocoder address candidate. Lower priority numbers are
// better matches; 4 and above are facilities and are dropped.
type Suggestion struct {
	Address  string `json:"address"`
	Priority int    `json:"priority"`
}

const (
	maxSuggestPriority = 3
	maxSuggestions     = 10
)

var directions = map[string]string{"N": "NORTH", "S": "SOUTH", "E": "EAST", "W": "WEST"}

var directionPattern = regexp.MustCompile(`\b[NSEW]\b`)

// SuggestQuery prepares typed input for the geocoder: upper-cased, trimmed
// and with single-letter compass directions spelled out.
func SuggestQuery(q string) string {
	q = strings.ToUpper(strings.TrimSpace(q))
	return directionPattern.ReplaceAllStringFunc(q, func(d string) string { return directions[d] })
}

type suggestResponse struct {
	Features []struct {
		Attributes struct {
			Address  string `json:"Address"`
			Priority int    `json:"Priority"`
		} `json:"attributes"`
	} `json:"features"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Suggest returns up to ten addresses starting with q. Queries shorter than
// two characters return nothing.
func (c *Client) Suggest(ctx context.Context, q string) ([]Suggestion, error) {
	q = SuggestQuery(q)
	if len(q) < 2 {
		return nil, nil
	}
	pattern, err := soql.PrefixPattern(q)
	if err != nil {
		return nil, err
	}

	vals := url.Values{}
	vals.Set("where", "Address like "+pattern)
	vals.Set("outFields", "Address,Priority")
	vals.Set("returnGeometry", "false")
	vals.Set("resultRecordCount", "15")
	vals.Set("f", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.suggestURL+"?"+vals.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocoder: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Dataset: "geocoder", StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	var sr suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, &DecodeError{Dataset: "geocoder", Err: err}
	}
	// ArcGIS reports query errors with a 200 status.
	if sr.Error != nil {
		return nil, &APIError{Dataset: "geocoder", StatusCode: sr.Error.Code, Body: sr.Error.Message}
	}

	out := make([]Suggestion, 0, len(sr.Features))
	for _, f := range sr.Features {
		if f.Attributes.Address == "" || f.Attributes.Priority > maxSuggestPriority {
			continue
		}
		out = append(out, Suggestion{Address: f.Attributes.Address, Priority: f.Attributes.Priority})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out, nil
}
