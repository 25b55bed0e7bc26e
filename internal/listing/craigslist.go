// Package listing extracts unit amenities from Craigslist rental listings.
package listing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"sfproperty/internal/logging"
	"sfproperty/internal/types"
)

// DefaultTimeout bounds a listing page fetch.
const DefaultTimeout = 15 * time.Second

// DefaultUserAgent is a desktop browser string; Craigslist serves a
// stripped page to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

const (
	maxPageBytes = 4 << 20
	maxImages    = 5
)

// IsSupported reports whether url is a listing this package can read.
func IsSupported(url string) bool {
	return strings.Contains(strings.ToLower(url), "craigslist")
}

// Parser fetches and parses listing pages. It is safe for concurrent use.
type Parser struct {
	http      *http.Client
	userAgent string
}

// New returns a Parser. Zero values select the defaults.
func New(timeout time.Duration, userAgent string) *Parser {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Parser{http: &http.Client{Timeout: timeout}, userAgent: userAgent}
}

// Fetch downloads and parses a listing. It never fails: unsupported URLs,
// fetch errors and unparsable pages all yield a record with nothing set.
func (p *Parser) Fetch(ctx context.Context, url string) *types.ListingAmenities {
	log := logging.FromContext(ctx)
	if !IsSupported(url) {
		return types.NewListingAmenities()
	}
	a, err := p.fetch(ctx, url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("listing fetch failed")
		return types.NewListingAmenities()
	}
	log.Debug().Str("url", url).Int("images", len(a.Images)).Msg("listing parsed")
	return a
}

func (p *Parser) fetch(ctx context.Context, url string) (*types.ListingAmenities, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return Parse(io.LimitReader(resp.Body, maxPageBytes))
}

var (
	bedroomsPattern  = regexp.MustCompile(`(?i)(\d+)\s*br`)
	bathroomsPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*ba`)
	sqftPattern      = regexp.MustCompile(`(?i)(\d+)\s*ft`)
)

// Parse reads a listing page.
func Parse(r io.Reader) (*types.ListingAmenities, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}
	a := types.NewListingAmenities()

	if n := find(doc, func(n *html.Node) bool {
		id, _ := attr(n, "id")
		return isElement(n, "span") && id == "titletextonly"
	}); n != nil {
		a.Title = ptr(text(n))
	}
	if n := find(doc, spanWithClass("price")); n != nil {
		a.Price = ptr(text(n))
	}
	if n := find(doc, spanWithClass("housing")); n != nil {
		housing := text(n)
		a.Bedrooms = submatch(bedroomsPattern, housing)
		a.Bathrooms = submatch(bathroomsPattern, housing)
		a.Sqft = submatch(sqftPattern, housing)
	}

	for _, t := range attributeTexts(doc) {
		applyAttribute(a, strings.ToLower(t))
	}

	if n := find(doc, spanWithClass("property_date")); n != nil {
		if d, ok := attr(n, "data-date"); ok {
			a.AvailableDate = ptr(d)
		} else {
			a.AvailableDate = ptr(text(n))
		}
	}

	for _, n := range findAll(doc, func(n *html.Node) bool { return isElement(n, "a") && hasClass(n, "thumb") }) {
		if len(a.Images) == maxImages {
			break
		}
		if href, _ := attr(n, "href"); href != "" {
			a.Images = append(a.Images, href)
		}
	}
	return a, nil
}

func spanWithClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool { return isElement(n, "span") && hasClass(n, class) }
}

// attributeTexts collects the text of every span, link and div inside the
// attribute groups. Older pages without groups fall back to every span.
func attributeTexts(doc *html.Node) []string {
	var out []string
	groups := findAll(doc, func(n *html.Node) bool {
		return isElement(n) && (hasClass(n, "attrgroup") || hasClass(n, "mapAndAttrs") || hasClass(n, "attr"))
	})
	for _, g := range groups {
		for _, n := range findAll(g, func(n *html.Node) bool { return isElement(n, "span", "a", "div") }) {
			if t := text(n); t != "" {
				out = append(out, t)
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, n := range findAll(doc, func(n *html.Node) bool { return isElement(n, "span") }) {
		if t := text(n); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// applyAttribute maps one lower-cased attribute text onto the amenities.
// Later attributes overwrite earlier ones.
func applyAttribute(a *types.ListingAmenities, t string) {
	has := func(s string) bool { return strings.Contains(t, s) }

	switch {
	case has("carport"):
		a.Parking = ptr("Carport")
	case has("attached garage"):
		a.Parking = ptr("Attached Garage")
	case has("detached garage"):
		a.Parking = ptr("Detached Garage")
	case has("off-street parking"):
		a.Parking = ptr("Off-street Parking")
	case has("street parking"):
		a.Parking = ptr("Street Parking")
	case has("valet parking"):
		a.Parking = ptr("Valet Parking")
	case has("no parking"):
		a.Parking = ptr("No Parking")
	}

	switch {
	case has("w/d in unit"), has("washer/dryer in unit"), has("wd in unit"):
		a.Laundry = ptr("In-unit W/D")
	case has("w/d hookups"), has("washer/dryer hookups"):
		a.Laundry = ptr("W/D Hookups")
	case has("laundry in bldg"), has("laundry on site"):
		a.Laundry = ptr("Shared Laundry")
	case has("no laundry"):
		a.Laundry = ptr("No Laundry")
	}

	switch {
	case has("cats are ok") && has("dogs are ok"):
		a.PetsAllowed = ptr("Cats & Dogs OK")
	case has("cats are ok"):
		a.PetsAllowed = ptr("Cats OK")
	case has("dogs are ok"):
		a.PetsAllowed = ptr("Dogs OK")
	case has("no pets"):
		a.PetsAllowed = ptr("No Pets")
	}

	switch {
	case has("unfurnished"):
		a.Furnished = ptr("No")
	case has("furnished"):
		a.Furnished = ptr("Yes")
	}

	if has("no smoking") {
		a.Smoking = ptr("No Smoking")
	}
	if has("wheelchair accessible") {
		a.WheelchairAccessible = ptr("Yes")
	}
	if has("air conditioning") || has("a/c") {
		a.AirConditioning = ptr("Yes")
	}
	if has("ev charging") {
		a.EVCharging = ptr("Yes")
	}
}

func submatch(re *regexp.Regexp, s string) *string {
	if m := re.FindStringSubmatch(s); m != nil {
		return ptr(m[1])
	}
	return nil
}

func ptr(s string) *string { return &s }
