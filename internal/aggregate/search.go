package aggregate

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"sfproperty/internal/address"
	"sfproperty/internal/listing"
	"sfproperty/internal/logging"
	"sfproperty/internal/reconcile"
	"sfproperty/internal/types"
)

// SearchRequest is a search by listing URL, address or parcel. Any
// combination may be set.
type SearchRequest struct {
	URL     string `json:"url"`
	Address string `json:"address"`
	Parcel  string `json:"parcel"`
	Debug   bool   `json:"debug"`
}

// SearchResult is either a profile or a warning with whatever partial data
// could be shown.
type SearchResult struct {
	Profile *types.Profile
	Warning string
	Data    map[string]any
}

// Search resolves a request the way the web form submits it. A listing URL
// supplies amenities and, when no address or parcel is given, an address
// read from the URL. Only a request with nothing to search by and no
// listing fails, with ErrNoInput.
func (a *Aggregator) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	log := logging.FromContext(ctx)

	addr, parcel := strings.TrimSpace(req.Address), strings.TrimSpace(req.Parcel)
	url := strings.TrimSpace(req.URL)
	if url != "" && addr == "" && parcel == "" {
		if extracted, ok := address.ExtractFromURL(url); ok {
			log.Debug().Str("url", url).Str("address", extracted).Msg("address taken from listing url")
			addr = extracted
		}
	}

	var amenities *types.ListingAmenities
	fetchListing := func(ctx context.Context) {
		if url != "" && listing.IsSupported(url) {
			amenities = a.listings.Fetch(ctx, url)
		}
	}

	if addr == "" && parcel == "" {
		fetchListing(ctx)
		if amenities == nil {
			return nil, ErrNoInput
		}
		return &SearchResult{
			Warning: ListingOnlyMessage,
			Data:    map[string]any{"listing_amenities": amenities},
		}, nil
	}

	// The listing page and the datasets are independent, so fetch both at
	// once.
	var (
		profile   *types.Profile
		lookupErr error
		g         errgroup.Group
	)
	g.Go(func() error {
		fetchListing(ctx)
		return nil
	})
	g.Go(func() error {
		profile, lookupErr = a.Lookup(ctx, Request{Address: addr, Parcel: parcel, Debug: req.Debug})
		return nil
	})
	g.Wait()

	if errors.Is(lookupErr, ErrNoData) {
		data := map[string]any{}
		if amenities != nil {
			data["listing_amenities"] = amenities
		}
		var nd *NoDataError
		if req.Debug && errors.As(lookupErr, &nd) {
			data["debug"] = map[string]any{"address": nd.Address, "parcel": nd.Parcel, "parcel_status": nd.Status}
		}
		return &SearchResult{Warning: NoDataMessage, Data: data}, nil
	}
	if lookupErr != nil {
		return nil, lookupErr
	}

	if amenities != nil {
		profile.ListingAmenities = amenities
		reconcile.ApplyListing(profile, amenities)
	}
	return &SearchResult{Profile: profile}, nil
}
