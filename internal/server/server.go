// Package server exposes profile search, listing parsing, address
// suggestions and the saved-property list over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"sfproperty/internal/aggregate"
	"sfproperty/internal/datasf"
	"sfproperty/internal/logging"
	"sfproperty/internal/store"
	"sfproperty/internal/types"
)

// Searcher runs the search flow.
type Searcher interface {
	Search(ctx context.Context, req aggregate.SearchRequest) (*aggregate.SearchResult, error)
}

// ListingFetcher reads amenities from a listing URL.
type ListingFetcher interface {
	Fetch(ctx context.Context, url string) *types.ListingAmenities
}

// Suggester completes partial addresses.
type Suggester interface {
	Suggest(ctx context.Context, q string) ([]datasf.Suggestion, error)
}

// Deps are the services the handlers call.
type Deps struct {
	Search   Searcher
	Listings ListingFetcher
	Suggest  Suggester
	Store    store.Store

	// CORSOrigins lists the browser origins allowed to call the API. "*"
	// allows any.
	CORSOrigins []string
	Logger      *zerolog.Logger
}

type handler struct {
	search   Searcher
	listings ListingFetcher
	suggest  Suggester
	store    store.Store
}

// New returns the API handler with its middleware applied.
func New(d Deps) http.Handler {
	h := &handler{search: d.Search, listings: d.Listings, suggest: d.Suggest, store: d.Store}
	log := d.Logger
	if log == nil {
		log = logging.Default()
	}

	router := mux.NewRouter()
	router.HandleFunc("/", h.Info).Methods(http.MethodGet)
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/search", h.Search).Methods(http.MethodPost)
	api.HandleFunc("/parse-listing", h.ParseListing).Methods(http.MethodPost)
	api.HandleFunc("/suggest", h.Suggest).Methods(http.MethodGet)
	api.HandleFunc("/properties", h.ListProperties).Methods(http.MethodGet)
	api.HandleFunc("/properties", h.SaveProperty).Methods(http.MethodPost)
	api.HandleFunc("/properties/{id:[0-9]+}", h.DeleteProperty).Methods(http.MethodDelete)

	// CORS wraps the router rather than being router middleware so that
	// preflight requests, which match no route, still get the headers.
	return withLogger(log, withCORS(d.CORSOrigins, withRecovery(router)))
}
