package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"sfproperty/internal/address"
	"sfproperty/internal/aggregate"
	"sfproperty/internal/listing"
	"sfproperty/internal/logging"
	"sfproperty/internal/soql"
	"sfproperty/internal/store"
)

// maxBodyBytes bounds request bodies. Saved profiles with debug output are
// the largest.
const maxBodyBytes = 8 << 20

// ErrorResponse reports an error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WarningResponse is a search that produced partial data.
type WarningResponse struct {
	Warning string         `json:"warning"`
	Data    map[string]any `json:"data"`
}

// Info describes the service.
func (h *handler) Info(w http.ResponseWriter, req *http.Request) {
	sendJSON(w, http.StatusOK, map[string]any{
		"name":    "SF Rental Assistant API",
		"version": "1.0",
		"status":  "running",
		"endpoints": map[string]string{
			"search":        "/api/search",
			"properties":    "/api/properties",
			"parse_listing": "/api/parse-listing",
			"suggest":       "/api/suggest",
			"health":        "/health",
		},
	})
}

func (h *handler) Health(w http.ResponseWriter, req *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Search returns a profile, or a warning with whatever could be shown.
func (h *handler) Search(w http.ResponseWriter, req *http.Request) {
	var body aggregate.SearchRequest
	if !decodeBody(w, req, &body) {
		return
	}

	res, err := h.search.Search(req.Context(), body)
	switch {
	case errors.Is(err, aggregate.ErrNoInput):
		sendError(w, aggregate.NoInputMessage, http.StatusBadRequest)
		return
	case errors.Is(err, address.ErrInvalidParcel):
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		logging.FromContext(req.Context()).Error().Err(err).Msg("search failed")
		sendInternalError(w, err)
		return
	}

	if res.Warning != "" {
		data := res.Data
		if data == nil {
			data = map[string]any{}
		}
		sendJSON(w, http.StatusOK, WarningResponse{Warning: res.Warning, Data: data})
		return
	}
	sendJSON(w, http.StatusOK, res.Profile)
}

// ParseListing returns the amenities of a Craigslist listing.
func (h *handler) ParseListing(w http.ResponseWriter, req *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if !decodeBody(w, req, &body) {
		return
	}
	url := strings.TrimSpace(body.URL)
	if url == "" {
		sendError(w, "Please provide a listing URL", http.StatusBadRequest)
		return
	}
	if !listing.IsSupported(url) {
		sendError(w, "Currently only Craigslist URLs are supported", http.StatusBadRequest)
		return
	}
	sendJSON(w, http.StatusOK, h.listings.Fetch(req.Context(), url))
}

// Suggest completes a partial address.
func (h *handler) Suggest(w http.ResponseWriter, req *http.Request) {
	out, err := h.suggest.Suggest(req.Context(), req.URL.Query().Get("q"))
	if errors.Is(err, soql.ErrUnsafeValue) {
		// Nothing can start with a wildcard or a control character.
		sendJSON(w, http.StatusOK, []any{})
		return
	}
	if err != nil {
		logging.FromContext(req.Context()).Warn().Err(err).Msg("address suggestions failed")
		sendJSON(w, http.StatusBadGateway, ErrorResponse{Error: "Address suggestions are unavailable", Details: err.Error()})
		return
	}
	if out == nil {
		sendJSON(w, http.StatusOK, []any{})
		return
	}
	sendJSON(w, http.StatusOK, out)
}

func (h *handler) ListProperties(w http.ResponseWriter, req *http.Request) {
	props, err := h.store.List(req.Context())
	if err != nil {
		logging.FromContext(req.Context()).Error().Err(err).Msg("list saved properties")
		sendInternalError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, props)
}

// SaveProperty stores the posted document and echoes it with its id and
// saved date.
func (h *handler) SaveProperty(w http.ResponseWriter, req *http.Request) {
	var doc map[string]any
	if !decodeBody(w, req, &doc) {
		return
	}
	if doc == nil {
		sendError(w, "request body must be a JSON object", http.StatusBadRequest)
		return
	}
	rec, err := h.store.Append(req.Context(), doc)
	if err != nil {
		logging.FromContext(req.Context()).Error().Err(err).Msg("save property")
		sendInternalError(w, err)
		return
	}
	logging.FromContext(req.Context()).Info().Int64("id", rec.ID).Str("address", rec.Address()).Msg("property saved")
	sendJSON(w, http.StatusCreated, rec)
}

func (h *handler) DeleteProperty(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		sendError(w, "path must include a valid property id", http.StatusBadRequest)
		return
	}
	switch err := h.store.Delete(req.Context(), id); {
	case errors.Is(err, store.ErrNotFound):
		sendError(w, "Property not found", http.StatusNotFound)
	case err != nil:
		logging.FromContext(req.Context()).Error().Err(err).Int64("id", id).Msg("delete property")
		sendInternalError(w, err)
	default:
		sendJSON(w, http.StatusOK, map[string]string{"message": "Property deleted"})
	}
}

// decodeBody reads a JSON request body into v. It writes the 400 itself and
// reports false when the body is unusable.
func decodeBody(w http.ResponseWriter, req *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		sendJSON(w, http.StatusBadRequest, ErrorResponse{Error: "request body must be valid JSON", Details: err.Error()})
		return false
	}
	return true
}

func sendError(w http.ResponseWriter, msg string, status int) {
	sendJSON(w, status, ErrorResponse{Error: msg})
}

func sendInternalError(w http.ResponseWriter, err error) {
	sendJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Details: err.Error()})
}

func sendJSON(w http.ResponseWriter, status int, object any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(object)
}
