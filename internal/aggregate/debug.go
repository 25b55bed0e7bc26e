package aggregate

import (
	"encoding/json"

	"sfproperty/internal/datasf"
)

// rawOr returns the raw rows, or a note saying the source had none.
func rawOr(rows []json.RawMessage, none string) any {
	if len(rows) == 0 {
		return none
	}
	return rows
}

// debugInfo collects the raw payloads behind a profile and how each source
// was matched.
func debugInfo(s *sources) map[string]any {
	raw := s.trace.Raw
	if raw == nil {
		raw = []json.RawMessage{}
	}
	d := map[string]any{
		"parcel_query":             s.trace.Params(),
		"parcel_attempts":          s.trace.Attempts,
		"parcel_raw":               raw,
		"historical_taxroll_raw":   rawOr(s.taxRoll.Raw, "No Historical Tax Roll data returned"),
		"rent_board_raw":           rawOr(s.rentBoard.Raw, "No Rent Board data returned"),
		"eviction_raw":             rawOr(s.evictions.Raw, "No eviction data returned"),
		"complaints_raw":           rawOr(s.complaints.Raw, "No complaint data returned"),
		"rent_board_inventory_raw": rawOr(s.inventory.Raw, "No Rent Board Housing Inventory data returned"),
	}
	if len(s.landUse.Raw) > 0 {
		d["landuse_raw"] = s.landUse.Raw[0]
	} else {
		d["landuse_raw"] = "No Land Use data returned"
	}

	status := map[string]datasf.Status{
		"tax_roll":   s.taxRoll.Status,
		"land_use":   s.landUse.Status,
		"rent_board": s.rentBoard.Status,
		"inventory":  s.inventory.Status,
		"evictions":  s.evictions.Status,
		"complaints": s.complaints.Status,
		"buyouts":    s.buyouts.Status,
		"permits":    s.permits.Status,
	}
	if len(s.geocode.Attempts) > 0 {
		status["geocode"] = s.geocode.Status
	}
	d["source_status"] = status
	return d
}
