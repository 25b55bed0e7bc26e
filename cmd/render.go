package main

import (
	"fmt"
	"io"
	"strings"

	"sfproperty/internal/types"
)

// renderProfile prints a profile in a readable layout. When prev is a saved
// copy of the same property, values that changed since it was saved are
// followed by the saved value in red brackets.
func renderProfile(w io.Writer, cur *types.Profile, prev map[string]any) {
	diff := func(key, now string) string {
		if prev == nil {
			return ""
		}
		was, ok := prev[key]
		if !ok || was == nil {
			return ""
		}
		if s := fmt.Sprint(was); s != "" && s != now {
			return fmt.Sprintf(" %s[%s]%s", colorRed, s, colorReset)
		}
		return ""
	}
	line := func(label, key, value string) {
		fmt.Fprintf(w, "%-18s: %s%s\n", label, value, diff(key, value))
	}

	fmt.Fprintln(w, strings.Repeat("-", 80))
	line("Address", "address", cur.Address)
	if cur.Parcel != "" {
		line("Parcel", "parcel", cur.Parcel)
	}
	if cur.UnitNumber != nil {
		line("Unit", "unit_number", *cur.UnitNumber)
	}
	line("Owner", "owner", cur.Owner)
	line("Property Type", "property_type", cur.PropertyType)
	if cur.Classification != "" {
		line("Classification", "classification", cur.Classification)
	}
	fmt.Fprintln(w)

	line("Assessed Value", "assessed_value", cur.AssessedValue)
	line("Year Built", "year_built", cur.YearBuilt)
	line("Units", "num_units", cur.NumUnits)
	line("Bedrooms", "number_of_bedrooms", cur.Bedrooms)
	line("Bathrooms", "number_of_bathrooms", cur.Bathrooms)
	line("Rooms", "number_of_rooms", cur.Rooms)
	line("Building (sf)", "building_sqft", cur.BuildingSqft)
	line("Lot (sf)", "lot_size", cur.LotSize)
	line("Zoning", "zoning", cur.Zoning)
	fmt.Fprintln(w)

	rc := cur.RentControlled
	if cur.RentBoardVerified {
		rc += fmt.Sprintf(" %s[%d on registry]%s", colorGreen, cur.RentBoardUnitsCount, colorReset)
	}
	fmt.Fprintf(w, "%-18s: %s%s\n", "Rent Controlled", rc, diff("rent_controlled", cur.RentControlled))
	fmt.Fprintf(w, "%-18s: %d%s\n", "Evictions", cur.EvictionCount, diff("eviction_count", fmt.Sprint(cur.EvictionCount)))
	for _, e := range cur.EvictionHistory {
		fmt.Fprintf(w, "  %s  %s\n", e.FileDate, strings.Join(e.EvictionReason, ", "))
	}
	fmt.Fprintf(w, "%-18s: %d%s\n", "Complaints", cur.ComplaintCount, diff("complaint_count", fmt.Sprint(cur.ComplaintCount)))
	for _, c := range cur.HousingComplaints {
		fmt.Fprintf(w, "  %s  %s (%s)\n", c.DateFiled, c.Category, c.Status)
	}
	fmt.Fprintf(w, "%-18s: %d%s\n", "Buyouts", cur.BuyoutCount, diff("buyout_count", fmt.Sprint(cur.BuyoutCount)))
	for _, b := range cur.BuyoutAgreements {
		fmt.Fprintf(w, "  %s  %s\n", b.FilingDate, b.BuyoutAmount)
	}
	if len(cur.Permits) > 0 {
		fmt.Fprintln(w, "Permits:")
		for _, p := range cur.Permits {
			fmt.Fprintf(w, "  %s  %-10s %s\n", p.FiledDate, p.Status, p.Description)
		}
	}

	if a := cur.ListingAmenities; a != nil && !a.IsEmpty() {
		fmt.Fprintln(w)
		renderAmenities(w, a)
	}

	if cur.Lat != nil && cur.Lon != nil {
		fmt.Fprintf(w, "%-18s: %.6f, %.6f\n", "Location", *cur.Lat, *cur.Lon)
	} else {
		fmt.Fprintln(w, "Latitude/Longitude unavailable")
	}
	fmt.Fprintln(w, strings.Repeat("-", 80))
}

func renderAmenities(w io.Writer, a *types.ListingAmenities) {
	for _, f := range []struct {
		label string
		value *string
	}{
		{"Listing", a.Title},
		{"Price", a.Price},
		{"Bedrooms", a.Bedrooms},
		{"Bathrooms", a.Bathrooms},
		{"Size (sf)", a.Sqft},
		{"Available", a.AvailableDate},
		{"Parking", a.Parking},
		{"Laundry", a.Laundry},
		{"Pets", a.PetsAllowed},
		{"Furnished", a.Furnished},
		{"Smoking", a.Smoking},
		{"Wheelchair", a.WheelchairAccessible},
		{"Air Conditioning", a.AirConditioning},
		{"EV Charging", a.EVCharging},
	} {
		if f.value != nil {
			fmt.Fprintf(w, "%-18s: %s\n", f.label, *f.value)
		}
	}
	for _, img := range a.Images {
		fmt.Fprintf(w, "  %s\n", img)
	}
}
