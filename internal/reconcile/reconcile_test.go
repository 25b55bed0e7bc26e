package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sfproperty/internal/address"
	"sfproperty/internal/types"
)

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func decodeRow[T any, PT interface {
	*T
	SetRaw(json.RawMessage)
}](t *testing.T, s string) T {
	t.Helper()
	v := decode[T](t, s)
	PT(&v).SetRaw(json.RawMessage(s))
	return v
}

func TestOwnerPrecedence(t *testing.T) {
	tax := []types.TaxRollRecord{decode[types.TaxRollRecord](t, `{"owner":"Beta Corp","closed_roll_year":"2023"}`)}

	p := Reconcile(Sources{
		ParcelRecord: decode[types.ParcelRecord](t, `{"owner":"Acme LLC"}`),
		TaxRoll:      tax,
	})
	assert.Equal(t, "Acme LLC", p.Owner)

	p = Reconcile(Sources{ParcelRecord: decode[types.ParcelRecord](t, `{}`), TaxRoll: tax})
	assert.Equal(t, "Beta Corp", p.Owner)

	p = Reconcile(Sources{
		ParcelRecord: decode[types.ParcelRecord](t, `{"owner":null}`),
		LandUse:      &types.LandUseRecord{Owner: types.F("Gamma Trust")},
	})
	assert.Equal(t, "Gamma Trust", p.Owner)

	p = Reconcile(Sources{ParcelRecord: decode[types.ParcelRecord](t, `{"owner":["A LLC","B LLC"]}`)})
	assert.Equal(t, "A LLC, B LLC", p.Owner)

	p = Reconcile(Sources{ParcelRecord: decode[types.ParcelRecord](t, `{"owner":""}`)})
	assert.Equal(t, types.NotAvailable, p.Owner)
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$1,234,567", FormatCurrency("1234567.8"))
	assert.Equal(t, "$0", FormatCurrency("0"))
	assert.Equal(t, "$950", FormatCurrency("950"))
	assert.Equal(t, "N/A", FormatCurrency("N/A"))
	assert.Equal(t, "$-1,500", FormatCurrency("-1500.99"))

	for _, v := range []string{"NaN", "nan", "Inf", "-Inf", "+Infinity", "1e400"} {
		assert.Equal(t, v, FormatCurrency(v), "not a finite number")
	}
	assert.Equal(t, "$100,000,000,000,000,000,000", FormatCurrency("1e20"))
	assert.Equal(t, "$9,223,372,036,854,775,808", FormatCurrency("9223372036854775808"))
	assert.Equal(t, "$9,223,372,036,854,774,784", FormatCurrency("9223372036854775000"))
}

func TestAssessedValuePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		parcel string
		tax    string
		want   string
	}{
		{"parcel fixtures", `{"closed_roll_assessed_fixtures_value":"1234567.8","closed_roll_assessed_land_value":"5"}`, `{}`, "$1,234,567"},
		{"parcel land", `{"closed_roll_assessed_land_value":"500000"}`, `{"assessed_fixtures_value":"1"}`, "$500,000"},
		{"tax fixtures", `{}`, `{"assessed_fixtures_value":"42000","assessed_land_value":"1"}`, "$42,000"},
		{"tax land", `{"closed_roll_assessed_fixtures_value":""}`, `{"assessed_land_value":"7"}`, "$7"},
		{"zero is a value", `{"closed_roll_assessed_fixtures_value":"0","closed_roll_assessed_land_value":"9"}`, `{}`, "$0"},
		{"non-numeric", `{"closed_roll_assessed_fixtures_value":"N/A"}`, `{}`, "N/A"},
		{"none", `{}`, `{}`, types.NotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Reconcile(Sources{
				ParcelRecord: decode[types.ParcelRecord](t, tt.parcel),
				TaxRoll:      []types.TaxRollRecord{decode[types.TaxRollRecord](t, tt.tax)},
			})
			assert.Equal(t, tt.want, p.AssessedValue)
		})
	}
}

func TestRentControl(t *testing.T) {
	assert.Equal(t, RentControlVerified, RentControl(true, "2005"))
	assert.Equal(t, RentControlVerified, RentControl(true, types.NotAvailable))
	assert.Equal(t, RentControlLikely, RentControl(false, "1920"))
	assert.Equal(t, RentControlUnlikely, RentControl(false, "2005"))
	assert.Equal(t, RentControlUnlikely, RentControl(false, "1979"))
	assert.Equal(t, RentControlUnknown, RentControl(false, types.NotAvailable))
	assert.Equal(t, RentControlUnknown, RentControl(false, ""))
}

func TestRentControlUsesReconciledYear(t *testing.T) {
	p := Reconcile(Sources{
		ParcelRecord: decode[types.ParcelRecord](t, `{}`),
		Inventory:    []types.InventoryRecord{decode[types.InventoryRecord](t, `{"year_property_built":"1912"}`)},
	})
	assert.Equal(t, "1912", p.YearBuilt)
	assert.Equal(t, RentControlLikely, p.RentControlled)
	assert.False(t, p.RentBoardVerified)

	p = Reconcile(Sources{
		ParcelRecord: decode[types.ParcelRecord](t, `{"year_property_built":"2010"}`),
		RentBoard:    []types.RentBoardRecord{decodeRow[types.RentBoardRecord](t, `{"block":"0987","lot":"001"}`)},
	})
	assert.Equal(t, RentControlVerified, p.RentControlled)
	assert.True(t, p.RentBoardVerified)
	assert.Equal(t, 1, p.RentBoardUnitsCount)
	assert.JSONEq(t, `{"block":"0987","lot":"001"}`, string(p.RentBoardData))
}

func TestMostRecentTaxRecord(t *testing.T) {
	recs := []types.TaxRollRecord{
		{ClosedRollYear: types.F("2019"), Owner: types.F("old")},
		{ClosedRollYear: types.F("2023"), Owner: types.F("new")},
		{ClosedRollYear: types.F("2021"), Owner: types.F("mid")},
	}
	got, ok := MostRecentTaxRecord(recs)
	require.True(t, ok)
	assert.Equal(t, "new", got.Owner.String())

	recs[2].ClosedRollYear = types.F("n/a")
	got, _ = MostRecentTaxRecord(recs)
	assert.Equal(t, "old", got.Owner.String(), "unparsable year keeps original order")

	_, ok = MostRecentTaxRecord(nil)
	assert.False(t, ok)
}

func TestRoomsPrecedence(t *testing.T) {
	p := Reconcile(Sources{
		ParcelRecord: decode[types.ParcelRecord](t, `{"number_of_bedrooms":"3","number_of_bathrooms":"2","number_of_rooms":"6"}`),
		TaxRoll:      []types.TaxRollRecord{decode[types.TaxRollRecord](t, `{"number_of_bedrooms":"4","number_of_rooms":""}`)},
		Inventory:    []types.InventoryRecord{decode[types.InventoryRecord](t, `{"bedroom_count":"9","bathroom_count":"9"}`)},
	})
	assert.Equal(t, "4", p.Bedrooms)
	assert.Equal(t, "2", p.Bathrooms)
	assert.Equal(t, "6", p.Rooms)
}

func TestInventoryAndListingFillGaps(t *testing.T) {
	listing := types.NewListingAmenities()
	beds, baths := "2", "1.5"
	listing.Bedrooms, listing.Bathrooms = &beds, &baths

	p := Reconcile(Sources{
		ParcelRecord: decode[types.ParcelRecord](t, `{}`),
		Inventory: []types.InventoryRecord{decodeRow[types.InventoryRecord](t,
			`{"bedroom_count":"1","unit_count":"6","base_rent_includes_water_sewer":"Y","base_rent_includes_electricity":"N","analysis_neighborhood":"Pacific Heights"}`)},
		Listing: listing,
	})
	assert.Equal(t, "1", p.Bedrooms, "inventory outranks the listing")
	assert.Equal(t, "1.5", p.Bathrooms, "listing fills what inventory lacks")
	assert.Equal(t, types.NotAvailable, p.Rooms)
	require.NotNil(t, p.RentBoardInventory)
	assert.Equal(t, 1, p.RentBoardInventory.UnitsFound)
	assert.Equal(t, "6", p.RentBoardInventory.TotalUnits.String())
	assert.Equal(t, &types.Utilities{WaterSewer: true}, p.RentBoardUtilities)
	assert.Equal(t, "Pacific Heights", p.RentBoardNeighborhood.String())
	assert.Same(t, listing, p.ListingAmenities)
}

func TestUnitNumber(t *testing.T) {
	p := Reconcile(Sources{
		ParcelRecord: decode[types.ParcelRecord](t, `{}`),
		TaxRoll:      []types.TaxRollRecord{{PropertyLocation: types.F("0000 2989 JACKSON             ST0001")}},
	})
	require.NotNil(t, p.UnitNumber)
	assert.Equal(t, "Unit 1", *p.UnitNumber)

	p = Reconcile(Sources{
		ParcelRecord: decode[types.ParcelRecord](t, `{}`),
		TaxRoll:      []types.TaxRollRecord{{PropertyLocation: types.F("0000 2989 JACKSON             ST0000")}},
	})
	assert.Nil(t, p.UnitNumber)
}

func TestFallbackFields(t *testing.T) {
	lu := decode[types.LandUseRecord](t, `{"lotsqft":"2500","zoning":"RH-2","restype":"SINGLE FAMILY","bldgsqft":"1800","landuse":"RESIDENT","resunits":"1"}`)
	p := Reconcile(Sources{
		Parcel:       address.Parcel{Block: "0987", Lot: "001"},
		ParcelRecord: decode[types.ParcelRecord](t, `{"from_address_num":"2989","street_name":"JACKSON","street_type":"ST"}`),
		LandUse:      &lu,
		Zoning:       "RH-1",
	})
	assert.Equal(t, "2989 JACKSON ST", p.Address)
	assert.Equal(t, "0987/001", p.Parcel)
	assert.Equal(t, "2500", p.LotSize)
	assert.Equal(t, "RH-2", p.Zoning)
	assert.Equal(t, "SINGLE FAMILY", p.Classification)
	assert.Equal(t, "1800", p.BuildingSqft)
	assert.Equal(t, "RESIDENT", p.PropertyType)
	assert.Equal(t, "1", p.NumUnits)
	assert.Equal(t, "SINGLE FAMILY", p.LandUseResType.String())
	assert.True(t, p.LandUseMed.Present(), "land use passthrough is null when the column is missing")

	p = Reconcile(Sources{
		Address:      "2989 Jackson Street",
		ParcelRecord: decode[types.ParcelRecord](t, `{"blklot":"0987001","address":"2989 JACKSON ST"}`),
		Zoning:       "RH-1",
	})
	assert.Equal(t, "2989 Jackson Street", p.Address)
	assert.Equal(t, "0987/001", p.Parcel)
	assert.Equal(t, "RH-1", p.Zoning)
	assert.Equal(t, types.NotAvailable, p.LotSize)
	assert.False(t, p.LandUseMed.Present())
}

func TestCoordinates(t *testing.T) {
	p := Reconcile(Sources{ParcelRecord: decode[types.ParcelRecord](t, `{"centroid_latitude":"37.79","centroid_longitude":"-122.44"}`)})
	require.NotNil(t, p.Lat)
	assert.InDelta(t, 37.79, *p.Lat, 1e-9)
	assert.InDelta(t, -122.44, *p.Lon, 1e-9)

	p = Reconcile(Sources{
		ParcelRecord: decode[types.ParcelRecord](t, `{}`),
		Geocode:      &types.GeocodeRecord{Latitude: types.F("37.7"), Longitude: types.F("-122.4")},
	})
	require.NotNil(t, p.Lat)
	assert.InDelta(t, 37.7, *p.Lat, 1e-9)

	p = Reconcile(Sources{ParcelRecord: decode[types.ParcelRecord](t, `{}`)})
	assert.Nil(t, p.Lat)
	assert.Nil(t, p.Lon)
}

func TestEvictionReasons(t *testing.T) {
	r := decode[types.EvictionRecord](t, `{"owner_move_in":true,"non_payment":false,"breach":"false"}`)
	assert.Equal(t, []string{"Owner Move-In"}, EvictionReasons(r))

	r = decode[types.EvictionRecord](t, `{"non_payment":false,"ellis_act_withdrawal":"false"}`)
	assert.Equal(t, []string{"Reason not specified"}, EvictionReasons(r))

	r = decode[types.EvictionRecord](t, `{"non_payment":"true","development":"true","good_samaritan_ends":true}`)
	assert.Equal(t, []string{"Non-Payment of Rent", "Development Agreement", "Good Samaritan Ends"}, EvictionReasons(r))

	assert.Len(t, evictionReasons, 19)
}

func TestListProjections(t *testing.T) {
	var evictions []types.EvictionRecord
	for range 15 {
		evictions = append(evictions, decode[types.EvictionRecord](t, `{"file_date":"2024-03-01T00:00:00.000"}`))
	}
	ev := Evictions(evictions)
	assert.Len(t, ev, MaxEvictions)
	assert.Equal(t, types.EvictionEntry{
		FileDate:           "2024-03-01",
		EvictionReason:     []string{"Reason not specified"},
		Neighborhood:       "Unknown",
		SupervisorDistrict: "Unknown",
	}, ev[0])

	complaints := Complaints([]types.ComplaintRecord{decode[types.ComplaintRecord](t, `{"category":"Heat","status":null}`)})
	assert.Equal(t, []types.ComplaintEntry{{
		DateFiled: "Unknown", Category: "Heat", Type: "Unknown", Status: "Unknown", Resolution: "Pending",
	}}, complaints)

	var buyouts []types.BuyoutRecord
	for range 7 {
		buyouts = append(buyouts, decode[types.BuyoutRecord](t, `{"filing_date":"2022-11-09","buyout_amount":"25000"}`))
	}
	bo := Buyouts(buyouts)
	assert.Len(t, bo, MaxBuyouts)
	assert.Equal(t, types.BuyoutEntry{FilingDate: "2022-11-09", BuyoutAmount: "25000", Neighborhood: "Unknown"}, bo[0])
	assert.Equal(t, "Not disclosed", Buyouts([]types.BuyoutRecord{{}})[0].BuyoutAmount)

	permits := Permits([]types.PermitRecord{decode[types.PermitRecord](t, `{"description":"reroof","filed_date":"2020-01-02T00:00:00.000"}`)})
	assert.Equal(t, []types.PermitEntry{{Description: "reroof", Status: "N/A", FiledDate: "2020-01-02", PermitType: "N/A"}}, permits)

	assert.NotNil(t, Permits(nil), "empty lists encode as []")
}

func TestProfileJSON(t *testing.T) {
	p := Reconcile(Sources{
		Address:      "2989 Jackson St",
		ParcelRecord: decode[types.ParcelRecord](t, `{"owner":"Acme LLC","year_property_built":"1925"}`),
	})
	b, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	want := map[string]any{
		"address":             "2989 Jackson St",
		"owner":               "Acme LLC",
		"property_type":       types.NotAvailable,
		"year_built":          "1925",
		"assessed_value":      types.NotAvailable,
		"lot_size":            types.NotAvailable,
		"zoning":              types.NotAvailable,
		"rent_controlled":     RentControlLikely,
		"num_units":           types.NotAvailable,
		"number_of_bedrooms":  types.NotAvailable,
		"number_of_bathrooms": types.NotAvailable,
		"number_of_rooms":     types.NotAvailable,
		"last_sale_date":      types.NotAvailable,
		"last_sale_price":     types.NotAvailable,
		"building_sqft":       types.NotAvailable,
		"unit_number":         nil,
		"permits":             []any{},
		"rent_board_verified": false,
		"rent_board_data":     nil,

		"rent_board_units_count": float64(0),
		"eviction_history":       []any{},
		"eviction_count":         float64(0),
		"housing_complaints":     []any{},
		"complaint_count":        float64(0),
		"buyout_agreements":      []any{},
		"buyout_count":           float64(0),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("profile JSON mismatch (-want +got):\n%s", diff)
	}
}
