// Package reconcile merges the records found for one property into a single
// profile. Every field has a fixed source precedence; the first source with a
// value wins and fields no source fills read "Not available".
package reconcile

import (
	"encoding/json"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"sfproperty/internal/address"
	"sfproperty/internal/types"
)

// Rent control verdicts.
const (
	RentControlVerified   = "Yes (Verified by Rent Board)"
	RentControlLikely     = "Likely Yes (Built before 1979)"
	RentControlUnlikely   = "Likely No (Built after 1979)"
	RentControlUnknown    = "Unknown"
	rentControlCutoffYear = 1979
)

// Sources is everything the datasets returned for one property. Only
// ParcelRecord is required; missing sources are nil or empty.
type Sources struct {
	Address string         // as requested, may be empty
	Parcel  address.Parcel // as requested or resolved from the parcel record

	ParcelRecord types.ParcelRecord
	TaxRoll      []types.TaxRollRecord
	LandUse      *types.LandUseRecord
	RentBoard    []types.RentBoardRecord
	Inventory    []types.InventoryRecord
	Permits      []types.PermitRecord
	Evictions    []types.EvictionRecord
	Complaints   []types.ComplaintRecord
	Buyouts      []types.BuyoutRecord
	Geocode      *types.GeocodeRecord

	// Zoning is the district from the local zoning layer, if one is loaded.
	Zoning string

	// Listing is set when a supported listing URL came with the request,
	// even if nothing could be read from it.
	Listing *types.ListingAmenities
}

// Reconcile builds the profile.
func Reconcile(src Sources) *types.Profile {
	pr := src.ParcelRecord
	tax, hasTax := MostRecentTaxRecord(src.TaxRoll)
	var lu types.LandUseRecord
	if src.LandUse != nil {
		lu = *src.LandUse
	}

	p := &types.Profile{
		Address:        resolveAddress(src.Address, pr),
		Parcel:         resolveParcel(src.Parcel, pr),
		Owner:          or(pr.Owner, tax.Owner, lu.Owner),
		PropertyType:   or(pr.PropertyClassDescription, tax.PropertyClassCodeDefinition, lu.LandUse),
		YearBuilt:      or(pr.YearPropertyBuilt, tax.YearPropertyBuilt, lu.YrBuilt),
		AssessedValue:  assessedValue(pr, tax),
		LotSize:        or(pr.LotArea, lu.LotSqft),
		Zoning:         or(pr.ZoningDistrict, lu.Zoning, types.F(src.Zoning)),
		NumUnits:       or(pr.NumberOfUnits, tax.NumberOfUnits, lu.ResUnits),
		Bedrooms:       or(tax.NumberOfBedrooms, pr.NumberOfBedrooms),
		Bathrooms:      or(tax.NumberOfBathrooms, pr.NumberOfBathrooms),
		Rooms:          or(tax.NumberOfRooms, pr.NumberOfRooms),
		LastSaleDate:   types.NotAvailable,
		LastSalePrice:  types.NotAvailable,
		BuildingSqft:   or(pr.BuildingSqft, tax.PropertyArea, lu.BldgSqft),
		Classification: lu.ResType.String(),

		Permits:           Permits(src.Permits),
		EvictionHistory:   Evictions(src.Evictions),
		HousingComplaints: Complaints(src.Complaints),
		BuyoutAgreements:  Buyouts(src.Buyouts),
	}
	p.EvictionCount = len(p.EvictionHistory)
	p.ComplaintCount = len(p.HousingComplaints)
	p.BuyoutCount = len(p.BuyoutAgreements)

	if hasTax {
		p.AssessorDetails = assessorDetails(tax)
		if unit, ok := address.ExtractUnitNumber(tax.PropertyLocation.String()); ok {
			u := "Unit " + unit
			p.UnitNumber = &u
		}
	}
	if src.LandUse != nil {
		p.LandUseDetails = landUseDetails(lu)
	}

	applyInventory(p, src.Inventory)
	applyRentBoard(p, src.RentBoard)
	p.RentControlled = RentControl(len(src.RentBoard) > 0, p.YearBuilt)

	if src.Listing != nil {
		p.ListingAmenities = src.Listing
		ApplyListing(p, src.Listing)
	}

	p.Lat, p.Lon = Coordinates(pr, src.Geocode)
	return p
}

// or returns the first field with a value, or NotAvailable.
func or(fields ...types.Field) string {
	return types.First(fields...).Or(types.NotAvailable)
}

func resolveAddress(requested string, pr types.ParcelRecord) string {
	if a := strings.TrimSpace(requested); a != "" {
		return a
	}
	if a := strings.TrimSpace(pr.StreetAddress()); a != "" {
		return a
	}
	return types.NotAvailable
}

func resolveParcel(requested address.Parcel, pr types.ParcelRecord) string {
	if !requested.IsZero() {
		return requested.String()
	}
	if p, err := address.ParseParcel(pr.Blklot.String()); err == nil {
		return p.String()
	}
	return pr.Blklot.String()
}

// MostRecentTaxRecord picks the roll with the highest closed_roll_year. A
// roll year that does not parse leaves the rows in their original order.
func MostRecentTaxRecord(recs []types.TaxRollRecord) (types.TaxRollRecord, bool) {
	if len(recs) == 0 {
		return types.TaxRollRecord{}, false
	}
	years := make([]int, len(recs))
	for i, r := range recs {
		if !r.ClosedRollYear.Present() {
			continue
		}
		y, ok := r.ClosedRollYear.Int()
		if !ok {
			return recs[0], true
		}
		years[i] = y
	}
	idx := make([]int, len(recs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return years[idx[a]] > years[idx[b]] })
	return recs[idx[0]], true
}

// assessedValue takes the fixtures value, then the land value, from the
// parcel record and then from the tax roll.
func assessedValue(pr types.ParcelRecord, tax types.TaxRollRecord) string {
	v, ok := types.First(pr.FixturesValue, pr.LandValue, tax.AssessedFixturesValue, tax.AssessedLandValue).Value()
	if !ok {
		return types.NotAvailable
	}
	return FormatCurrency(v)
}

// FormatCurrency renders a numeric value as whole dollars with thousands
// separators. Values that are not finite numbers are returned unchanged.
func FormatCurrency(v string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return v
	}
	if math.Abs(f) >= 1<<63 {
		n, _ := big.NewFloat(f).Int(nil)
		return "$" + humanize.BigComma(n)
	}
	return "$" + humanize.Comma(int64(f))
}

// RentControl classifies a building. A registry hit is authoritative;
// otherwise buildings from before 1979 are likely covered.
func RentControl(registryHit bool, yearBuilt string) string {
	if registryHit {
		return RentControlVerified
	}
	year, err := strconv.Atoi(strings.TrimSpace(yearBuilt))
	switch {
	case err != nil:
		return RentControlUnknown
	case year < rentControlCutoffYear:
		return RentControlLikely
	default:
		return RentControlUnlikely
	}
}

func assessorDetails(t types.TaxRollRecord) types.AssessorDetails {
	return types.AssessorDetails{
		AssessorClosedRollYear:              t.ClosedRollYear.OrNull(),
		AssessorPropertyClassCode:           t.PropertyClassCode.OrNull(),
		AssessorPropertyClassCodeDefinition: t.PropertyClassCodeDefinition.OrNull(),
		AssessorUseCode:                     t.UseCode.OrNull(),
		AssessorUseDefinition:               t.UseDefinition.OrNull(),
		AssessorSupervisorDistrict:          t.SupervisorDistrict.OrNull(),
		AssessorZoningCode:                  t.ZoningCode.OrNull(),
		AssessorYearPropertyBuilt:           t.YearPropertyBuilt.OrNull(),
		AssessorNumberOfUnits:               t.NumberOfUnits.OrNull(),
		AssessorNumberOfRooms:               t.NumberOfRooms.OrNull(),
		AssessorNumberOfBathrooms:           t.NumberOfBathrooms.OrNull(),
		AssessorNumberOfBedrooms:            t.NumberOfBedrooms.OrNull(),
		AssessorPropertyArea:                t.PropertyArea.OrNull(),
		AssessorLocation:                    t.PropertyLocation.OrNull(),
		AssessorParcelNumber:                t.ParcelNumber.OrNull(),
	}
}

func landUseDetails(l types.LandUseRecord) types.LandUseDetails {
	return types.LandUseDetails{
		LandUseMapBlklot: l.MapBlklot.OrNull(),
		LandUseResType:   l.ResType.OrNull(),
		LandUseResUnits:  l.ResUnits.OrNull(),
		LandUseRes:       l.Res.OrNull(),
		LandUseTotalComm: l.TotalComm.OrNull(),
		LandUseCIE:       l.CIE.OrNull(),
		LandUseMed:       l.Med.OrNull(),
		LandUseMIPS:      l.MIPS.OrNull(),
		LandUseRetail:    l.Retail.OrNull(),
		LandUsePDR:       l.PDR.OrNull(),
		LandUseVisitor:   l.Visitor.OrNull(),
		LandUseFromSt:    l.FromSt.OrNull(),
		LandUseToSt:      l.ToSt.OrNull(),
		LandUseStreet:    l.Street.OrNull(),
		LandUseStType:    l.StType.OrNull(),
		LandUseTheGeom:   l.TheGeom.OrNull(),
	}
}

// applyInventory copies the newest inventory submission into the profile and
// uses it for bedrooms, bathrooms and year built when the registries had none.
func applyInventory(p *types.Profile, units []types.InventoryRecord) {
	if len(units) == 0 {
		return
	}
	raws := make([]json.RawMessage, len(units))
	for i, u := range units {
		raws[i] = u.Raw
	}
	recent := units[0]
	p.RentBoardInventory = &types.Inventory{
		UnitsFound: len(units),
		Units:      raws,
		TotalUnits: recent.UnitCount.OrNull(),
	}
	p.RentBoardBedroomCount = recent.BedroomCount.OrNull()
	p.RentBoardBathroomCount = recent.BathroomCount.OrNull()
	p.RentBoardSquareFootage = recent.SquareFootage.OrNull()
	p.RentBoardMonthlyRent = recent.MonthlyRent.OrNull()
	p.RentBoardOccupancyType = recent.OccupancyType.OrNull()
	p.RentBoardUtilities = &types.Utilities{
		WaterSewer:      recent.BaseRentIncludesWaterSewer.Bool(),
		NaturalGas:      recent.BaseRentIncludesNaturalGas.Bool(),
		Electricity:     recent.BaseRentIncludesElectricity.Bool(),
		RefuseRecycling: recent.BaseRentIncludesRefuseRecycling.Bool(),
	}
	p.RentBoardYearBuilt = recent.YearPropertyBuilt.OrNull()
	p.RentBoardNeighborhood = recent.AnalysisNeighborhood.OrNull()
	p.RentBoardSupervisorDistrict = recent.SupervisorDistrict.OrNull()

	fill(&p.Bedrooms, recent.BedroomCount)
	fill(&p.Bathrooms, recent.BathroomCount)
	fill(&p.YearBuilt, recent.YearPropertyBuilt)
}

func applyRentBoard(p *types.Profile, rows []types.RentBoardRecord) {
	p.RentBoardVerified = len(rows) > 0
	p.RentBoardUnitsCount = len(rows)
	if len(rows) > 0 {
		p.RentBoardData = rows[0].Raw
	}
}

// ApplyListing fills bedrooms and bathrooms from a listing when no registry
// had them.
func ApplyListing(p *types.Profile, a *types.ListingAmenities) {
	if a == nil {
		return
	}
	if a.Bedrooms != nil {
		fill(&p.Bedrooms, types.F(*a.Bedrooms))
	}
	if a.Bathrooms != nil {
		fill(&p.Bathrooms, types.F(*a.Bathrooms))
	}
}

// fill replaces a NotAvailable field with f when f has a value.
func fill(dst *string, f types.Field) {
	if *dst != types.NotAvailable {
		return
	}
	if v, ok := f.Value(); ok {
		*dst = v
	}
}

// Coordinates returns the parcel centroid, or the geocoded address point when
// the parcel has none.
func Coordinates(pr types.ParcelRecord, g *types.GeocodeRecord) (*float64, *float64) {
	if lat, ok := pr.CentroidLatitude.Float(); ok {
		if lon, ok := pr.CentroidLongitude.Float(); ok {
			return &lat, &lon
		}
	}
	if g == nil {
		return nil, nil
	}
	lat, ok1 := g.Latitude.Float()
	lon, ok2 := g.Longitude.Float()
	if !ok1 || !ok2 {
		return nil, nil
	}
	return &lat, &lon
}
