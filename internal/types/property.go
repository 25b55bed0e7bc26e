package types

import "encoding/json"

// NotAvailable is the value of a profile field no source could fill.
const NotAvailable = "Not available"

// Profile is the reconciled view of one property across all registries.
// Scalar fields hold either a source value or NotAvailable.
type Profile struct {
	Address        string  `json:"address"`
	Parcel         string  `json:"parcel,omitempty"`
	Owner          string  `json:"owner"`
	PropertyType   string  `json:"property_type"`
	YearBuilt      string  `json:"year_built"`
	AssessedValue  string  `json:"assessed_value"`
	LotSize        string  `json:"lot_size"`
	Zoning         string  `json:"zoning"`
	RentControlled string  `json:"rent_controlled"`
	NumUnits       string  `json:"num_units"`
	Bedrooms       string  `json:"number_of_bedrooms"`
	Bathrooms      string  `json:"number_of_bathrooms"`
	Rooms          string  `json:"number_of_rooms"`
	LastSaleDate   string  `json:"last_sale_date"`
	LastSalePrice  string  `json:"last_sale_price"`
	BuildingSqft   string  `json:"building_sqft"`
	UnitNumber     *string `json:"unit_number"`
	Classification string  `json:"classification,omitempty"`

	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`

	Permits []PermitEntry `json:"permits"`

	AssessorDetails
	LandUseDetails
	RentBoardDetails

	EvictionHistory   []EvictionEntry  `json:"eviction_history"`
	EvictionCount     int              `json:"eviction_count"`
	HousingComplaints []ComplaintEntry `json:"housing_complaints"`
	ComplaintCount    int              `json:"complaint_count"`
	BuyoutAgreements  []BuyoutEntry    `json:"buyout_agreements"`
	BuyoutCount       int              `json:"buyout_count"`

	ListingAmenities *ListingAmenities `json:"listing_amenities,omitempty"`

	Debug map[string]any `json:"debug,omitempty"`
}

// AssessorDetails passes through the most recent tax roll row.
type AssessorDetails struct {
	AssessorClosedRollYear              Field `json:"assessor_closed_roll_year,omitzero"`
	AssessorPropertyClassCode           Field `json:"assessor_property_class_code,omitzero"`
	AssessorPropertyClassCodeDefinition Field `json:"assessor_property_class_code_definition,omitzero"`
	AssessorUseCode                     Field `json:"assessor_use_code,omitzero"`
	AssessorUseDefinition               Field `json:"assessor_use_definition,omitzero"`
	AssessorSupervisorDistrict          Field `json:"assessor_supervisor_district,omitzero"`
	AssessorZoningCode                  Field `json:"assessor_zoning_code,omitzero"`
	AssessorYearPropertyBuilt           Field `json:"assessor_year_property_built,omitzero"`
	AssessorNumberOfUnits               Field `json:"assessor_number_of_units,omitzero"`
	AssessorNumberOfRooms               Field `json:"assessor_number_of_rooms,omitzero"`
	AssessorNumberOfBathrooms           Field `json:"assessor_number_of_bathrooms,omitzero"`
	AssessorNumberOfBedrooms            Field `json:"assessor_number_of_bedrooms,omitzero"`
	AssessorPropertyArea                Field `json:"assessor_property_area,omitzero"`
	AssessorLocation                    Field `json:"assessor_location,omitzero"`
	AssessorParcelNumber                Field `json:"assessor_parcel_number,omitzero"`
}

// LandUseDetails passes through the land use row.
type LandUseDetails struct {
	LandUseMapBlklot Field `json:"landuse_mapblklot,omitzero"`
	LandUseResType   Field `json:"landuse_restype,omitzero"`
	LandUseResUnits  Field `json:"landuse_resunits,omitzero"`
	LandUseRes       Field `json:"landuse_res,omitzero"`
	LandUseTotalComm Field `json:"landuse_totalcomm,omitzero"`
	LandUseCIE       Field `json:"landuse_cie,omitzero"`
	LandUseMed       Field `json:"landuse_med,omitzero"`
	LandUseMIPS      Field `json:"landuse_mips,omitzero"`
	LandUseRetail    Field `json:"landuse_retail,omitzero"`
	LandUsePDR       Field `json:"landuse_pdr,omitzero"`
	LandUseVisitor   Field `json:"landuse_visitor,omitzero"`
	LandUseFromSt    Field `json:"landuse_from_st,omitzero"`
	LandUseToSt      Field `json:"landuse_to_st,omitzero"`
	LandUseStreet    Field `json:"landuse_street,omitzero"`
	LandUseStType    Field `json:"landuse_st_type,omitzero"`
	LandUseTheGeom   Field `json:"landuse_the_geom,omitzero"`
}

// RentBoardDetails holds the registry verdict and the newest housing
// inventory submission.
type RentBoardDetails struct {
	RentBoardVerified   bool            `json:"rent_board_verified"`
	RentBoardData       json.RawMessage `json:"rent_board_data"`
	RentBoardUnitsCount int             `json:"rent_board_units_count"`

	RentBoardInventory          *Inventory `json:"rent_board_inventory,omitempty"`
	RentBoardBedroomCount       Field      `json:"rent_board_bedroom_count,omitzero"`
	RentBoardBathroomCount      Field      `json:"rent_board_bathroom_count,omitzero"`
	RentBoardSquareFootage      Field      `json:"rent_board_square_footage,omitzero"`
	RentBoardMonthlyRent        Field      `json:"rent_board_monthly_rent,omitzero"`
	RentBoardOccupancyType      Field      `json:"rent_board_occupancy_type,omitzero"`
	RentBoardUtilities          *Utilities `json:"rent_board_utilities,omitempty"`
	RentBoardYearBuilt          Field      `json:"rent_board_year_built,omitzero"`
	RentBoardNeighborhood       Field      `json:"rent_board_neighborhood,omitzero"`
	RentBoardSupervisorDistrict Field      `json:"rent_board_supervisor_district,omitzero"`
}

// Inventory summarizes the housing inventory rows found for a building.
type Inventory struct {
	UnitsFound int               `json:"units_found"`
	Units      []json.RawMessage `json:"units"`
	TotalUnits Field             `json:"total_units"`
}

// Utilities records which utilities the base rent includes.
type Utilities struct {
	WaterSewer      bool `json:"water_sewer"`
	NaturalGas      bool `json:"natural_gas"`
	Electricity     bool `json:"electricity"`
	RefuseRecycling bool `json:"refuse_recycling"`
}

// PermitEntry is one building permit, newest first.
type PermitEntry struct {
	Description string `json:"description"`
	Status      string `json:"status"`
	FiledDate   string `json:"filed_date"`
	PermitType  string `json:"permit_type"`
}

// EvictionEntry is one eviction notice with its reason flags as labels.
type EvictionEntry struct {
	FileDate           string   `json:"file_date"`
	EvictionReason     []string `json:"eviction_reason"`
	Neighborhood       string   `json:"neighborhood"`
	SupervisorDistrict string   `json:"supervisor_district"`
}

// ComplaintEntry is one housing inspection complaint.
type ComplaintEntry struct {
	DateFiled  string `json:"date_filed"`
	Category   string `json:"category"`
	Type       string `json:"type"`
	Status     string `json:"status"`
	Resolution string `json:"resolution"`
}

// BuyoutEntry is one buyout agreement filing.
type BuyoutEntry struct {
	FilingDate   string `json:"filing_date"`
	BuyoutAmount string `json:"buyout_amount"`
	Neighborhood string `json:"neighborhood"`
}

// ListingAmenities is what a rental listing page says about the unit. Nil
// pointers mean the listing did not mention the feature.
type ListingAmenities struct {
	Parking              *string  `json:"parking"`
	Laundry              *string  `json:"laundry"`
	PetsAllowed          *string  `json:"pets_allowed"`
	Furnished            *string  `json:"furnished"`
	Smoking              *string  `json:"smoking"`
	WheelchairAccessible *string  `json:"wheelchair_accessible"`
	AirConditioning      *string  `json:"air_conditioning"`
	EVCharging           *string  `json:"ev_charging"`
	Title                *string  `json:"listing_title"`
	Price                *string  `json:"listing_price"`
	Sqft                 *string  `json:"listing_sqft"`
	Bedrooms             *string  `json:"listing_bedrooms"`
	Bathrooms            *string  `json:"listing_bathrooms"`
	AvailableDate        *string  `json:"listing_available_date"`
	Images               []string `json:"listing_images"`
}

// NewListingAmenities returns a record with nothing found.
func NewListingAmenities() *ListingAmenities {
	return &ListingAmenities{Images: []string{}}
}

// IsEmpty reports whether nothing at all was extracted.
func (a *ListingAmenities) IsEmpty() bool {
	if a == nil {
		return true
	}
	for _, p := range []*string{
		a.Parking, a.Laundry, a.PetsAllowed, a.Furnished, a.Smoking, a.WheelchairAccessible,
		a.AirConditioning, a.EVCharging, a.Title, a.Price, a.Sqft, a.Bedrooms, a.Bathrooms, a.AvailableDate,
	} {
		if p != nil {
			return false
		}
	}
	return len(a.Images) == 0
}
