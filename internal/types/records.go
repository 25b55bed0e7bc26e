package types

import "encoding/json"

// Records decoded from the DataSF datasets. Only the columns the profile reads
// are named; the embedded Row keeps the whole payload for debug output.

// Row holds the undecoded JSON of a record.
type Row struct {
	Raw json.RawMessage `json:"-"`
}

// SetRaw stores the payload the record was decoded from.
func (r *Row) SetRaw(b json.RawMessage) { r.Raw = b }

// ParcelRecord is a row of the assessor parcel dataset (acdm-wktn).
type ParcelRecord struct {
	Blklot                   Field `json:"blklot"`
	Block                    Field `json:"block_num"`
	Lot                      Field `json:"lot_num"`
	Address                  Field `json:"address"`
	FromAddressNum           Field `json:"from_address_num"`
	StreetName               Field `json:"street_name"`
	StreetType               Field `json:"street_type"`
	Owner                    Field `json:"owner"`
	FixturesValue            Field `json:"closed_roll_assessed_fixtures_value"`
	LandValue                Field `json:"closed_roll_assessed_land_value"`
	YearPropertyBuilt        Field `json:"year_property_built"`
	PropertyClassDescription Field `json:"property_class_description"`
	NumberOfUnits            Field `json:"number_of_units"`
	NumberOfBedrooms         Field `json:"number_of_bedrooms"`
	NumberOfBathrooms        Field `json:"number_of_bathrooms"`
	NumberOfRooms            Field `json:"number_of_rooms"`
	BuildingSqft             Field `json:"building_sqft"`
	LotArea                  Field `json:"lot_area"`
	ZoningDistrict           Field `json:"zoning_district"`
	CentroidLatitude         Field `json:"centroid_latitude"`
	CentroidLongitude        Field `json:"centroid_longitude"`

	Row
}

// StreetAddress rebuilds "number name type" from the split address columns,
// falling back to the address column.
func (p ParcelRecord) StreetAddress() string {
	if num, ok := p.FromAddressNum.Value(); ok {
		s := num
		for _, part := range []Field{p.StreetName, p.StreetType} {
			if v, ok := part.Value(); ok {
				s += " " + v
			}
		}
		return s
	}
	return p.Address.String()
}

// TaxRollRecord is a row of the historical secured tax roll (wv5m-vpq2).
type TaxRollRecord struct {
	ClosedRollYear              Field `json:"closed_roll_year"`
	ParcelNumber                Field `json:"parcel_number"`
	PropertyLocation            Field `json:"property_location"`
	Owner                       Field `json:"owner"`
	AssessedFixturesValue       Field `json:"assessed_fixtures_value"`
	AssessedLandValue           Field `json:"assessed_land_value"`
	AssessedImprovementValue    Field `json:"assessed_improvement_value"`
	YearPropertyBuilt           Field `json:"year_property_built"`
	PropertyClassCode           Field `json:"property_class_code"`
	PropertyClassCodeDefinition Field `json:"property_class_code_definition"`
	UseCode                     Field `json:"use_code"`
	UseDefinition               Field `json:"use_definition"`
	SupervisorDistrict          Field `json:"supervisor_district"`
	ZoningCode                  Field `json:"zoning_code"`
	NumberOfUnits               Field `json:"number_of_units"`
	NumberOfRooms               Field `json:"number_of_rooms"`
	NumberOfBathrooms           Field `json:"number_of_bathrooms"`
	NumberOfBedrooms            Field `json:"number_of_bedrooms"`
	PropertyArea                Field `json:"property_area"`

	Row
}

// LandUseRecord is a row of the land use dataset (fdfd-xptc).
type LandUseRecord struct {
	MapBlklot Field `json:"mapblklot"`
	Blklot    Field `json:"blklot"`
	Address   Field `json:"address"`
	Owner     Field `json:"owner"`
	YrBuilt   Field `json:"yrbuilt"`
	LandUse   Field `json:"landuse"`
	ResUnits  Field `json:"resunits"`
	BldgSqft  Field `json:"bldgsqft"`
	LotSqft   Field `json:"lotsqft"`
	Zoning    Field `json:"zoning"`
	ResType   Field `json:"restype"`
	Res       Field `json:"res"`
	TotalComm Field `json:"totalcomm"`
	CIE       Field `json:"cie"`
	Med       Field `json:"med"`
	MIPS      Field `json:"mips"`
	Retail    Field `json:"retail"`
	PDR       Field `json:"pdr"`
	Visitor   Field `json:"visitor"`
	FromSt    Field `json:"from_st"`
	ToSt      Field `json:"to_st"`
	Street    Field `json:"street"`
	StType    Field `json:"st_type"`
	TheGeom   Field `json:"the_geom"`

	Row
}

// RentBoardRecord is a row of the rent ordinance registry (q4sy-bxrt).
type RentBoardRecord struct {
	Location Field `json:"location"`
	Block    Field `json:"block"`
	Lot      Field `json:"lot"`

	Row
}

// InventoryRecord is one unit submission in the rent board housing
// inventory (gdc7-dmcn).
type InventoryRecord struct {
	BlockNum                        Field `json:"block_num"`
	BlockAddress                    Field `json:"block_address"`
	SubmissionYear                  Field `json:"submission_year"`
	UnitCount                       Field `json:"unit_count"`
	BedroomCount                    Field `json:"bedroom_count"`
	BathroomCount                   Field `json:"bathroom_count"`
	SquareFootage                   Field `json:"square_footage"`
	MonthlyRent                     Field `json:"monthly_rent"`
	OccupancyType                   Field `json:"occupancy_type"`
	BaseRentIncludesWaterSewer      Field `json:"base_rent_includes_water_sewer"`
	BaseRentIncludesNaturalGas      Field `json:"base_rent_includes_natural_gas"`
	BaseRentIncludesElectricity     Field `json:"base_rent_includes_electricity"`
	BaseRentIncludesRefuseRecycling Field `json:"base_rent_includes_refuse_recycling"`
	YearPropertyBuilt               Field `json:"year_property_built"`
	AnalysisNeighborhood            Field `json:"analysis_neighborhood"`
	SupervisorDistrict              Field `json:"supervisor_district"`

	Row
}

// EvictionRecord is an eviction notice (5cei-gny5). The reason columns are
// boolean flags.
type EvictionRecord struct {
	Address            Field `json:"address"`
	FileDate           Field `json:"file_date"`
	Neighborhood       Field `json:"neighborhood"`
	SupervisorDistrict Field `json:"supervisor_district"`

	NonPayment           Field `json:"non_payment"`
	Breach               Field `json:"breach"`
	Nuisance             Field `json:"nuisance"`
	IllegalUse           Field `json:"illegal_use"`
	FailureToSignRenewal Field `json:"failure_to_sign_renewal"`
	AccessDenial         Field `json:"access_denial"`
	UnapprovedSubtenant  Field `json:"unapproved_subtenant"`
	OwnerMoveIn          Field `json:"owner_move_in"`
	Demolition           Field `json:"demolition"`
	CapitalImprovement   Field `json:"capital_improvement"`
	SubstantialRehab     Field `json:"substantial_rehab"`
	EllisActWithdrawal   Field `json:"ellis_act_withdrawal"`
	CondoConversion      Field `json:"condo_conversion"`
	RoommateSameUnit     Field `json:"roommate_same_unit"`
	OtherCause           Field `json:"other_cause"`
	LatePayments         Field `json:"late_payments"`
	LeadRemediation      Field `json:"lead_remediation"`
	Development          Field `json:"development"`
	GoodSamaritanEnds    Field `json:"good_samaritan_ends"`

	Row
}

// ComplaintRecord is a housing inspection complaint (7d5q-jf8x).
type ComplaintRecord struct {
	BlockAddress Field `json:"block_address"`
	DateFiled    Field `json:"date_filed"`
	Category     Field `json:"category"`
	Type         Field `json:"type"`
	Status       Field `json:"status"`
	Resolution   Field `json:"resolution"`

	Row
}

// BuyoutRecord is a tenant buyout agreement filing (wmam-7g8d).
type BuyoutRecord struct {
	Address      Field `json:"address"`
	FilingDate   Field `json:"filing_date"`
	BuyoutAmount Field `json:"buyout_amount"`
	Neighborhood Field `json:"neighborhood"`

	Row
}

// PermitRecord is a building permit (i98e-djp9).
type PermitRecord struct {
	PermitNumber Field `json:"permit_number"`
	StreetNumber Field `json:"street_number"`
	StreetName   Field `json:"street_name"`
	Description  Field `json:"description"`
	Status       Field `json:"status"`
	FiledDate    Field `json:"filed_date"`
	PermitType   Field `json:"permit_type"`

	Row
}

// GeocodeRecord is a row of the address points dataset (wr8u-xric).
type GeocodeRecord struct {
	Address   Field `json:"address"`
	Latitude  Field `json:"latitude"`
	Longitude Field `json:"longitude"`

	Row
}
