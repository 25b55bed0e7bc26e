package datasf

import (
	"context"

	"sfproperty/internal/address"
	"sfproperty/internal/soql"
	"sfproperty/internal/types"
)

// Dataset identifiers on data.sfgov.org.
const (
	ParcelDataset     = "acdm-wktn"
	TaxRollDataset    = "wv5m-vpq2"
	LandUseDataset    = "fdfd-xptc"
	RentBoardDataset  = "q4sy-bxrt"
	InventoryDataset  = "gdc7-dmcn"
	EvictionDataset   = "5cei-gny5"
	ComplaintDataset  = "7d5q-jf8x"
	BuyoutDataset     = "wmam-7g8d"
	PermitDataset     = "i98e-djp9"
	AddressPtsDataset = "wr8u-xric"
)

// Lookup is the key a property is searched by. Either part may be empty.
type Lookup struct {
	Parcel  address.Parcel
	Address string // normalized first segment, e.g. "2989 JACKSON ST"
	Street  address.Street
	street  bool
}

// NewLookup normalizes a free-text address for matching.
func NewLookup(addr string, parcel address.Parcel) Lookup {
	l := Lookup{Parcel: parcel, Address: address.Normalize(address.FirstSegment(addr))}
	l.Street, l.street = address.SplitStreet(addr)
	return l
}

// HasStreet reports whether the address has a house number and street name.
func (l Lookup) HasStreet() bool { return l.street }

// IsZero reports whether there is nothing to search by.
func (l Lookup) IsZero() bool { return l.Parcel.IsZero() && l.Address == "" }

func (l Lookup) firstWordPrefix() (string, bool) {
	if !l.street {
		return "", false
	}
	fw := l.Street.Number + " " + l.Street.FirstWord()
	return fw, fw != l.Street.String()
}

// addressLadder appends the exact, prefix and first-word strategies for an
// address column. limit applies to each.
func (l Lookup) addressLadder(ladder []strategy, col string, exact bool, limit int) []strategy {
	if exact && l.Address != "" {
		ladder = append(ladder, strategy{"address_exact", soql.New().UpperEq(col, l.Address).Limit(limit)})
	}
	if l.street {
		ladder = append(ladder, strategy{"address_prefix", soql.New().Prefix(col, l.Street.String()).Limit(limit)})
		if fw, ok := l.firstWordPrefix(); ok {
			ladder = append(ladder, strategy{"address_first_word", soql.New().Prefix(col, fw).Limit(limit)})
		}
	}
	return ladder
}

// Parcel finds the assessor parcel record. It is the one lookup the rest of
// the profile depends on.
func (c *Client) Parcel(ctx context.Context, l Lookup) Result[types.ParcelRecord] {
	var ladder []strategy
	if !l.Parcel.IsZero() {
		// Exact key only. A bare block matches no blklot, never some lot on
		// the block.
		ladder = append(ladder, strategy{"parcel_key", soql.New().Eq("blklot", l.Parcel.Key()).Limit(1)})
	}
	ladder = l.addressLadder(ladder, "address", true, 5)
	return fetch[types.ParcelRecord](ctx, c, ParcelDataset, ladder)
}

// TaxRoll returns up to five historical tax roll rows for the parcel, most
// recent roll year first.
func (c *Client) TaxRoll(ctx context.Context, l Lookup) Result[types.TaxRollRecord] {
	var ladder []strategy
	if l.Parcel.HasLot() {
		ladder = append(ladder, strategy{"parcel_key",
			soql.New().Eq("parcel_number", l.Parcel.Key()).OrderDesc("closed_roll_year").Limit(5)})
	}
	return fetch[types.TaxRollRecord](ctx, c, TaxRollDataset, ladder)
}

// LandUse returns the land use record for the parcel.
func (c *Client) LandUse(ctx context.Context, l Lookup) Result[types.LandUseRecord] {
	var ladder []strategy
	if l.Parcel.HasLot() {
		ladder = append(ladder, strategy{"parcel_key", soql.New().Eq("mapblklot", l.Parcel.Key()).Limit(1)})
	}
	ladder = l.addressLadder(ladder, "address", false, 1)
	return fetch[types.LandUseRecord](ctx, c, LandUseDataset, ladder)
}

// RentBoard searches the rent ordinance registry. Any match means the
// building is on the registry, so a bare block is never searched on its own.
func (c *Client) RentBoard(ctx context.Context, l Lookup) Result[types.RentBoardRecord] {
	var ladder []strategy
	if l.Parcel.HasLot() {
		ladder = append(ladder, strategy{"parcel_key",
			soql.New().Eq("block", l.Parcel.Block).Eq("lot", l.Parcel.Lot).Limit(5)})
	}
	ladder = l.addressLadder(ladder, "location", false, 5)
	return fetch[types.RentBoardRecord](ctx, c, RentBoardDataset, ladder)
}

// Inventory returns the newest housing inventory submissions for the block,
// or for the street when no parcel is known.
func (c *Client) Inventory(ctx context.Context, l Lookup) Result[types.InventoryRecord] {
	var ladder []strategy
	if !l.Parcel.IsZero() {
		ladder = append(ladder, strategy{"parcel_block",
			soql.New().Eq("block_num", l.Parcel.Block).OrderDesc("submission_year").Limit(10)})
	}
	if l.street {
		ladder = append(ladder, strategy{"street_name",
			soql.New().Contains("block_address", l.Street.Name).OrderDesc("submission_year").Limit(10)})
	}
	return fetch[types.InventoryRecord](ctx, c, InventoryDataset, ladder)
}

// Evictions returns eviction notices filed for the street address, newest
// first.
func (c *Client) Evictions(ctx context.Context, l Lookup) Result[types.EvictionRecord] {
	var ladder []strategy
	if l.street {
		ladder = append(ladder, strategy{"address_contains",
			soql.New().Contains("address", l.Street.String()).OrderDesc("file_date").Limit(20)})
	}
	return fetch[types.EvictionRecord](ctx, c, EvictionDataset, ladder)
}

// Complaints returns housing complaints whose block address mentions both the
// house number and the street name without its type.
func (c *Client) Complaints(ctx context.Context, l Lookup) Result[types.ComplaintRecord] {
	var ladder []strategy
	if l.street {
		ladder = append(ladder, strategy{"address_contains",
			soql.New().
				Contains("block_address", l.Street.Number).
				Contains("block_address", l.Street.BaseName()).
				OrderDesc("date_filed").
				Limit(20)})
	}
	return fetch[types.ComplaintRecord](ctx, c, ComplaintDataset, ladder)
}

// Buyouts returns buyout agreement filings for the street address.
func (c *Client) Buyouts(ctx context.Context, l Lookup) Result[types.BuyoutRecord] {
	var ladder []strategy
	if l.street {
		ladder = append(ladder, strategy{"address_contains",
			soql.New().Contains("address", l.Street.String()).OrderDesc("filing_date").Limit(10)})
	}
	return fetch[types.BuyoutRecord](ctx, c, BuyoutDataset, ladder)
}

// Permits returns the newest building permits for the street address.
func (c *Client) Permits(ctx context.Context, l Lookup) Result[types.PermitRecord] {
	var ladder []strategy
	if l.street {
		ladder = append(ladder, strategy{"street_number_name",
			soql.New().
				Eq("street_number", l.Street.Number).
				Contains("street_name", l.Street.BaseName()).
				OrderDesc("filed_date").
				Limit(5)})
	}
	return fetch[types.PermitRecord](ctx, c, PermitDataset, ladder)
}

// Geocode finds an address point for the street address.
func (c *Client) Geocode(ctx context.Context, l Lookup) Result[types.GeocodeRecord] {
	var ladder []strategy
	switch {
	case l.street:
		ladder = append(ladder, strategy{"address_contains", soql.New().Contains("address", l.Street.String()).Limit(1)})
	case l.Address != "":
		ladder = append(ladder, strategy{"address_contains", soql.New().Contains("address", l.Address).Limit(1)})
	}
	return fetch[types.GeocodeRecord](ctx, c, AddressPtsDataset, ladder)
}
