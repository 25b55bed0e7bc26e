package aggregate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"sfproperty/internal/address"
	"sfproperty/internal/datasf"
	"sfproperty/internal/listing"
	"sfproperty/internal/types"
	"sfproperty/internal/zoning"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	parcelRow = `{
		"blklot": "0563029", "block_num": "0563", "lot_num": "029",
		"from_address_num": "2989", "street_name": "JACKSON", "street_type": "ST",
		"address": "2989 JACKSON ST",
		"owner": "SMITH FAMILY TRUST",
		"closed_roll_assessed_land_value": "1200000",
		"year_property_built": "1908",
		"number_of_units": "2",
		"centroid_latitude": "37.7905", "centroid_longitude": "-122.4412"
	}`
	taxRollRows = `[
		{"closed_roll_year": "2022", "parcel_number": "0563029", "number_of_bedrooms": "3", "property_location": "0000 2989 JACKSON ST0000"},
		{"closed_roll_year": "2023", "parcel_number": "0563029", "number_of_bedrooms": "4", "property_location": "0000 2989 JACKSON ST0002"}
	]`
	evictionRows = `[{"address": "2989 JACKSON ST", "file_date": "2019-03-04T00:00:00.000", "owner_move_in": true}]`
)

// portal fakes the open data portal. Datasets without a canned body return
// an empty list.
type portal struct {
	mu     sync.Mutex
	bodies map[string]string
	wheres map[string][]string
	status map[string]int
	exact  map[string]string // dataset + " " + $where
}

func newPortal(t *testing.T, bodies map[string]string) (*portal, *datasf.Client) {
	t.Helper()
	p := &portal{bodies: bodies, wheres: map[string][]string{}, status: map[string]int{}, exact: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dataset := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/resource/"), ".json")
		p.mu.Lock()
		where := r.URL.Query().Get("$where")
		p.wheres[dataset] = append(p.wheres[dataset], where)
		body, ok := p.bodies[dataset]
		if b, hit := p.exact[dataset+" "+where]; hit {
			body, ok = b, true
		}
		code := p.status[dataset]
		p.mu.Unlock()
		if code != 0 {
			http.Error(w, "unavailable", code)
			return
		}
		if !ok {
			body = "[]"
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	hc := &http.Client{Timeout: time.Second, Transport: &http.Transport{DisableKeepAlives: true}}
	return p, datasf.New(srv.URL+"/resource", time.Second, datasf.WithHTTPClient(hc))
}

func (p *portal) seen(dataset string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.wheres[dataset]...)
}

// answer serves body only for the given filter on dataset.
func (p *portal) answer(dataset, where, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exact[dataset+" "+where] = body
}

func (p *portal) fail(dataset string, code int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status[dataset] = code
}

func TestLookupByParcel(t *testing.T) {
	p, client := newPortal(t, map[string]string{
		datasf.ParcelDataset:   "[" + parcelRow + "]",
		datasf.TaxRollDataset:  taxRollRows,
		datasf.EvictionDataset: evictionRows,
	})
	agg := New(client, nil)

	prof, err := agg.Lookup(context.Background(), Request{Parcel: "563/29"})
	require.NoError(t, err)

	assert.Equal(t, "0563/029", prof.Parcel)
	assert.Equal(t, "2989 JACKSON ST", prof.Address, "address comes from the parcel record")
	assert.Equal(t, "SMITH FAMILY TRUST", prof.Owner)
	assert.Equal(t, "$1,200,000", prof.AssessedValue)
	assert.Equal(t, "4", prof.Bedrooms, "most recent tax roll year wins")
	require.NotNil(t, prof.UnitNumber)
	assert.Equal(t, "Unit 2", *prof.UnitNumber)
	assert.Equal(t, 1, prof.EvictionCount)
	assert.Equal(t, "Likely Yes (Built before 1979)", prof.RentControlled)
	require.NotNil(t, prof.Lat)
	assert.InDelta(t, 37.7905, *prof.Lat, 1e-9)
	assert.Nil(t, prof.Debug)

	assert.Equal(t, []string{"blklot = '0563029'"}, p.seen(datasf.ParcelDataset))
	assert.Equal(t, []string{"parcel_number = '0563029'"}, p.seen(datasf.TaxRollDataset))
	// street-keyed datasets use the address resolved from the parcel record
	require.Len(t, p.seen(datasf.EvictionDataset), 1)
	assert.Contains(t, p.seen(datasf.EvictionDataset)[0], "2989 JACKSON ST")
	assert.Empty(t, p.seen(datasf.AddressPtsDataset), "centroid known, no geocoding")
}

func TestLookupByAddressResolvesParcel(t *testing.T) {
	p, client := newPortal(t, map[string]string{
		datasf.ParcelDataset: "[" + parcelRow + "]",
	})
	agg := New(client, nil)

	prof, err := agg.Lookup(context.Background(), Request{Address: "2989 Jackson Street, San Francisco"})
	require.NoError(t, err)
	assert.Equal(t, "2989 Jackson Street, San Francisco", prof.Address)
	assert.Equal(t, "0563/029", prof.Parcel)
	assert.Equal(t, []string{"parcel_number = '0563029'"}, p.seen(datasf.TaxRollDataset))
}

const otherLotRow = `[{
	"blklot": "0012099", "block_num": "0012", "lot_num": "099",
	"address": "40 OTHER ST", "owner": "SOMEONE ELSE LLC", "year_property_built": "1925"
}]`

func TestLookupBareBlockIsNotAnyLot(t *testing.T) {
	p, client := newPortal(t, nil)
	p.answer(datasf.ParcelDataset, "blklot = '0012099'", otherLotRow)
	p.answer(datasf.RentBoardDataset, "block = '0012'", `[{"block":"0012","lot":"099"}]`)
	agg := New(client, nil)

	_, err := agg.Lookup(context.Background(), Request{Parcel: "12"})
	require.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, []string{"blklot = '0012'"}, p.seen(datasf.ParcelDataset))
	assert.Empty(t, p.seen(datasf.TaxRollDataset))
	assert.Empty(t, p.seen(datasf.RentBoardDataset))
}

func TestLookupBareBlockWithAddress(t *testing.T) {
	p, client := newPortal(t, nil)
	p.answer(datasf.ParcelDataset, "UPPER(address) = '2989 JACKSON ST'", "["+parcelRow+"]")
	p.answer(datasf.RentBoardDataset, "block = '0012'", `[{"block":"0012","lot":"099"}]`)
	agg := New(client, nil)

	// The address matched a record on another block: keep the block given.
	prof, err := agg.Lookup(context.Background(), Request{Parcel: "12", Address: "2989 Jackson St"})
	require.NoError(t, err)
	assert.Equal(t, "0012", prof.Parcel)
	assert.Equal(t, "Likely Yes (Built before 1979)", prof.RentControlled)
	assert.Empty(t, p.seen(datasf.TaxRollDataset))
	for _, w := range p.seen(datasf.RentBoardDataset) {
		assert.NotContains(t, w, "block =")
	}

	// On the same block the record supplies the lot.
	prof, err = agg.Lookup(context.Background(), Request{Parcel: "563", Address: "2989 Jackson St"})
	require.NoError(t, err)
	assert.Equal(t, "0563/029", prof.Parcel)
	assert.Contains(t, p.seen(datasf.TaxRollDataset), "parcel_number = '0563029'")
}

func TestLookupNoParcelRecord(t *testing.T) {
	p, client := newPortal(t, nil)
	agg := New(client, nil)

	_, err := agg.Lookup(context.Background(), Request{Address: "1 NOWHERE ST"})
	require.ErrorIs(t, err, ErrNoData)
	var nd *NoDataError
	require.ErrorAs(t, err, &nd)
	assert.Equal(t, datasf.NotFound, nd.Status)

	assert.NotEmpty(t, p.seen(datasf.ParcelDataset))
	for _, ds := range []string{datasf.TaxRollDataset, datasf.EvictionDataset, datasf.RentBoardDataset} {
		assert.Empty(t, p.seen(ds), "%s queried without a parcel record", ds)
	}
}

func TestLookupParcelPortalDown(t *testing.T) {
	p, client := newPortal(t, nil)
	p.fail(datasf.ParcelDataset, http.StatusServiceUnavailable)

	_, err := New(client, nil).Lookup(context.Background(), Request{Parcel: "0563/029"})
	var nd *NoDataError
	require.ErrorAs(t, err, &nd)
	assert.Equal(t, datasf.TransportError, nd.Status)
	var apiErr *datasf.APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestLookupInputErrors(t *testing.T) {
	_, client := newPortal(t, nil)
	agg := New(client, nil)

	_, err := agg.Lookup(context.Background(), Request{Address: "  "})
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = agg.Lookup(context.Background(), Request{Parcel: "12a/3"})
	assert.ErrorIs(t, err, address.ErrInvalidParcel)
}

func TestLookupDegradesPerSource(t *testing.T) {
	p, client := newPortal(t, map[string]string{
		datasf.ParcelDataset:  "[" + parcelRow + "]",
		datasf.TaxRollDataset: taxRollRows,
	})
	p.fail(datasf.EvictionDataset, http.StatusInternalServerError)
	p.fail(datasf.RentBoardDataset, http.StatusInternalServerError)

	prof, err := New(client, nil).Lookup(context.Background(), Request{Parcel: "0563/029", Debug: true})
	require.NoError(t, err)
	assert.Equal(t, 0, prof.EvictionCount)
	assert.NotNil(t, prof.EvictionHistory)
	assert.Equal(t, "Likely Yes (Built before 1979)", prof.RentControlled, "failed registry query reads as no hit")

	status := prof.Debug["source_status"].(map[string]datasf.Status)
	assert.Equal(t, datasf.TransportError, status["evictions"])
	assert.Equal(t, datasf.Found, status["tax_roll"])
}

func TestLookupDebug(t *testing.T) {
	p, client := newPortal(t, map[string]string{
		datasf.ParcelDataset:  "[" + parcelRow + "]",
		datasf.TaxRollDataset: taxRollRows,
	})
	prof, err := New(client, nil).Lookup(context.Background(), Request{Parcel: "0563/029", Debug: true})
	require.NoError(t, err)
	require.NotNil(t, prof.Debug)

	assert.Equal(t, map[string]string{"$where": "blklot = '0563029'", "$limit": "1"}, prof.Debug["parcel_query"])
	assert.Len(t, prof.Debug["parcel_raw"], 1)
	assert.Len(t, prof.Debug["historical_taxroll_raw"], 2)
	assert.Equal(t, "No eviction data returned", prof.Debug["eviction_raw"])
	assert.Equal(t, "No Land Use data returned", prof.Debug["landuse_raw"])
	assert.Equal(t, "No Rent Board Housing Inventory data returned", prof.Debug["rent_board_inventory_raw"])
	assert.Len(t, p.seen(datasf.ParcelDataset), 2, "debug re-runs the parcel query")

	// the profile still encodes
	_, err = json.Marshal(prof)
	assert.NoError(t, err)
}

func TestSequentialMatchesConcurrent(t *testing.T) {
	_, client := newPortal(t, map[string]string{
		datasf.ParcelDataset:   "[" + parcelRow + "]",
		datasf.TaxRollDataset:  taxRollRows,
		datasf.EvictionDataset: evictionRows,
	})
	ctx := context.Background()
	req := Request{Address: "2989 JACKSON ST"}

	concurrent, err := New(client, nil).Lookup(ctx, req)
	require.NoError(t, err)
	sequential, err := New(client, nil, Sequential(true)).Lookup(ctx, req)
	require.NoError(t, err)

	if diff := cmp.Diff(concurrent, sequential, cmp.AllowUnexported(types.Field{})); diff != "" {
		t.Errorf("sequential lookup differs (-concurrent +sequential):\n%s", diff)
	}
}

func TestLookupCancelled(t *testing.T) {
	_, client := newPortal(t, map[string]string{datasf.ParcelDataset: "[" + parcelRow + "]"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(client, nil).Lookup(ctx, Request{Parcel: "0563/029"})
	assert.Error(t, err)
}

// writeZoning writes a one-square zoning layer around (lat, lon).
func writeZoning(t *testing.T, code string, lat, lon float64) *zoning.Layer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zoning.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("ZONING", 16)}))
	const d = 0.001
	line := shp.NewPolyLine([][]shp.Point{{
		{X: lon - d, Y: lat - d},
		{X: lon - d, Y: lat + d},
		{X: lon + d, Y: lat + d},
		{X: lon + d, Y: lat - d},
		{X: lon - d, Y: lat - d},
	}})
	poly := shp.Polygon(*line)
	require.NoError(t, w.WriteAttribute(int(w.Write(&poly)), 0, code))
	w.Close()

	layer, err := zoning.Load([]string{path}, zoning.WGS84{})
	require.NoError(t, err)
	return layer
}

func TestGeocodeFallbackAndZoningLayer(t *testing.T) {
	noCentroid := `[{"blklot": "0563029", "address": "2989 JACKSON ST", "year_property_built": "1985"}]`
	p, client := newPortal(t, map[string]string{
		datasf.ParcelDataset:     noCentroid,
		datasf.AddressPtsDataset: `[{"address": "2989 JACKSON ST", "latitude": "37.7905", "longitude": "-122.4412"}]`,
	})
	agg := New(client, nil, WithZoning(writeZoning(t, "RH-2", 37.7905, -122.4412)))

	prof, err := agg.Lookup(context.Background(), Request{Parcel: "0563029"})
	require.NoError(t, err)
	assert.Len(t, p.seen(datasf.AddressPtsDataset), 1)
	require.NotNil(t, prof.Lon)
	assert.InDelta(t, -122.4412, *prof.Lon, 1e-9)
	assert.Equal(t, "RH-2", prof.Zoning)
	assert.Equal(t, "Likely No (Built after 1979)", prof.RentControlled)
}

func listingServer(t *testing.T) (string, *listing.Parser) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<span id="titletextonly">Sunny flat</span>
			<span class="housing">/ 2br - 1ba - 900ft2</span>
			<div class="attrgroup"><span>laundry in bldg</span></div>
		</body></html>`))
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/craigslist/apa/d/sunny-flat.html", listing.New(time.Second, "")
}

func TestSearchListingOnly(t *testing.T) {
	_, client := newPortal(t, nil)
	url, parser := listingServer(t)

	res, err := New(client, parser).Search(context.Background(), SearchRequest{URL: url})
	require.NoError(t, err)
	assert.Nil(t, res.Profile)
	assert.Equal(t, ListingOnlyMessage, res.Warning)
	a := res.Data["listing_amenities"].(*types.ListingAmenities)
	require.NotNil(t, a.Title)
	assert.Equal(t, "Sunny flat", *a.Title)
}

func TestSearchNoInput(t *testing.T) {
	_, client := newPortal(t, nil)
	agg := New(client, nil)

	_, err := agg.Search(context.Background(), SearchRequest{})
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = agg.Search(context.Background(), SearchRequest{URL: "https://www.zillow.com/homedetails/x"})
	assert.ErrorIs(t, err, ErrNoInput, "unsupported listing sites give no amenities")
}

func TestSearchNoData(t *testing.T) {
	_, client := newPortal(t, nil)
	url, parser := listingServer(t)
	agg := New(client, parser)

	res, err := agg.Search(context.Background(), SearchRequest{Address: "1 NOWHERE ST"})
	require.NoError(t, err)
	assert.Equal(t, NoDataMessage, res.Warning)
	assert.Empty(t, res.Data)

	res, err = agg.Search(context.Background(), SearchRequest{Address: "1 NOWHERE ST", URL: url})
	require.NoError(t, err)
	assert.Equal(t, NoDataMessage, res.Warning)
	assert.Contains(t, res.Data, "listing_amenities")
	assert.NotContains(t, res.Data, "debug")
}

func TestSearchNoDataKeepsDebugTrace(t *testing.T) {
	_, client := newPortal(t, nil)
	agg := New(client, nil)

	res, err := agg.Search(context.Background(), SearchRequest{Address: "1 Nowhere St", Parcel: "1/2", Debug: true})
	require.NoError(t, err)
	assert.Equal(t, NoDataMessage, res.Warning)
	assert.Equal(t, map[string]any{
		"address":       "1 Nowhere St",
		"parcel":        "0001/002",
		"parcel_status": datasf.NotFound,
	}, res.Data["debug"])
}

func TestSearchMergesListing(t *testing.T) {
	_, client := newPortal(t, map[string]string{datasf.ParcelDataset: "[" + parcelRow + "]"})
	url, parser := listingServer(t)

	res, err := New(client, parser).Search(context.Background(), SearchRequest{Parcel: "0563/029", URL: url})
	require.NoError(t, err)
	require.NotNil(t, res.Profile)
	assert.Empty(t, res.Warning)
	require.NotNil(t, res.Profile.ListingAmenities)
	assert.Equal(t, "2", res.Profile.Bedrooms, "listing fills rooms no dataset had")
	assert.Equal(t, "1", res.Profile.Bathrooms)
}

func TestSearchInvalidParcel(t *testing.T) {
	_, client := newPortal(t, nil)
	_, err := New(client, nil).Search(context.Background(), SearchRequest{Parcel: "abcd"})
	assert.ErrorIs(t, err, address.ErrInvalidParcel)
}
