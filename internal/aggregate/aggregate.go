// Package aggregate builds a property profile: it finds the parcel, queries
// every other dataset for it and hands the results to the reconciler.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sfproperty/internal/address"
	"sfproperty/internal/datasf"
	"sfproperty/internal/listing"
	"sfproperty/internal/logging"
	"sfproperty/internal/reconcile"
	"sfproperty/internal/types"
	"sfproperty/internal/zoning"
)

// User-facing messages of the search flow.
const (
	NoInputMessage     = "Please provide an address or parcel/lot"
	NoDataMessage      = "No data available for this address or parcel/lot."
	ListingOnlyMessage = "No address or parcel/lot provided. Showing listing amenities only."
)

var (
	// ErrNoInput means neither an address nor a parcel was given.
	ErrNoInput = errors.New("no address or parcel/lot provided")
	// ErrNoData means the parcel lookup found nothing, so no profile exists.
	ErrNoData = errors.New("no data available for this address or parcel/lot")
)

// NoDataError reports a parcel lookup that matched nothing. Status tells a
// clean miss apart from a portal failure.
type NoDataError struct {
	Address string
	Parcel  string
	Status  datasf.Status
	Err     error
}

func (e *NoDataError) Error() string {
	key := e.Address
	if e.Parcel != "" {
		key = "parcel " + e.Parcel
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s: %v)", ErrNoData, key, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrNoData, key)
}

func (e *NoDataError) Is(target error) bool { return target == ErrNoData }

func (e *NoDataError) Unwrap() error { return e.Err }

// Aggregator runs lookups. It is safe for concurrent use.
type Aggregator struct {
	client     *datasf.Client
	listings   *listing.Parser
	zoning     *zoning.Layer
	sequential bool
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithZoning fills the zoning field from a local layer when no dataset has
// it.
func WithZoning(l *zoning.Layer) Option {
	return func(a *Aggregator) { a.zoning = l }
}

// Sequential queries the datasets one after another instead of
// concurrently.
func Sequential(on bool) Option {
	return func(a *Aggregator) { a.sequential = on }
}

// New returns an Aggregator. listings may be nil when listing URLs are not
// needed.
func New(client *datasf.Client, listings *listing.Parser, opts ...Option) *Aggregator {
	a := &Aggregator{client: client, listings: listings}
	for _, opt := range opts {
		opt(a)
	}
	if a.listings == nil {
		a.listings = listing.New(0, "")
	}
	return a
}

// Request is one profile lookup.
type Request struct {
	Address string
	Parcel  string // "BLOCK/LOT", "BLOCK" or "BBBBLLL"
	Debug   bool

	// Listing, when set, is merged into the profile.
	Listing *types.ListingAmenities
}

// sources holds every dataset result of one lookup. Each task writes only
// its own field.
type sources struct {
	taxRoll    datasf.Result[types.TaxRollRecord]
	landUse    datasf.Result[types.LandUseRecord]
	rentBoard  datasf.Result[types.RentBoardRecord]
	inventory  datasf.Result[types.InventoryRecord]
	evictions  datasf.Result[types.EvictionRecord]
	complaints datasf.Result[types.ComplaintRecord]
	buyouts    datasf.Result[types.BuyoutRecord]
	permits    datasf.Result[types.PermitRecord]
	geocode    datasf.Result[types.GeocodeRecord]
	trace      datasf.Result[types.ParcelRecord]
}

// Lookup builds the profile for an address or parcel. The parcel record is
// required: without it Lookup returns a *NoDataError and queries nothing
// else.
func (a *Aggregator) Lookup(ctx context.Context, req Request) (*types.Profile, error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	var parcel address.Parcel
	if strings.TrimSpace(req.Parcel) != "" {
		p, err := address.ParseParcel(req.Parcel)
		if err != nil {
			return nil, err
		}
		parcel = p
	}
	query := datasf.NewLookup(req.Address, parcel)
	if query.IsZero() {
		return nil, ErrNoInput
	}

	pres := a.client.Parcel(ctx, query)
	pr, ok := pres.First()
	if !ok {
		log.Info().Str("address", req.Address).Str("parcel", parcel.String()).
			Stringer("status", pres.Status).Msg("no parcel record")
		return nil, &NoDataError{Address: req.Address, Parcel: parcel.String(), Status: pres.Status, Err: pres.Err}
	}

	// The parcel record fills in whichever key the caller left out. A bare
	// block only takes the lot of a record on that same block.
	resolvedParcel := parcel
	if !parcel.HasLot() {
		if p, err := address.ParseParcel(pr.Blklot.String()); err == nil && p.HasLot() &&
			(parcel.IsZero() || p.Block == parcel.Block) {
			resolvedParcel = p
		}
	}
	resolvedAddr := req.Address
	if strings.TrimSpace(resolvedAddr) == "" {
		resolvedAddr = pr.StreetAddress()
	}
	l := datasf.NewLookup(resolvedAddr, resolvedParcel)
	_, hasCentroid := pr.CentroidLatitude.Float()

	var s sources
	tasks := []func(context.Context){
		func(ctx context.Context) { s.taxRoll = a.client.TaxRoll(ctx, l) },
		func(ctx context.Context) { s.landUse = a.client.LandUse(ctx, l) },
		func(ctx context.Context) { s.rentBoard = a.client.RentBoard(ctx, l) },
		func(ctx context.Context) { s.inventory = a.client.Inventory(ctx, l) },
		func(ctx context.Context) { s.evictions = a.client.Evictions(ctx, l) },
		func(ctx context.Context) { s.complaints = a.client.Complaints(ctx, l) },
		func(ctx context.Context) { s.buyouts = a.client.Buyouts(ctx, l) },
		func(ctx context.Context) { s.permits = a.client.Permits(ctx, l) },
	}
	if !hasCentroid {
		tasks = append(tasks, func(ctx context.Context) { s.geocode = a.client.Geocode(ctx, l) })
	}
	if req.Debug {
		// Same query as above, kept apart so the trace never replaces the
		// record the profile is built from.
		tasks = append(tasks, func(ctx context.Context) { s.trace = a.client.Parcel(ctx, query) })
	}
	if err := a.run(ctx, tasks); err != nil {
		return nil, err
	}

	src := reconcile.Sources{
		Address:      req.Address,
		Parcel:       resolvedParcel,
		ParcelRecord: pr,
		TaxRoll:      s.taxRoll.Records,
		RentBoard:    s.rentBoard.Records,
		Inventory:    s.inventory.Records,
		Permits:      s.permits.Records,
		Evictions:    s.evictions.Records,
		Complaints:   s.complaints.Records,
		Buyouts:      s.buyouts.Records,
		Listing:      req.Listing,
	}
	if lu, ok := s.landUse.First(); ok {
		src.LandUse = &lu
	}
	if g, ok := s.geocode.First(); ok {
		src.Geocode = &g
	}
	if lat, lon := reconcile.Coordinates(pr, src.Geocode); lat != nil && a.zoning.Len() > 0 {
		if d, ok := a.zoning.District(*lat, *lon); ok {
			src.Zoning = d
		}
	}

	p := reconcile.Reconcile(src)
	if req.Debug {
		p.Debug = debugInfo(&s)
		p.Debug["parcel_status"] = pres.Status
	}

	log.Info().
		Str("address", p.Address).
		Str("parcel", p.Parcel).
		Dur("elapsed", time.Since(start)).
		Int("evictions", p.EvictionCount).
		Int("complaints", p.ComplaintCount).
		Msg("profile built")
	return p, nil
}

// run executes the dataset tasks, concurrently unless the aggregator is
// sequential. Tasks fold their own failures into their results, so run only
// fails when ctx is done.
func (a *Aggregator) run(ctx context.Context, tasks []func(context.Context)) error {
	if a.sequential {
		for _, t := range tasks {
			t(ctx)
		}
		return ctx.Err()
	}
	var g errgroup.Group
	for _, t := range tasks {
		g.Go(func() error {
			t(ctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
