package zoning

// WGS-84 → state plane Lambert Conformal Conic, US survey feet. Zoning
// shapefiles published in a state plane CRS (see the layer's .prj) need
// parcel coordinates converted before the point-in-polygon test.

import (
	"fmt"
	"math"
	"strings"
)

const (
	ftPerMeter = 3.2808333333333334 // US survey foot
	semiMajorM = 6378137.0          // NAD83 semi-major axis (metres)
	e2         = 0.00669438002290   // NAD83 eccentricity squared
)

// Projection maps WGS-84 degrees onto the coordinate system of a layer. It
// returns (y, x) to match the [y, x] ordering of layer rings.
type Projection interface {
	Project(latDeg, lonDeg float64) (y, x float64)
}

// WGS84 is the identity projection for layers stored in longitude/latitude.
type WGS84 struct{}

func (WGS84) Project(latDeg, lonDeg float64) (float64, float64) { return latDeg, lonDeg }

// LambertParams defines a two-parallel Lambert Conformal Conic zone.
type LambertParams struct {
	Lat0, Lat1, Lat2, Lon0      float64 // degrees
	FalseEasting, FalseNorthing float64 // US feet
}

// CAZone3 is California State Plane Zone III (EPSG:2227), which covers San
// Francisco.
var CAZone3 = LambertParams{
	Lat0:          36.5,
	Lat1:          38.43333333333333,
	Lat2:          37.06666666666667,
	Lon0:          -120.5,
	FalseEasting:  6561666.666666666,
	FalseNorthing: 1640416.666666667,
}

// Lambert is a prepared Lambert Conformal Conic projection.
type Lambert struct {
	p       LambertParams
	n, f    float64
	rho0    float64
	lambda0 float64
}

// NewLambert precomputes the cone constants for p.
func NewLambert(p LambertParams) *Lambert {
	phi0 := p.Lat0 * math.Pi / 180
	phi1 := p.Lat1 * math.Pi / 180
	phi2 := p.Lat2 * math.Pi / 180

	m1, m2 := lccM(phi1), lccM(phi2)
	t1, t2, t0 := lccT(phi1), lccT(phi2), lccT(phi0)

	n := math.Log(m1/m2) / math.Log(t1/t2)
	aFt := semiMajorM * ftPerMeter
	f := aFt * m1 / (n * math.Pow(t1, n))
	return &Lambert{
		p:       p,
		n:       n,
		f:       f,
		rho0:    f * math.Pow(t0, n),
		lambda0: p.Lon0 * math.Pi / 180,
	}
}

func lccM(phi float64) float64 {
	return math.Cos(phi) / math.Sqrt(1-e2*math.Sin(phi)*math.Sin(phi))
}

func lccT(phi float64) float64 {
	e := math.Sqrt(e2)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-e*math.Sin(phi))/(1+e*math.Sin(phi)), e/2)
}

// Project returns (northing, easting) in US feet.
func (l *Lambert) Project(latDeg, lonDeg float64) (float64, float64) {
	phi := latDeg * math.Pi / 180
	lambda := lonDeg * math.Pi / 180

	rho := l.f * math.Pow(lccT(phi), l.n)
	theta := l.n * (lambda - l.lambda0)

	easting := rho*math.Sin(theta) + l.p.FalseEasting
	northing := l.rho0 - rho*math.Cos(theta) + l.p.FalseNorthing
	return northing, easting
}

// ProjectionByName resolves a configured projection: "wgs84" (or empty) and
// "ca-zone3".
func ProjectionByName(name string) (Projection, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "wgs84":
		return WGS84{}, nil
	case "ca-zone3":
		return NewLambert(CAZone3), nil
	}
	return nil, fmt.Errorf("unknown zoning projection %q", name)
}
