// Package zoning answers "which zoning district is this point in" from
// polygon shapefiles loaded into memory.
package zoning

import (
	"fmt"
	"math"
	"strings"

	shp "github.com/jonas-p/go-shp"
)

// districtFields are the attribute columns that carry the district code,
// in the order they are consulted.
var districtFields = []string{"ZONING", "ZONING_SIM", "BASE_ZONIN", "DISTRICT"}

// feature represents a polygon (possibly multi-part) together with its
// attribute table values.
type feature struct {
	parts [][][2]float64    // each part is a closed ring of [y, x] points
	attrs map[string]string // DBF attribute values keyed by upper-cased field name
	minY  float64
	minX  float64
	maxY  float64
	maxX  float64
}

// Layer is a set of zoning polygons in one coordinate system. It is
// read-only after Load and safe for concurrent use.
type Layer struct {
	features []feature
	proj     Projection
}

// Load reads every shapefile in paths. Later files are searched after
// earlier ones, so list the base zoning layer first and overlays after it.
func Load(paths []string, proj Projection) (*Layer, error) {
	if proj == nil {
		proj = WGS84{}
	}
	l := &Layer{proj: proj}
	for _, p := range paths {
		feats, err := loadShapefile(p)
		if err != nil {
			return nil, fmt.Errorf("load zoning shapefile %s: %w", p, err)
		}
		l.features = append(l.features, feats...)
	}
	return l, nil
}

// Len is the number of polygons loaded.
func (l *Layer) Len() int {
	if l == nil {
		return 0
	}
	return len(l.features)
}

func loadShapefile(path string) ([]feature, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	fields := r.Fields()

	var features []feature
	for r.Next() {
		idx, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}

		f := feature{
			parts: make([][][2]float64, len(poly.Parts)),
			attrs: make(map[string]string, len(fields)),
			minY:  math.MaxFloat64,
			minX:  math.MaxFloat64,
			maxY:  -math.MaxFloat64,
			maxX:  -math.MaxFloat64,
		}
		for partIdx := range poly.Parts {
			start := poly.Parts[partIdx]
			end := int32(len(poly.Points))
			if partIdx+1 < len(poly.Parts) {
				end = poly.Parts[partIdx+1]
			}
			ring := make([][2]float64, 0, end-start)
			for _, pt := range poly.Points[start:end] {
				ring = append(ring, [2]float64{pt.Y, pt.X})
				f.minY, f.maxY = math.Min(f.minY, pt.Y), math.Max(f.maxY, pt.Y)
				f.minX, f.maxX = math.Min(f.minX, pt.X), math.Max(f.maxX, pt.X)
			}
			f.parts[partIdx] = ring
		}

		for i, fld := range fields {
			name := strings.ToUpper(strings.TrimSpace(fld.String()))
			f.attrs[name] = strings.TrimSpace(r.ReadAttribute(idx, i))
		}
		features = append(features, f)
	}
	return features, nil
}

// Attributes returns the attribute map of the first polygon that contains
// the WGS-84 point.
func (l *Layer) Attributes(latDeg, lonDeg float64) (map[string]string, bool) {
	if l == nil {
		return nil, false
	}
	y, x := l.proj.Project(latDeg, lonDeg)
	for _, f := range l.features {
		if y < f.minY || y > f.maxY || x < f.minX || x > f.maxX {
			continue
		}
		for _, ring := range f.parts {
			if pointInPolygon(y, x, ring) {
				return f.attrs, true
			}
		}
	}
	return nil, false
}

// District returns the zoning code at the point, e.g. "RH-2".
func (l *Layer) District(latDeg, lonDeg float64) (string, bool) {
	attrs, ok := l.Attributes(latDeg, lonDeg)
	if !ok {
		return "", false
	}
	for _, k := range districtFields {
		if v := attrs[k]; v != "" {
			return v, true
		}
	}
	return "", false
}

// pointInPolygon is the ray-casting test. Shapefile rings are closed, so the
// wrap-around edge is a zero-length no-op.
func pointInPolygon(y, x float64, ring [][2]float64) bool {
	inside := false
	j := len(ring) - 1
	for i := range ring {
		yi, xi := ring[i][0], ring[i][1]
		yj, xj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}
