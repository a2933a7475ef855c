// Package quiz provides the geometry helpers used to place markers and score answers.
package quiz

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/paulmach/orb/geo"
	"github.com/uber/h3-go/v4"

	"github.com/geoquiz/hintkit/internal/core/model"
)

// latitude band used for random points; polar regions are excluded
const (
	minLat = -85.0
	maxLat = 85.0
	minLng = -180.0
	maxLng = 180.0
)

// Generator draws random quiz points from its own source.
// It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator returns a deterministic generator for the given seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *Generator) RandomPoint() model.GeoPoint {
	g.mu.Lock()
	u, v := g.rnd.Float64(), g.rnd.Float64()
	g.mu.Unlock()
	return pointFrom(u, v)
}

// RandomPoint draws lng from [-180,180) and lat from [-85,85) using the global source.
func RandomPoint() model.GeoPoint {
	return pointFrom(rand.Float64(), rand.Float64())
}

func pointFrom(u, v float64) model.GeoPoint {
	return model.GeoPoint{
		Lng: scale(u, minLng, maxLng),
		Lat: scale(v, minLat, maxLat),
	}
}

// maps u in [0,1) onto [lo,hi); rounding may land on hi, which is excluded
func scale(u, lo, hi float64) float64 {
	x := lo + (hi-lo)*u
	if x >= hi {
		x = math.Nextafter(hi, lo)
	}
	return x
}

// CalcDistance returns the great-circle distance between two points in kilometres.
func CalcDistance(p1, p2 model.GeoPoint) float64 {
	return h3.GreatCircleDistanceKm(h3.NewLatLng(p1.Lat, p1.Lng), h3.NewLatLng(p2.Lat, p2.Lng))
}

// SamePoint reports exact coordinate equality. No tolerance is applied.
func SamePoint(p1, p2 model.GeoPoint) bool {
	return p1.Lng == p2.Lng && p1.Lat == p2.Lat
}

// PointCell returns the h3 cell containing p at resolution res.
func PointCell(p model.GeoPoint, res int) (string, error) {
	c, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), res)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// HintBounds returns a bbox extending radiusKm from center in each direction.
// The box is clamped at the antimeridian and the poles instead of wrapping,
// so minLng < maxLng always holds.
func HintBounds(center model.GeoPoint, radiusKm float64) model.BBox {
	b := model.BBoxFromBound(geo.NewBoundAroundPoint(center.Point(), radiusKm*1000))
	if math.IsNaN(b[0]) || math.IsNaN(b[2]) {
		b[0], b[2] = minLng, maxLng
	}
	if b[0] > b[2] {
		if center.Lng >= 0 {
			b[2] = maxLng
		} else {
			b[0] = minLng
		}
	}
	b[0] = math.Max(b[0], minLng)
	b[2] = math.Min(b[2], maxLng)
	b[1] = math.Max(b[1], -90)
	b[3] = math.Min(b[3], 90)
	if b[0] >= b[2] {
		b[0], b[2] = minLng, maxLng
	}
	return b
}
