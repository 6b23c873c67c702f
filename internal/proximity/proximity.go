// Package proximity turns a wrong geographic guess into a graded hot/cold
// signal: great-circle distance, a discrete temperature band, and a trend
// against the player's previous guess in the same round.
package proximity

import (
	"math"

	"github.com/geoclash/geoclash/internal/geoclash"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the haversine formula.
	EarthRadiusKm = 6371
	// UnknownDistanceKm is the sentinel reported for degenerate inputs
	// instead of propagating NaN or an unbounded value.
	UnknownDistanceKm = 5000
	// MaxDistanceKm caps the reported distance at half the Earth's
	// circumference to bound presentation.
	MaxDistanceKm = 20000
)

// bandBreakpoints are the upper bounds (exclusive) of each band except the
// last; distances at or beyond the final breakpoint fall in the last band.
var bandBreakpoints = [10]float64{100, 200, 350, 500, 650, 800, 1200, 1800, 2500, 5000}

var bands = [11]geoclash.Band{
	geoclash.BandVeryClose,
	geoclash.BandClose,
	geoclash.BandWarm,
	geoclash.BandMild,
	geoclash.BandCool,
	geoclash.BandCold,
	geoclash.BandFar,
	geoclash.BandQuiteFar,
	geoclash.BandDistant,
	geoclash.BandRemote,
	geoclash.BandVeryFar,
}

// Distance returns the great-circle distance in km between two points.
// Either point being the (0,0) placeholder or carrying non-finite
// coordinates yields UnknownDistanceKm; the result is capped at
// MaxDistanceKm.
func Distance(a, b geoclash.Point) float64 {
	if degenerate(a) || degenerate(b) {
		return UnknownDistanceKm
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	d := 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	if math.IsNaN(d) {
		return UnknownDistanceKm
	}
	return math.Min(d, MaxDistanceKm)
}

func degenerate(p geoclash.Point) bool {
	if p.IsZero() {
		return true
	}
	return math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) ||
		math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0)
}

// BandFor maps a capped distance to its temperature band. Bands are fixed
// and stable: the same distance always yields the same band.
func BandFor(km float64) geoclash.Band {
	for i, bp := range bandBreakpoints {
		if km < bp {
			return bands[i]
		}
	}
	return bands[len(bands)-1]
}

// TrendFor compares the new distance against the previous guess's distance.
// prev is nil for the first guess in a round.
func TrendFor(prev *float64, km float64) geoclash.Trend {
	if prev == nil {
		return geoclash.TrendFirstGuess
	}
	if *prev <= 0 {
		if km <= 0 {
			return geoclash.TrendSame
		}
		return geoclash.TrendMuchColder
	}

	change := (km - *prev) / *prev
	switch {
	case change < -0.20:
		return geoclash.TrendMuchWarmer
	case change < -0.10:
		return geoclash.TrendWarmer
	case change > 0.20:
		return geoclash.TrendMuchColder
	case change > 0.10:
		return geoclash.TrendColder
	default:
		return geoclash.TrendSame
	}
}

// Score computes the full hot/cold signal for one guess. prev is the
// distance of the same player's previous guess in the round, nil if none.
func Score(guess, target geoclash.Point, prev *float64) geoclash.ProximityResult {
	km := Distance(guess, target)
	return geoclash.ProximityResult{
		DistanceKm: km,
		Band:       BandFor(km),
		Trend:      TrendFor(prev, km),
	}
}
