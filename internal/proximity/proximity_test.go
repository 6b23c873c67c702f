package proximity

import (
	"math"
	"testing"

	"github.com/geoclash/geoclash/internal/geoclash"
)

var (
	franceCentroid = geoclash.Point{Lat: 46.6, Lng: 2.2}
	spainCentroid  = geoclash.Point{Lat: 40.5, Lng: -3.7}
	paris          = geoclash.Point{Lat: 48.8566, Lng: 2.3522}
	madrid         = geoclash.Point{Lat: 40.4168, Lng: -3.7038}
)

func TestDistance(t *testing.T) {
	if d := Distance(paris, paris); d != 0 {
		t.Errorf("Distance(p, p) = %v, want 0", d)
	}

	ab := Distance(franceCentroid, spainCentroid)
	ba := Distance(spainCentroid, franceCentroid)
	if ab != ba {
		t.Errorf("distance not symmetric: %v vs %v", ab, ba)
	}
	if ab < 750 || ab > 900 {
		t.Errorf("France-Spain centroid distance = %v km, want roughly 830", ab)
	}

	pm := Distance(paris, madrid)
	if pm < 950 || pm > 1150 {
		t.Errorf("Paris-Madrid distance = %v km, want roughly 1050", pm)
	}
}

func TestDistanceDegenerate(t *testing.T) {
	zero := geoclash.Point{}
	if d := Distance(zero, paris); d != UnknownDistanceKm {
		t.Errorf("Distance(zero, p) = %v, want sentinel %v", d, float64(UnknownDistanceKm))
	}
	if d := Distance(paris, zero); d != UnknownDistanceKm {
		t.Errorf("Distance(p, zero) = %v, want sentinel %v", d, float64(UnknownDistanceKm))
	}
	nan := geoclash.Point{Lat: math.NaN(), Lng: 10}
	if d := Distance(nan, paris); d != UnknownDistanceKm {
		t.Errorf("Distance(NaN, p) = %v, want sentinel %v", d, float64(UnknownDistanceKm))
	}
}

func TestDistanceCap(t *testing.T) {
	a := geoclash.Point{Lat: 39.8, Lng: -98.6}
	antipode := geoclash.Point{Lat: -39.8, Lng: 81.4}
	if d := Distance(a, antipode); d != MaxDistanceKm {
		t.Errorf("antipodal distance = %v, want capped at %v", d, float64(MaxDistanceKm))
	}
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		km   float64
		want geoclash.Band
	}{
		{0, geoclash.BandVeryClose},
		{75, geoclash.BandVeryClose},
		{99, geoclash.BandVeryClose},
		{100, geoclash.BandClose},
		{250, geoclash.BandWarm},
		{400, geoclash.BandMild},
		{600, geoclash.BandCool},
		{700, geoclash.BandCold},
		{830, geoclash.BandFar},
		{1050, geoclash.BandFar},
		{1500, geoclash.BandQuiteFar},
		{2000, geoclash.BandDistant},
		{3000, geoclash.BandRemote},
		{4500, geoclash.BandRemote},
		{UnknownDistanceKm, geoclash.BandVeryFar},
		{MaxDistanceKm, geoclash.BandVeryFar},
	}
	for _, tt := range tests {
		if got := BandFor(tt.km); got != tt.want {
			t.Errorf("BandFor(%v) = %q, want %q", tt.km, got, tt.want)
		}
	}
}

func TestTrendFor(t *testing.T) {
	prev := func(km float64) *float64 { return &km }

	tests := []struct {
		name string
		prev *float64
		km   float64
		want geoclash.Trend
	}{
		{"first guess", nil, 500, geoclash.TrendFirstGuess},
		{"much warmer", prev(1000), 700, geoclash.TrendMuchWarmer},
		{"warmer", prev(1000), 850, geoclash.TrendWarmer},
		{"about the same", prev(1000), 1050, geoclash.TrendSame},
		{"colder", prev(1000), 1150, geoclash.TrendColder},
		{"much colder", prev(1000), 1300, geoclash.TrendMuchColder},
		{"previous exact stays same", prev(0), 0, geoclash.TrendSame},
		{"moving off an exact hit", prev(0), 10, geoclash.TrendMuchColder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrendFor(tt.prev, tt.km); got != tt.want {
				t.Errorf("TrendFor = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScoreFirstGuess(t *testing.T) {
	res := Score(spainCentroid, franceCentroid, nil)
	if res.Trend != geoclash.TrendFirstGuess {
		t.Errorf("trend = %q, want first_guess", res.Trend)
	}
	if res.Band != geoclash.BandFar {
		t.Errorf("band = %q, want far", res.Band)
	}
	if res.DistanceKm < 750 || res.DistanceKm > 900 {
		t.Errorf("distance = %v km, want roughly 830", res.DistanceKm)
	}
}
