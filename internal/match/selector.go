package match

import (
	"errors"
	"math/rand/v2"

	"github.com/geoclash/geoclash/internal/geoclash"
)

// ErrEmptyPool is returned when no entity is eligible for selection.
var ErrEmptyPool = errors.New("no eligible target in pool")

// Selector chooses round targets from a candidate pool while avoiding a
// bounded trailing window of recent picks. One selector serves one match or
// one solo session; it is not safe for concurrent use.
type Selector struct {
	window int
	recent []string
	pick   func(n int) int
}

// NewSelector returns a selector that avoids repeating the last window
// picks when possible.
func NewSelector(window int) *Selector {
	return &Selector{window: window, pick: rand.IntN}
}

// Next picks the next target. When needGeo is set, entities without a
// usable centroid are filtered out first. Entities in the recent window and
// the excluded current target are skipped unless that would leave nothing
// to pick from, in which case the filter falls back to the full eligible
// pool.
func (s *Selector) Next(pool []geoclash.Entity, needGeo bool, exclude string) (geoclash.Entity, error) {
	eligible := make([]geoclash.Entity, 0, len(pool))
	for _, e := range pool {
		if needGeo && !e.HasCentroid() {
			continue
		}
		eligible = append(eligible, e)
	}
	if len(eligible) == 0 {
		return geoclash.Entity{}, ErrEmptyPool
	}

	fresh := make([]geoclash.Entity, 0, len(eligible))
	for _, e := range eligible {
		if e.Name == exclude || s.isRecent(e.Name) {
			continue
		}
		fresh = append(fresh, e)
	}
	if len(fresh) == 0 {
		fresh = eligible
	}

	chosen := fresh[s.pick(len(fresh))]
	s.remember(chosen.Name)
	return chosen, nil
}

func (s *Selector) isRecent(name string) bool {
	for _, r := range s.recent {
		if r == name {
			return true
		}
	}
	return false
}

func (s *Selector) remember(name string) {
	s.recent = append(s.recent, name)
	if len(s.recent) > s.window {
		s.recent = s.recent[len(s.recent)-s.window:]
	}
}
