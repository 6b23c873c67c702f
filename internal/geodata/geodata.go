// Package geodata loads the read-only reference datasets the game core
// plays against: countries and US states with centroids and capitals, and
// the alias table that unifies the display and geographic-source naming
// systems. Everything is loaded once at process start and never mutated.
package geodata

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/geoclash/geoclash/internal/geoclash"
)

//go:embed countries.json states.json aliases.json
var files embed.FS

type rawEntity struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Capital string  `json:"capital,omitempty"`
}

// Dataset is the in-memory reference data. All accessor results are shared
// read-only slices; callers must not modify them.
type Dataset struct {
	countries []geoclash.Entity
	states    []geoclash.Entity
	capitals  []geoclash.Entity
	aliases   *AliasTable
	byName    map[string]geoclash.Entity
}

// Load parses the embedded datasets and builds the alias table.
func Load() (*Dataset, error) {
	countries, err := loadEntities("countries.json")
	if err != nil {
		return nil, err
	}
	states, err := loadEntities("states.json")
	if err != nil {
		return nil, err
	}

	var entries []AliasEntry
	raw, err := files.ReadFile("aliases.json")
	if err != nil {
		return nil, fmt.Errorf("reading aliases.json: %w", err)
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parsing aliases.json: %w", err)
	}

	d := &Dataset{
		countries: countries,
		states:    states,
		aliases:   NewAliasTable(entries),
		byName:    make(map[string]geoclash.Entity),
	}

	// The capitals pool reuses the country centroid so proximity feedback
	// still works when the player guesses the wrong capital.
	for _, c := range countries {
		if c.Capital == "" {
			continue
		}
		d.capitals = append(d.capitals, geoclash.Entity{
			Name:     c.Capital,
			Centroid: c.Centroid,
		})
	}

	for _, e := range countries {
		d.byName[e.Name] = e
	}
	for _, e := range states {
		d.byName[e.Name] = e
	}
	for _, e := range d.capitals {
		d.byName[e.Name] = e
	}

	return d, nil
}

func loadEntities(name string) ([]geoclash.Entity, error) {
	raw, err := files.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	var rows []rawEntity
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	out := make([]geoclash.Entity, 0, len(rows))
	for _, r := range rows {
		if r.Name == "" {
			return nil, fmt.Errorf("%s: entity with empty name", name)
		}
		out = append(out, geoclash.Entity{
			Name:     r.Name,
			Centroid: geoclash.Point{Lat: r.Lat, Lng: r.Lng},
			Capital:  r.Capital,
		})
	}
	return out, nil
}

// Aliases returns the alias table.
func (d *Dataset) Aliases() *AliasTable { return d.aliases }

// Pool returns the candidate entity pool for a game type.
func (d *Dataset) Pool(t geoclash.GameType) []geoclash.Entity {
	switch t {
	case geoclash.GameStates:
		return d.states
	case geoclash.GameCapitals:
		return d.capitals
	default:
		return d.countries
	}
}

// Entity looks up an entity by its canonical name across all pools.
func (d *Dataset) Entity(name string) (geoclash.Entity, bool) {
	e, ok := d.byName[name]
	return e, ok
}
