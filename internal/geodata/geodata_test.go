package geodata

import (
	"testing"

	"github.com/geoclash/geoclash/internal/geoclash"
)

func TestLoad(t *testing.T) {
	d, err := Load()
	if err != nil {
		t.Fatalf("loading dataset: %v", err)
	}

	if n := len(d.Pool(geoclash.GameCountries)); n < 50 {
		t.Errorf("countries pool has %d entities, want at least 50", n)
	}
	if n := len(d.Pool(geoclash.GameStates)); n != 50 {
		t.Errorf("states pool has %d entities, want 50", n)
	}
	if n := len(d.Pool(geoclash.GameCapitals)); n == 0 {
		t.Error("capitals pool is empty")
	}

	fr, ok := d.Entity("France")
	if !ok {
		t.Fatal("France not found")
	}
	if fr.Capital != "Paris" {
		t.Errorf("France capital = %q, want %q", fr.Capital, "Paris")
	}
	if !fr.HasCentroid() {
		t.Error("France has no centroid")
	}

	// Capitals reuse the country centroid so proximity still works.
	paris, ok := d.Entity("Paris")
	if !ok {
		t.Fatal("Paris not found")
	}
	if paris.Centroid != fr.Centroid {
		t.Errorf("Paris centroid = %v, want France centroid %v", paris.Centroid, fr.Centroid)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"France", "france"},
		{"  United   States  ", "united states"},
		{"NEW\tZEALAND", "new zealand"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAliasTableResolve(t *testing.T) {
	d, err := Load()
	if err != nil {
		t.Fatalf("loading dataset: %v", err)
	}
	aliases := d.Aliases()

	if got := aliases.Resolve("usa"); len(got) != 1 || got[0] != "United States" {
		t.Errorf("Resolve(usa) = %v, want [United States]", got)
	}

	// "Congo" is an accepted name for two different countries; the table
	// must preserve the overlap.
	congo := aliases.Resolve("congo")
	if len(congo) != 2 {
		t.Fatalf("Resolve(congo) = %v, want two canonicals", congo)
	}

	if got := aliases.Resolve("atlantis"); got != nil {
		t.Errorf("Resolve(atlantis) = %v, want nil", got)
	}
}

func TestAliasTableStrings(t *testing.T) {
	table := NewAliasTable([]AliasEntry{
		{Canonical: "United States", Aliases: []string{"USA", "US"}, SourceName: "United States of America"},
	})

	got := table.Strings("United States")
	want := map[string]bool{"United States": true, "USA": true, "US": true, "United States of America": true}
	if len(got) != len(want) {
		t.Fatalf("Strings(United States) = %v, want %d entries", got, len(want))
	}
	for _, s := range got {
		if !want[s] {
			t.Errorf("unexpected accepted string %q", s)
		}
	}

	// Entities without alias entries accept only their canonical name.
	if got := table.Strings("Portugal"); len(got) != 1 || got[0] != "Portugal" {
		t.Errorf("Strings(Portugal) = %v, want [Portugal]", got)
	}
}
