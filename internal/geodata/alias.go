package geodata

import "strings"

// AliasEntry maps one canonical entity name to its accepted alternate
// spellings plus, optionally, the name the geographic source dataset uses
// for the same entity.
type AliasEntry struct {
	Canonical  string   `json:"canonical"`
	Aliases    []string `json:"aliases"`
	SourceName string   `json:"sourceName,omitempty"`
}

// AliasTable resolves any accepted name string (canonical, alias, or
// geographic-source name) to canonical entity names. One string may
// legitimately resolve to several canonicals (e.g. "Congo"); the table
// preserves the overlap instead of picking a side, so callers can flag the
// guess as ambiguous.
type AliasTable struct {
	byName      map[string][]string // normalized accepted string -> canonicals
	byCanonical map[string][]string // canonical -> all accepted strings (raw form)
}

// Normalize is the single normalization rule used everywhere a name string
// is compared: trim surrounding whitespace, collapse internal runs of
// whitespace, case-fold.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NewAliasTable builds a table from alias entries. Canonical names
// themselves are always accepted strings for their own entity.
func NewAliasTable(entries []AliasEntry) *AliasTable {
	t := &AliasTable{
		byName:      make(map[string][]string),
		byCanonical: make(map[string][]string),
	}
	for _, e := range entries {
		t.add(e.Canonical, e.Canonical)
		for _, a := range e.Aliases {
			t.add(a, e.Canonical)
		}
		if e.SourceName != "" {
			t.add(e.SourceName, e.Canonical)
		}
	}
	return t
}

func (t *AliasTable) add(name, canonical string) {
	key := Normalize(name)
	if key == "" {
		return
	}
	for _, c := range t.byName[key] {
		if c == canonical {
			return
		}
	}
	t.byName[key] = append(t.byName[key], canonical)
	t.byCanonical[canonical] = append(t.byCanonical[canonical], name)
}

// Resolve returns every canonical name the normalized string is an accepted
// name for. An empty result means the string is unknown to the table; a
// result with more than one element is a genuine ambiguity.
func (t *AliasTable) Resolve(normalized string) []string {
	return t.byName[normalized]
}

// Strings returns all accepted name strings for a canonical name, in their
// original (display) form. The canonical itself is always included, even for
// entities without alias entries.
func (t *AliasTable) Strings(canonical string) []string {
	if ss, ok := t.byCanonical[canonical]; ok {
		return ss
	}
	return []string{canonical}
}
