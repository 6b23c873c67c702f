// Package geoclash defines the core domain types shared across the match
// engine and the answer-verification engine. It has no dependencies beyond
// the standard library.
package geoclash

import "time"

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsZero reports whether the point is the (0,0) placeholder used by the
// reference dataset for entities without a usable centroid.
func (p Point) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}

// Entity is a guessable real-world object: a country, a US state, or a
// capital city. Entities are immutable and come from the reference dataset.
type Entity struct {
	Name     string `json:"name"`              // canonical name
	Centroid Point  `json:"centroid"`          // zero value when unknown
	Capital  string `json:"capital,omitempty"` // empty for non-countries
}

// HasCentroid reports whether the entity carries usable geographic data.
func (e Entity) HasCentroid() bool {
	return !e.Centroid.IsZero()
}

// GameType selects a game variant. Players are only ever paired within one
// game type.
type GameType string

const (
	GameCountries GameType = "countries" // type or click countries, hot/cold feedback
	GameStates    GameType = "states"    // US states
	GameCapitals  GameType = "capitals"  // capital city of a shown country
	GameFlags     GameType = "flags"     // name the country behind a flag, finite attempts
	GameNameAll   GameType = "name-all"  // open vocabulary: name every country (solo only)
)

// Valid reports whether t is a known game type.
func (t GameType) Valid() bool {
	switch t {
	case GameCountries, GameStates, GameCapitals, GameFlags, GameNameAll:
		return true
	}
	return false
}

// VerdictKind classifies the outcome of checking one guess against a target.
type VerdictKind string

const (
	VerdictExact        VerdictKind = "exact"
	VerdictAlias        VerdictKind = "alias"
	VerdictFuzzy        VerdictKind = "fuzzy"
	VerdictAmbiguous    VerdictKind = "ambiguous"
	VerdictInvalid      VerdictKind = "invalid"
	VerdictAlreadyNamed VerdictKind = "already_named"
)

// Verdict is the result of verifying one guess. Canonical is set for
// exact/alias/fuzzy verdicts, Candidates for ambiguous ones.
type Verdict struct {
	Kind         VerdictKind `json:"kind"`
	Canonical    string      `json:"canonical,omitempty"`
	EditDistance int         `json:"editDistance,omitempty"`
	Candidates   []string    `json:"candidates,omitempty"`
}

// ResolvesTo reports whether the verdict unambiguously names the given
// canonical entity.
func (v Verdict) ResolvesTo(canonical string) bool {
	switch v.Kind {
	case VerdictExact, VerdictAlias, VerdictFuzzy:
		return v.Canonical == canonical
	}
	return false
}

// Correct reports whether the verdict names any entity at all.
func (v Verdict) Correct() bool {
	switch v.Kind {
	case VerdictExact, VerdictAlias, VerdictFuzzy:
		return true
	}
	return false
}

// Band is a discrete distance category used for hot/cold feedback.
type Band string

const (
	BandVeryClose Band = "very_close"
	BandClose     Band = "close"
	BandWarm      Band = "warm"
	BandMild      Band = "mild"
	BandCool      Band = "cool"
	BandCold      Band = "cold"
	BandFar       Band = "far"
	BandQuiteFar  Band = "quite_far"
	BandDistant   Band = "distant"
	BandRemote    Band = "remote"
	BandVeryFar   Band = "very_far"
)

// Trend compares a guess distance against the previous guess in the same
// round for the same player.
type Trend string

const (
	TrendFirstGuess Trend = "first_guess"
	TrendMuchWarmer Trend = "much_warmer"
	TrendWarmer     Trend = "warmer"
	TrendSame       Trend = "about_the_same"
	TrendColder     Trend = "colder"
	TrendMuchColder Trend = "much_colder"
)

// ProximityResult is the graded hot/cold signal attached to a wrong but
// valid geographic guess.
type ProximityResult struct {
	DistanceKm float64 `json:"distanceKm"`
	Band       Band    `json:"band"`
	Trend      Trend   `json:"trend"`
}

// GuessRecord is one submitted guess, as recorded by the round.
type GuessRecord struct {
	PlayerID    string           `json:"playerId"`
	Raw         string           `json:"raw"`
	SubmittedAt time.Time        `json:"submittedAt"`
	Verdict     Verdict          `json:"verdict"`
	Proximity   *ProximityResult `json:"proximity,omitempty"`
}

// Resolution says how a round or match settled.
type Resolution string

const (
	ResolutionDecisive    Resolution = "decisive"     // one side answered correctly
	ResolutionBothCorrect Resolution = "both_correct" // both correct, earlier arrival wins
	ResolutionBothWrong   Resolution = "both_wrong"   // attempts exhausted on both sides
	ResolutionTimeout     Resolution = "timeout"      // time limit hit with no winner
	ResolutionForfeit     Resolution = "forfeit"      // leave or disconnect grace expiry
)

// MatchResult is the terminal, immutable artifact of a match.
type MatchResult struct {
	MatchID       string         `json:"matchId"`
	WinnerID      string         `json:"winnerId,omitempty"`
	LoserID       string         `json:"loserId,omitempty"`
	Resolution    Resolution     `json:"resolution"`
	CorrectAnswer string         `json:"correctAnswer,omitempty"`
	Scores        map[string]int `json:"scores"`
	EndedAt       time.Time      `json:"endedAt"`
}

// Outcome is the record handed to the persistence collaborator when a round
// or solo session settles. Recording it is fire-and-forget: game state never
// depends on whether the write succeeded.
type Outcome struct {
	GameID       string        `json:"gameId"`
	GameType     GameType      `json:"gameType"`
	PlayerID     string        `json:"playerId"`
	Score        int           `json:"score"`
	Elapsed      time.Duration `json:"elapsed"`
	Streak       int           `json:"streak"`
	AttemptCount int           `json:"attemptCount"`
}
