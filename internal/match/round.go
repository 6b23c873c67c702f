// Package match contains the server-authoritative game core: target
// selection, the round lifecycle, the two-player match orchestrator, and
// solo sessions. All state lives on the server; clients only see pushed
// events.
package match

import (
	"errors"
	"time"

	"github.com/geoclash/geoclash/internal/answer"
	"github.com/geoclash/geoclash/internal/geoclash"
	"github.com/geoclash/geoclash/internal/geodata"
	"github.com/geoclash/geoclash/internal/proximity"
)

var (
	ErrRoundClosed     = errors.New("round already closed")
	ErrDuplicateGuess  = errors.New("guess already submitted")
	ErrNotParticipant  = errors.New("not a round participant")
	ErrAlreadyAnswered = errors.New("round already answered correctly")
	ErrNoAttemptsLeft  = errors.New("attempt budget exhausted")
)

// RoundConfig carries the per-game-type round rules.
type RoundConfig struct {
	TimeLimit     time.Duration
	AttemptBudget int  // 0 means unlimited; the time limit alone bounds the round
	Geographic    bool // attach hot/cold feedback to wrong but valid guesses
}

// RoundEvent is the immediate feedback for one submitted guess.
type RoundEvent struct {
	PlayerID     string
	Verdict      geoclash.Verdict
	Proximity    *geoclash.ProximityResult
	AttemptsLeft int // -1 when the budget is unlimited
	Solved       bool
}

// Settlement is the outcome of a closed round.
type Settlement struct {
	WinnerID      string
	Resolution    geoclash.Resolution
	CorrectAnswer string
	Elapsed       time.Duration
	Guesses       map[string][]geoclash.GuessRecord
}

// Round owns one guess-the-target episode: its timer window, every
// participant's guesses, and the settlement decision. Rounds are not safe
// for concurrent use; the owner serializes access.
type Round struct {
	target       geoclash.Entity
	pool         []geoclash.Entity
	byName       map[string]geoclash.Entity
	participants []string
	verifier     *answer.Verifier
	cfg          RoundConfig
	openedAt     time.Time

	closed   bool
	guesses  map[string][]geoclash.GuessRecord
	lastDist map[string]float64
	used     map[string]int // attempts consumed, tracked only when budgeted
	winAt    map[string]time.Time
}

// NewRound opens a round for the given participants.
func NewRound(target geoclash.Entity, pool []geoclash.Entity, participants []string, verifier *answer.Verifier, cfg RoundConfig, now time.Time) *Round {
	byName := make(map[string]geoclash.Entity, len(pool))
	for _, e := range pool {
		byName[e.Name] = e
	}
	byName[target.Name] = target
	return &Round{
		target:       target,
		pool:         pool,
		byName:       byName,
		participants: participants,
		verifier:     verifier,
		cfg:          cfg,
		openedAt:     now,
		guesses:      make(map[string][]geoclash.GuessRecord),
		lastDist:     make(map[string]float64),
		used:         make(map[string]int),
		winAt:        make(map[string]time.Time),
	}
}

// Target returns the round's target entity.
func (r *Round) Target() geoclash.Entity { return r.target }

// Closed reports whether the round has settled.
func (r *Round) Closed() bool { return r.closed }

// OpenedAt returns the round's start timestamp.
func (r *Round) OpenedAt() time.Time { return r.openedAt }

// AttemptsLeft returns the participant's remaining attempts, or -1 when the
// budget is unlimited.
func (r *Round) AttemptsLeft(playerID string) int {
	if r.cfg.AttemptBudget <= 0 {
		return -1
	}
	return r.cfg.AttemptBudget - r.used[playerID]
}

// Submit records one guess. now is the server arrival time and is the only
// clock that matters for the earlier-winner tie-break; client timestamps
// are never consulted.
//
// Invalid and ambiguous guesses re-prompt without consuming an attempt.
// Wrong but valid guesses consume an attempt and, in geographic rounds,
// earn a hot/cold signal.
func (r *Round) Submit(playerID, raw string, now time.Time) (RoundEvent, error) {
	if r.closed {
		return RoundEvent{}, ErrRoundClosed
	}
	if !r.isParticipant(playerID) {
		return RoundEvent{}, ErrNotParticipant
	}
	if _, won := r.winAt[playerID]; won {
		return RoundEvent{}, ErrAlreadyAnswered
	}
	if r.cfg.AttemptBudget > 0 && r.used[playerID] >= r.cfg.AttemptBudget {
		return RoundEvent{}, ErrNoAttemptsLeft
	}
	if r.alreadyGuessed(playerID, raw) {
		return RoundEvent{}, ErrDuplicateGuess
	}

	verdict := r.verifier.Verify(raw, r.target, r.pool)

	rec := geoclash.GuessRecord{
		PlayerID:    playerID,
		Raw:         raw,
		SubmittedAt: now,
		Verdict:     verdict,
	}
	ev := RoundEvent{PlayerID: playerID, Verdict: verdict, AttemptsLeft: r.AttemptsLeft(playerID)}

	switch {
	case verdict.ResolvesTo(r.target.Name):
		r.winAt[playerID] = now
		ev.Solved = true

	case verdict.Correct():
		// Wrong but valid: names a real entity that is not the target.
		if r.cfg.AttemptBudget > 0 {
			r.used[playerID]++
			ev.AttemptsLeft = r.AttemptsLeft(playerID)
		}
		if r.cfg.Geographic {
			if guessed, ok := r.byName[verdict.Canonical]; ok {
				var prev *float64
				if d, ok := r.lastDist[playerID]; ok {
					prev = &d
				}
				res := proximity.Score(guessed.Centroid, r.target.Centroid, prev)
				r.lastDist[playerID] = res.DistanceKm
				rec.Proximity = &res
				ev.Proximity = &res
			}
		}
	}

	r.guesses[playerID] = append(r.guesses[playerID], rec)
	return ev, nil
}

// TrySettle closes the round if every participant has either answered
// correctly or exhausted their attempts. It returns the settlement exactly
// once.
func (r *Round) TrySettle(now time.Time) (Settlement, bool) {
	if r.closed {
		return Settlement{}, false
	}
	for _, p := range r.participants {
		if _, won := r.winAt[p]; won {
			continue
		}
		if r.cfg.AttemptBudget > 0 && r.used[p] >= r.cfg.AttemptBudget {
			continue
		}
		return Settlement{}, false
	}
	return r.settle(now, false), true
}

// Timeout closes the round because its time limit elapsed. Correct answers
// already logged still count; anything arriving after this point gets
// ErrRoundClosed.
func (r *Round) Timeout(now time.Time) (Settlement, bool) {
	if r.closed {
		return Settlement{}, false
	}
	return r.settle(now, true), true
}

func (r *Round) settle(now time.Time, timedOut bool) Settlement {
	r.closed = true

	s := Settlement{
		CorrectAnswer: r.target.Name,
		Elapsed:       now.Sub(r.openedAt),
		Guesses:       r.guesses,
	}

	var winner string
	var winnerAt time.Time
	winners := 0
	for p, at := range r.winAt {
		winners++
		if winner == "" || at.Before(winnerAt) {
			winner, winnerAt = p, at
		}
	}

	switch {
	case winners == 0 && timedOut:
		s.Resolution = geoclash.ResolutionTimeout
	case winners == 0:
		s.Resolution = geoclash.ResolutionBothWrong
	case winners == 1:
		s.WinnerID = winner
		s.Resolution = geoclash.ResolutionDecisive
	default:
		// Both correct: the earlier server arrival time wins.
		s.WinnerID = winner
		s.Resolution = geoclash.ResolutionBothCorrect
	}
	return s
}

func (r *Round) isParticipant(playerID string) bool {
	for _, p := range r.participants {
		if p == playerID {
			return true
		}
	}
	return false
}

func (r *Round) alreadyGuessed(playerID, raw string) bool {
	norm := geodata.Normalize(raw)
	for _, g := range r.guesses[playerID] {
		if geodata.Normalize(g.Raw) == norm {
			return true
		}
	}
	return false
}
