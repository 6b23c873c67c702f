package match

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/geoclash/geoclash/internal/answer"
	"github.com/geoclash/geoclash/internal/geoclash"
	"github.com/geoclash/geoclash/internal/geodata"
)

var ErrUnknownSession = errors.New("unknown solo session")

// SoloState is the client-visible snapshot of a solo session.
type SoloState struct {
	SessionID    string            `json:"sessionId"`
	GameType     geoclash.GameType `json:"gameType"`
	Prompt       string            `json:"prompt,omitempty"`
	Round        int               `json:"round"`
	Streak       int               `json:"streak"`
	AttemptsLeft int               `json:"attemptsLeft"` // -1 when unlimited
	SecondsLeft  int               `json:"secondsLeft"`
	Over         bool              `json:"over"`
}

// SoloGuessResult is the feedback for one solo guess. When the guess ends a
// round, NextPrompt carries the following round's prompt; when it ends the
// session, Over is set and CorrectAnswer is revealed.
type SoloGuessResult struct {
	Verdict       geoclash.Verdict          `json:"verdict"`
	Proximity     *geoclash.ProximityResult `json:"proximity,omitempty"`
	Solved        bool                      `json:"solved"`
	Streak        int                       `json:"streak"`
	AttemptsLeft  int                       `json:"attemptsLeft"`
	Over          bool                      `json:"over"`
	CorrectAnswer string                    `json:"correctAnswer,omitempty"`
	NextPrompt    string                    `json:"nextPrompt,omitempty"`
}

type soloSession struct {
	id        string
	gameType  geoclash.GameType
	selector  *Selector
	round     *Round // nil in open-vocabulary mode
	named     map[string]bool
	prompt    string
	roundNum  int
	streak    int
	guesses   int
	startedAt time.Time
}

// SoloManager owns single-player sessions: standalone rounds with no Match,
// plus the open-vocabulary name-every-country mode. Session timeouts are
// evaluated lazily on access; there is no per-session timer.
type SoloManager struct {
	cfg      Config
	data     *geodata.Dataset
	verifier *answer.Verifier
	recorder OutcomeRecorder
	stats    Stats
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*soloSession
}

// NewSoloManager wires the solo session holder. recorder and stats may be
// nil.
func NewSoloManager(cfg Config, data *geodata.Dataset, verifier *answer.Verifier, recorder OutcomeRecorder, stats Stats, logger *slog.Logger) *SoloManager {
	if stats == nil {
		stats = nopStats{}
	}
	return &SoloManager{
		cfg:      cfg,
		data:     data,
		verifier: verifier,
		recorder: recorder,
		stats:    stats,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*soloSession),
	}
}

// Start opens a new solo session for the game type.
func (sm *SoloManager) Start(gt geoclash.GameType) (SoloState, error) {
	if !gt.Valid() {
		return SoloState{}, ErrUnknownGameType
	}

	s := &soloSession{
		id:        uuid.NewString(),
		gameType:  gt,
		selector:  NewSelector(sm.cfg.RecentWindow),
		startedAt: sm.now(),
	}

	if gt == geoclash.GameNameAll {
		s.named = make(map[string]bool)
	} else {
		if err := sm.openRound(s); err != nil {
			return SoloState{}, err
		}
	}

	sm.mu.Lock()
	sm.sessions[s.id] = s
	sm.mu.Unlock()

	sm.logger.Info("solo session started", "session_id", s.id, "game_type", gt)
	return sm.state(s), nil
}

// Guess submits one guess for a solo session.
func (sm *SoloManager) Guess(sessionID, raw string) (SoloGuessResult, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, ok := sm.sessions[sessionID]
	if !ok {
		return SoloGuessResult{}, ErrUnknownSession
	}
	now := sm.now()

	if sm.expired(s, now) {
		return sm.finishLocked(s, s.streak, geoclash.ResolutionTimeout), nil
	}

	if s.gameType == geoclash.GameNameAll {
		return sm.guessOpen(s, raw), nil
	}
	return sm.guessRound(s, raw, now)
}

// GiveUp ends a session early. Giving up always counts as a loss with zero
// score; the inconsistent per-variant behavior of older builds is gone.
func (sm *SoloManager) GiveUp(sessionID string) (SoloGuessResult, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, ok := sm.sessions[sessionID]
	if !ok {
		return SoloGuessResult{}, ErrUnknownSession
	}
	return sm.finishLocked(s, 0, geoclash.ResolutionForfeit), nil
}

// State returns the current snapshot of a session.
func (sm *SoloManager) State(sessionID string) (SoloState, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, ok := sm.sessions[sessionID]
	if !ok {
		return SoloState{}, ErrUnknownSession
	}
	return sm.state(s), nil
}

func (sm *SoloManager) guessOpen(s *soloSession, raw string) SoloGuessResult {
	pool := sm.data.Pool(geoclash.GameCountries)
	verdict := sm.verifier.VerifyOpen(raw, pool, s.named)
	sm.stats.Verdict(verdict.Kind)
	s.guesses++

	res := SoloGuessResult{Verdict: verdict, AttemptsLeft: -1}
	if verdict.Correct() {
		s.named[verdict.Canonical] = true
		s.streak++
		res.Solved = true
	}
	res.Streak = s.streak

	if len(s.named) == len(pool) {
		// Every entity named: the board is cleared.
		return sm.finishLocked(s, s.streak, geoclash.ResolutionDecisive)
	}
	return res
}

func (sm *SoloManager) guessRound(s *soloSession, raw string, now time.Time) (SoloGuessResult, error) {
	ev, err := s.round.Submit(s.id, raw, now)
	if err != nil {
		return SoloGuessResult{}, err
	}
	sm.stats.Verdict(ev.Verdict.Kind)
	s.guesses++

	res := SoloGuessResult{
		Verdict:      ev.Verdict,
		Proximity:    ev.Proximity,
		Solved:       ev.Solved,
		AttemptsLeft: ev.AttemptsLeft,
	}

	settlement, settled := s.round.TrySettle(now)
	if !settled {
		res.Streak = s.streak
		return res, nil
	}

	if settlement.WinnerID == s.id {
		s.streak++
		res.Streak = s.streak
		if err := sm.openRound(s); err != nil {
			return sm.finishLocked(s, s.streak, geoclash.ResolutionDecisive), nil
		}
		res.NextPrompt = s.prompt
		return res, nil
	}

	// Attempts exhausted: reveal the answer and close the session.
	out := sm.finishLocked(s, s.streak, geoclash.ResolutionBothWrong)
	out.Verdict = ev.Verdict
	out.Proximity = ev.Proximity
	out.CorrectAnswer = settlement.CorrectAnswer
	return out, nil
}

func (sm *SoloManager) openRound(s *soloSession) error {
	target, pool, prompt, err := pickTarget(sm.data, s.gameType, s.selector)
	if err != nil {
		return err
	}
	rc := roundConfigFor(sm.cfg, s.gameType)
	s.round = NewRound(target, pool, []string{s.id}, sm.verifier, rc, sm.now())
	s.prompt = prompt
	s.roundNum++
	return nil
}

// finishLocked removes the session, records the outcome, and reports the
// terminal state. score is what gets persisted; a give-up passes zero.
func (sm *SoloManager) finishLocked(s *soloSession, score int, res geoclash.Resolution) SoloGuessResult {
	delete(sm.sessions, s.id)
	now := sm.now()

	out := SoloGuessResult{Over: true, Streak: s.streak, AttemptsLeft: -1}
	if s.round != nil {
		out.CorrectAnswer = s.round.Target().Name
	}

	sm.record(geoclash.Outcome{
		GameID:       s.id,
		GameType:     s.gameType,
		PlayerID:     s.id,
		Score:        score,
		Elapsed:      now.Sub(s.startedAt),
		Streak:       s.streak,
		AttemptCount: s.guesses,
	})
	sm.logger.Info("solo session finished", "session_id", s.id, "resolution", res, "streak", s.streak)
	return out
}

func (sm *SoloManager) record(out geoclash.Outcome) {
	if sm.recorder == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sm.recorder.RecordOutcome(ctx, out); err != nil {
			sm.logger.Warn("outcome record failed", "game_id", out.GameID, "error", err)
		}
	}()
}

func (sm *SoloManager) expired(s *soloSession, now time.Time) bool {
	limit := roundConfigFor(sm.cfg, s.gameType).TimeLimit
	if s.gameType == geoclash.GameNameAll {
		// The open-vocabulary board gets a generous multiple of the round
		// limit rather than a per-target clock.
		limit *= 10
		return now.Sub(s.startedAt) > limit
	}
	if s.round == nil {
		return false
	}
	return now.Sub(s.round.OpenedAt()) > limit
}

func (sm *SoloManager) state(s *soloSession) SoloState {
	st := SoloState{
		SessionID:    s.id,
		GameType:     s.gameType,
		Prompt:       s.prompt,
		Round:        s.roundNum,
		Streak:       s.streak,
		AttemptsLeft: -1,
	}
	limit := roundConfigFor(sm.cfg, s.gameType).TimeLimit
	if s.round != nil {
		st.AttemptsLeft = s.round.AttemptsLeft(s.id)
		st.SecondsLeft = int(limit.Seconds()) - int(sm.now().Sub(s.round.OpenedAt()).Seconds())
	} else {
		st.SecondsLeft = int((limit * 10).Seconds()) - int(sm.now().Sub(s.startedAt).Seconds())
	}
	if st.SecondsLeft < 0 {
		st.SecondsLeft = 0
	}
	return st
}
