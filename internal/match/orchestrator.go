package match

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/geoclash/geoclash/internal/answer"
	"github.com/geoclash/geoclash/internal/geoclash"
	"github.com/geoclash/geoclash/internal/geodata"
)

var (
	ErrAlreadyQueued   = errors.New("player already has a pending queue entry")
	ErrAlreadyInMatch  = errors.New("player is already in a match")
	ErrUnknownMatch    = errors.New("unknown match")
	ErrUnknownGameType = errors.New("unknown game type")
	ErrMatchClosed     = errors.New("match already closed")
)

// State is a match lifecycle state.
type State string

const (
	StateCountdown    State = "countdown"
	StateRoundActive  State = "round_active"
	StateRoundSettled State = "round_settled"
	StateComplete     State = "match_complete"
	StateClosed       State = "closed"
)

// Config carries the orchestrator's tunables. Defaults live in the config
// package; everything here is already resolved.
type Config struct {
	Countdown       time.Duration
	RoundTime       time.Duration
	WinThreshold    int
	QueueTimeout    time.Duration
	DisconnectGrace time.Duration
	AttemptBudget   int
	RecentWindow    int
}

// OutcomeRecorder is the persistence collaborator. Calls are fire-and-forget
// from the game's perspective; a failed write never changes game state.
type OutcomeRecorder interface {
	RecordOutcome(ctx context.Context, o geoclash.Outcome) error
}

type queueEntry struct {
	player   Participant
	joinedAt time.Time
	timer    *time.Timer
}

// Match is one paired two-player contest. All fields behind mu; the mutex
// serializes concurrent submissions so the earlier-arrival tie-break always
// sees a consistent view.
type Match struct {
	id       string
	gameType geoclash.GameType
	players  [2]Participant
	selector *Selector

	mu          sync.Mutex
	state       State
	round       *Round
	roundNum    int
	wins        map[string]int
	guessCounts map[string]int
	roundTimer  *time.Timer
	cdTimer     *time.Timer
	graceTimers map[string]*time.Timer
	startedAt   time.Time
	result      *geoclash.MatchResult
}

// Orchestrator is the top-level state machine: it queues waiting players,
// pairs them, drives rounds, and reports terminal results. Different
// matches are fully independent; within one match every transition happens
// under the match lock, driven by inbound calls and timer callbacks.
type Orchestrator struct {
	cfg      Config
	data     *geodata.Dataset
	verifier *answer.Verifier
	notifier Notifier
	recorder OutcomeRecorder
	stats    Stats
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	queues   map[geoclash.GameType][]*queueEntry
	matches  map[string]*Match
	byPlayer map[string]*Match
}

// NewOrchestrator wires the orchestrator. recorder and stats may be nil.
func NewOrchestrator(cfg Config, data *geodata.Dataset, verifier *answer.Verifier, notifier Notifier, recorder OutcomeRecorder, stats Stats, logger *slog.Logger) *Orchestrator {
	if stats == nil {
		stats = nopStats{}
	}
	return &Orchestrator{
		cfg:      cfg,
		data:     data,
		verifier: verifier,
		notifier: notifier,
		recorder: recorder,
		stats:    stats,
		logger:   logger,
		now:      time.Now,
		queues:   make(map[geoclash.GameType][]*queueEntry),
		matches:  make(map[string]*Match),
		byPlayer: make(map[string]*Match),
	}
}

// JoinQueue enqueues a player for pairing. Pairing is first-come
// first-served per game type; when a peer is already waiting the match is
// created immediately and both players get a match_found event.
func (o *Orchestrator) JoinQueue(p Participant, gt geoclash.GameType) error {
	if !gt.Valid() || gt == geoclash.GameNameAll {
		return ErrUnknownGameType
	}

	o.mu.Lock()
	if _, ok := o.byPlayer[p.ID]; ok {
		o.mu.Unlock()
		return ErrAlreadyInMatch
	}
	for _, q := range o.queues {
		for _, e := range q {
			if e.player.ID == p.ID {
				o.mu.Unlock()
				return ErrAlreadyQueued
			}
		}
	}

	q := o.queues[gt]
	if len(q) == 0 {
		entry := &queueEntry{player: p, joinedAt: o.now()}
		entry.timer = time.AfterFunc(o.cfg.QueueTimeout, func() { o.expireQueueEntry(gt, p.ID) })
		o.queues[gt] = append(q, entry)
		o.mu.Unlock()
		o.notifier.Notify(p.ID, Event{Type: EventQueueJoined, GameType: gt})
		return nil
	}

	peer := q[0]
	peer.timer.Stop()
	o.queues[gt] = q[1:]

	m := &Match{
		id:          uuid.NewString(),
		gameType:    gt,
		players:     [2]Participant{peer.player, p},
		selector:    NewSelector(o.cfg.RecentWindow),
		state:       StateCountdown,
		wins:        make(map[string]int),
		guessCounts: make(map[string]int),
		graceTimers: make(map[string]*time.Timer),
		startedAt:   o.now(),
	}
	o.matches[m.id] = m
	o.byPlayer[peer.player.ID] = m
	o.byPlayer[p.ID] = m
	o.mu.Unlock()

	o.stats.MatchStarted(gt)
	o.logger.Info("match paired", "match_id", m.id, "game_type", gt,
		"player_a", peer.player.ID, "player_b", p.ID)

	found := Event{
		Type:         EventMatchFound,
		MatchID:      m.id,
		GameType:     gt,
		Participants: []Participant{peer.player, p},
	}
	o.broadcast(m, found)
	o.broadcast(m, Event{Type: EventCountdown, MatchID: m.id, Seconds: int(o.cfg.Countdown.Seconds())})

	m.mu.Lock()
	m.cdTimer = time.AfterFunc(o.cfg.Countdown, func() { o.countdownDone(m) })
	m.mu.Unlock()
	return nil
}

// SubmitAnswer forwards a guess to the match's active round.
func (o *Orchestrator) SubmitAnswer(matchID, playerID, raw string) (RoundEvent, error) {
	m := o.match(matchID)
	if m == nil {
		return RoundEvent{}, ErrUnknownMatch
	}

	m.mu.Lock()
	if m.state == StateClosed || m.state == StateComplete {
		m.mu.Unlock()
		return RoundEvent{}, ErrMatchClosed
	}
	if m.state != StateRoundActive {
		m.mu.Unlock()
		return RoundEvent{}, ErrRoundClosed
	}

	now := o.now()
	ev, err := m.round.Submit(playerID, raw, now)
	if err != nil {
		m.mu.Unlock()
		return RoundEvent{}, err
	}
	m.guessCounts[playerID]++
	o.stats.Verdict(ev.Verdict.Kind)

	o.notifyGuess(m, ev)

	if s, ok := m.round.TrySettle(now); ok {
		o.settleRoundLocked(m, s, now)
	}
	closed := m.state == StateClosed
	m.mu.Unlock()

	if closed {
		o.release(m)
	}
	return ev, nil
}

// LeaveMatch ends a match by explicit leave. The remaining player wins by
// forfeit. Idempotent once the match is closed.
func (o *Orchestrator) LeaveMatch(matchID, playerID string) error {
	m := o.match(matchID)
	if m == nil {
		return nil // already released; leave is idempotent
	}

	m.mu.Lock()
	if m.state == StateClosed || m.state == StateComplete {
		m.mu.Unlock()
		return nil
	}
	winner := m.peerOf(playerID)
	o.logger.Info("match forfeited", "match_id", m.id, "leaver", playerID)
	o.completeLocked(m, winner, geoclash.ResolutionForfeit, "")
	m.mu.Unlock()

	o.release(m)
	return nil
}

// Disconnect signals that a player's connection dropped. A queued player is
// dequeued immediately; an in-match player gets a grace period to resume
// before the match is forfeited.
func (o *Orchestrator) Disconnect(playerID string) {
	o.mu.Lock()
	for gt, q := range o.queues {
		for i, e := range q {
			if e.player.ID == playerID {
				e.timer.Stop()
				o.queues[gt] = append(q[:i], q[i+1:]...)
				o.mu.Unlock()
				return
			}
		}
	}
	m := o.byPlayer[playerID]
	o.mu.Unlock()
	if m == nil {
		return
	}

	m.mu.Lock()
	if m.state == StateClosed || m.state == StateComplete {
		m.mu.Unlock()
		return
	}
	if _, pending := m.graceTimers[playerID]; !pending {
		m.graceTimers[playerID] = time.AfterFunc(o.cfg.DisconnectGrace, func() { o.graceExpired(m, playerID) })
		o.notifier.Notify(m.peerOf(playerID), Event{Type: EventOpponentDisconnected, MatchID: m.id})
	}
	m.mu.Unlock()
}

// Resume cancels a pending disconnect grace timer after the player
// reconnects within the window.
func (o *Orchestrator) Resume(playerID string) {
	o.mu.Lock()
	m := o.byPlayer[playerID]
	o.mu.Unlock()
	if m == nil {
		return
	}

	m.mu.Lock()
	if t, ok := m.graceTimers[playerID]; ok {
		t.Stop()
		delete(m.graceTimers, playerID)
		o.notifier.Notify(m.peerOf(playerID), Event{Type: EventOpponentReconnected, MatchID: m.id})
	}
	m.mu.Unlock()
}

// MatchFor returns the ID of the match a player is currently in, if any.
func (o *Orchestrator) MatchFor(playerID string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.byPlayer[playerID]
	if !ok {
		return "", false
	}
	return m.id, true
}

func (o *Orchestrator) countdownDone(m *Match) {
	m.mu.Lock()
	if m.state != StateCountdown {
		m.mu.Unlock()
		return
	}
	o.startRoundLocked(m)
	closed := m.state == StateClosed
	m.mu.Unlock()
	if closed {
		o.release(m)
	}
}

func (o *Orchestrator) roundTimeout(m *Match, roundNum int) {
	m.mu.Lock()
	if m.state != StateRoundActive || m.roundNum != roundNum {
		// The round already settled; this callback is stale.
		m.mu.Unlock()
		return
	}
	now := o.now()
	if s, ok := m.round.Timeout(now); ok {
		o.settleRoundLocked(m, s, now)
	}
	closed := m.state == StateClosed
	m.mu.Unlock()
	if closed {
		o.release(m)
	}
}

func (o *Orchestrator) graceExpired(m *Match, playerID string) {
	m.mu.Lock()
	if _, pending := m.graceTimers[playerID]; !pending || m.state == StateClosed || m.state == StateComplete {
		m.mu.Unlock()
		return
	}
	delete(m.graceTimers, playerID)
	winner := m.peerOf(playerID)
	o.logger.Info("disconnect grace expired", "match_id", m.id, "player", playerID)
	o.completeLocked(m, winner, geoclash.ResolutionForfeit, "")
	m.mu.Unlock()

	o.release(m)
}

// startRoundLocked selects a fresh target and opens the next round. The
// single selection here is the source of truth for both players.
func (o *Orchestrator) startRoundLocked(m *Match) {
	target, pool, prompt, err := pickTarget(o.data, m.gameType, m.selector)
	if err != nil {
		o.logger.Error("target selection failed", "match_id", m.id, "error", err)
		o.completeLocked(m, "", geoclash.ResolutionTimeout, "")
		return
	}

	now := o.now()
	rc := roundConfigFor(o.cfg, m.gameType)
	m.roundNum++
	m.round = NewRound(target, pool, m.playerIDs(), o.verifier, rc, now)
	m.state = StateRoundActive

	n := m.roundNum
	m.roundTimer = time.AfterFunc(rc.TimeLimit, func() { o.roundTimeout(m, n) })

	o.broadcast(m, Event{
		Type:    EventRoundStarted,
		MatchID: m.id,
		Round:   n,
		Prompt:  prompt,
		Seconds: int(rc.TimeLimit.Seconds()),
	})
}

// pickTarget resolves one round's target, answer pool, and client prompt
// for a game type. For capitals the selection runs over countries and the
// target becomes the chosen country's capital; for flags the prompt is the
// flag asset key rather than the (hidden) country name.
func pickTarget(data *geodata.Dataset, gt geoclash.GameType, sel *Selector) (geoclash.Entity, []geoclash.Entity, string, error) {
	switch gt {
	case geoclash.GameCapitals:
		country, err := sel.Next(data.Pool(geoclash.GameCountries), true, "")
		if err != nil {
			return geoclash.Entity{}, nil, "", err
		}
		target, ok := data.Entity(country.Capital)
		if !ok {
			target = geoclash.Entity{Name: country.Capital, Centroid: country.Centroid}
		}
		return target, data.Pool(geoclash.GameCapitals), country.Name, nil

	case geoclash.GameFlags:
		country, err := sel.Next(data.Pool(geoclash.GameCountries), false, "")
		if err != nil {
			return geoclash.Entity{}, nil, "", err
		}
		return country, data.Pool(geoclash.GameCountries), flagAsset(country.Name), nil

	default:
		pool := data.Pool(gt)
		target, err := sel.Next(pool, true, "")
		if err != nil {
			return geoclash.Entity{}, nil, "", err
		}
		return target, pool, target.Name, nil
	}
}

// roundConfigFor maps a game type to its round rules: flag and capital
// rounds have a finite attempt budget, map games rely on the time limit
// alone.
func roundConfigFor(cfg Config, gt geoclash.GameType) RoundConfig {
	switch gt {
	case geoclash.GameFlags:
		return RoundConfig{TimeLimit: cfg.RoundTime, AttemptBudget: cfg.AttemptBudget}
	case geoclash.GameCapitals:
		return RoundConfig{TimeLimit: cfg.RoundTime, AttemptBudget: cfg.AttemptBudget, Geographic: true}
	default:
		return RoundConfig{TimeLimit: cfg.RoundTime, Geographic: true}
	}
}

func (o *Orchestrator) settleRoundLocked(m *Match, s Settlement, now time.Time) {
	m.stopRoundTimer()
	m.state = StateRoundSettled
	if s.WinnerID != "" {
		m.wins[s.WinnerID]++
	}
	o.stats.RoundSettled(s.Resolution)

	o.broadcast(m, Event{
		Type:          EventRoundResult,
		MatchID:       m.id,
		Round:         m.roundNum,
		WinnerID:      s.WinnerID,
		Resolution:    s.Resolution,
		CorrectAnswer: s.CorrectAnswer,
		Scores:        m.scores(),
	})

	if s.WinnerID != "" && m.wins[s.WinnerID] >= o.cfg.WinThreshold {
		o.completeLocked(m, s.WinnerID, s.Resolution, s.CorrectAnswer)
		return
	}
	o.startRoundLocked(m)
}

// completeLocked produces the immutable MatchResult, emits it to both
// players, records outcomes, and releases the match. Called with m.mu held.
func (o *Orchestrator) completeLocked(m *Match, winnerID string, res geoclash.Resolution, correctAnswer string) {
	m.stopTimersLocked()
	m.state = StateComplete
	now := o.now()

	result := &geoclash.MatchResult{
		MatchID:       m.id,
		WinnerID:      winnerID,
		Resolution:    res,
		CorrectAnswer: correctAnswer,
		Scores:        m.scores(),
		EndedAt:       now,
	}
	if winnerID != "" {
		result.LoserID = m.peerOf(winnerID)
	}
	m.result = result

	o.broadcast(m, Event{Type: EventMatchEnded, MatchID: m.id, Result: result})
	o.stats.MatchEnded(res)
	o.logger.Info("match complete", "match_id", m.id, "winner", winnerID, "resolution", res)

	elapsed := now.Sub(m.startedAt)
	for _, p := range m.players {
		o.record(geoclash.Outcome{
			GameID:       m.id,
			GameType:     m.gameType,
			PlayerID:     p.ID,
			Score:        m.wins[p.ID],
			Elapsed:      elapsed,
			AttemptCount: m.guessCounts[p.ID],
		})
	}

	m.state = StateClosed
}

// record hands an outcome to the persistence collaborator without letting
// its latency or failure touch game state.
func (o *Orchestrator) record(out geoclash.Outcome) {
	if o.recorder == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.recorder.RecordOutcome(ctx, out); err != nil {
			o.logger.Warn("outcome record failed", "game_id", out.GameID, "error", err)
		}
	}()
}

func (o *Orchestrator) expireQueueEntry(gt geoclash.GameType, playerID string) {
	o.mu.Lock()
	q := o.queues[gt]
	for i, e := range q {
		if e.player.ID == playerID {
			o.queues[gt] = append(q[:i], q[i+1:]...)
			o.mu.Unlock()
			o.notifier.Notify(playerID, Event{Type: EventQueueError, Reason: ReasonQueueTimeout})
			return
		}
	}
	o.mu.Unlock()
}

func (o *Orchestrator) notifyGuess(m *Match, ev RoundEvent) {
	attempts := ev.AttemptsLeft
	o.notifier.Notify(ev.PlayerID, Event{
		Type:         EventGuessResult,
		MatchID:      m.id,
		Round:        m.roundNum,
		Verdict:      &ev.Verdict,
		Proximity:    ev.Proximity,
		AttemptsLeft: &attempts,
		Solved:       ev.Solved,
	})
}

func (o *Orchestrator) broadcast(m *Match, ev Event) {
	for _, p := range m.players {
		o.notifier.Notify(p.ID, ev)
	}
}

func (o *Orchestrator) match(id string) *Match {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.matches[id]
}

func (o *Orchestrator) release(m *Match) {
	o.mu.Lock()
	delete(o.matches, m.id)
	for _, p := range m.players {
		if o.byPlayer[p.ID] == m {
			delete(o.byPlayer, p.ID)
		}
	}
	o.mu.Unlock()
}

func (m *Match) playerIDs() []string {
	return []string{m.players[0].ID, m.players[1].ID}
}

func (m *Match) peerOf(playerID string) string {
	if m.players[0].ID == playerID {
		return m.players[1].ID
	}
	return m.players[0].ID
}

func (m *Match) scores() map[string]int {
	s := make(map[string]int, 2)
	for _, p := range m.players {
		s[p.ID] = m.wins[p.ID]
	}
	return s
}

func (m *Match) stopRoundTimer() {
	if m.roundTimer != nil {
		m.roundTimer.Stop()
		m.roundTimer = nil
	}
}

func (m *Match) stopTimersLocked() {
	m.stopRoundTimer()
	if m.cdTimer != nil {
		m.cdTimer.Stop()
		m.cdTimer = nil
	}
	for id, t := range m.graceTimers {
		t.Stop()
		delete(m.graceTimers, id)
	}
}

// flagAsset derives the client-side flag image key from a canonical name.
func flagAsset(name string) string {
	s := strings.ToLower(name)
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-':
			return '-'
		default:
			return -1
		}
	}, s)
	return "flag-" + strings.Trim(s, "-")
}
