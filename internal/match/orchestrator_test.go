package match

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/geoclash/geoclash/internal/answer"
	"github.com/geoclash/geoclash/internal/geoclash"
	"github.com/geoclash/geoclash/internal/geodata"
)

// captureNotifier records every event per player. Safe for the async
// delivery paths the orchestrator uses.
type captureNotifier struct {
	mu     sync.Mutex
	events map[string][]Event
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{events: make(map[string][]Event)}
}

func (n *captureNotifier) Notify(playerID string, ev Event) {
	n.mu.Lock()
	n.events[playerID] = append(n.events[playerID], ev)
	n.mu.Unlock()
}

func (n *captureNotifier) last(playerID, eventType string) (Event, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	evs := n.events[playerID]
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Type == eventType {
			return evs[i], true
		}
	}
	return Event{}, false
}

type captureRecorder struct {
	ch chan geoclash.Outcome
}

func newCaptureRecorder() *captureRecorder {
	return &captureRecorder{ch: make(chan geoclash.Outcome, 8)}
}

func (r *captureRecorder) RecordOutcome(_ context.Context, o geoclash.Outcome) error {
	r.ch <- o
	return nil
}

// Timer durations are set far in the future so tests drive every
// transition explicitly through the callback methods.
func testConfig() Config {
	return Config{
		Countdown:       time.Hour,
		RoundTime:       time.Hour,
		WinThreshold:    2,
		QueueTimeout:    time.Hour,
		DisconnectGrace: time.Hour,
		AttemptBudget:   3,
		RecentWindow:    3,
	}
}

func newTestOrchestrator(t *testing.T, notifier Notifier, recorder OutcomeRecorder) *Orchestrator {
	t.Helper()
	data, err := geodata.Load()
	if err != nil {
		t.Fatalf("loading dataset: %v", err)
	}
	verifier := answer.NewVerifier(data.Aliases())
	return NewOrchestrator(testConfig(), data, verifier, notifier, recorder, nil, slog.Default())
}

func pairPlayers(t *testing.T, o *Orchestrator, n *captureNotifier) (string, *Match) {
	t.Helper()
	if err := o.JoinQueue(Participant{ID: "p1", Name: "Alice"}, geoclash.GameCountries); err != nil {
		t.Fatalf("p1 join: %v", err)
	}
	if err := o.JoinQueue(Participant{ID: "p2", Name: "Bob"}, geoclash.GameCountries); err != nil {
		t.Fatalf("p2 join: %v", err)
	}
	found, ok := n.last("p1", EventMatchFound)
	if !ok {
		t.Fatal("p1 never received match_found")
	}
	m := o.match(found.MatchID)
	if m == nil {
		t.Fatal("paired match not tracked")
	}
	return found.MatchID, m
}

func TestJoinQueueValidation(t *testing.T) {
	n := newCaptureNotifier()
	o := newTestOrchestrator(t, n, nil)

	if err := o.JoinQueue(Participant{ID: "p1"}, "bogus"); !errors.Is(err, ErrUnknownGameType) {
		t.Errorf("bogus type err = %v, want ErrUnknownGameType", err)
	}
	// The open-vocabulary mode is solo only.
	if err := o.JoinQueue(Participant{ID: "p1"}, geoclash.GameNameAll); !errors.Is(err, ErrUnknownGameType) {
		t.Errorf("name-all err = %v, want ErrUnknownGameType", err)
	}

	if err := o.JoinQueue(Participant{ID: "p1"}, geoclash.GameCountries); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, ok := n.last("p1", EventQueueJoined); !ok {
		t.Error("p1 never received queue_joined")
	}
	if err := o.JoinQueue(Participant{ID: "p1"}, geoclash.GameFlags); !errors.Is(err, ErrAlreadyQueued) {
		t.Errorf("second join err = %v, want ErrAlreadyQueued", err)
	}
}

func TestQueueTimeout(t *testing.T) {
	n := newCaptureNotifier()
	o := newTestOrchestrator(t, n, nil)

	if err := o.JoinQueue(Participant{ID: "p1"}, geoclash.GameStates); err != nil {
		t.Fatalf("join: %v", err)
	}
	o.expireQueueEntry(geoclash.GameStates, "p1")

	ev, ok := n.last("p1", EventQueueError)
	if !ok {
		t.Fatal("p1 never received queue_error")
	}
	if ev.Reason != ReasonQueueTimeout {
		t.Errorf("reason = %q, want %q", ev.Reason, ReasonQueueTimeout)
	}
	// The expired entry is gone, so rejoining works.
	if err := o.JoinQueue(Participant{ID: "p1"}, geoclash.GameStates); err != nil {
		t.Errorf("rejoin after timeout: %v", err)
	}
}

func TestPairingAndBestOfN(t *testing.T) {
	n := newCaptureNotifier()
	rec := newCaptureRecorder()
	o := newTestOrchestrator(t, n, rec)

	matchID, m := pairPlayers(t, o, n)

	if _, ok := n.last("p2", EventCountdown); !ok {
		t.Fatal("p2 never received countdown")
	}

	// Drive the countdown manually instead of waiting for the timer.
	o.countdownDone(m)
	started, ok := n.last("p1", EventRoundStarted)
	if !ok {
		t.Fatal("round never started")
	}
	if started.Round != 1 || started.Prompt == "" {
		t.Errorf("round_started = %+v, want round 1 with a prompt", started)
	}

	// p1 wins rounds until the threshold is reached. The opponent never
	// answers, so each round settles at its deadline.
	for round := 1; round <= 2; round++ {
		m.mu.Lock()
		target := m.round.Target().Name
		m.mu.Unlock()

		ev, err := o.SubmitAnswer(matchID, "p1", target)
		if err != nil {
			t.Fatalf("round %d submit: %v", round, err)
		}
		if !ev.Solved {
			t.Fatalf("round %d: correct answer not marked solved", round)
		}
		o.roundTimeout(m, round)

		res, ok := n.last("p2", EventRoundResult)
		if !ok {
			t.Fatalf("round %d: no round_result", round)
		}
		if res.WinnerID != "p1" {
			t.Fatalf("round %d winner = %q, want p1", round, res.WinnerID)
		}
	}

	ended, ok := n.last("p2", EventMatchEnded)
	if !ok {
		t.Fatal("match never ended")
	}
	if ended.Result == nil || ended.Result.WinnerID != "p1" {
		t.Fatalf("match result = %+v, want p1 as winner", ended.Result)
	}
	if ended.Result.Scores["p1"] != 2 || ended.Result.Scores["p2"] != 0 {
		t.Errorf("scores = %v, want p1:2 p2:0", ended.Result.Scores)
	}

	// Both outcomes are persisted and the match is released.
	for i := 0; i < 2; i++ {
		select {
		case out := <-rec.ch:
			if out.GameID != matchID {
				t.Errorf("outcome game id = %q, want %q", out.GameID, matchID)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("outcome was never recorded")
		}
	}
	if o.match(matchID) != nil {
		t.Error("completed match still tracked")
	}
	if _, ok := o.MatchFor("p1"); ok {
		t.Error("p1 still mapped to a released match")
	}
}

func TestLeaveMatchForfeit(t *testing.T) {
	n := newCaptureNotifier()
	o := newTestOrchestrator(t, n, nil)

	matchID, m := pairPlayers(t, o, n)
	o.countdownDone(m)

	if err := o.LeaveMatch(matchID, "p1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	ended, ok := n.last("p2", EventMatchEnded)
	if !ok {
		t.Fatal("no match_ended after forfeit")
	}
	if ended.Result.Resolution != geoclash.ResolutionForfeit {
		t.Errorf("resolution = %q, want forfeit", ended.Result.Resolution)
	}
	if ended.Result.WinnerID != "p2" {
		t.Errorf("winner = %q, want p2", ended.Result.WinnerID)
	}

	// Leaving again is a no-op.
	if err := o.LeaveMatch(matchID, "p1"); err != nil {
		t.Errorf("second leave: %v", err)
	}
	if _, err := o.SubmitAnswer(matchID, "p2", "France"); !errors.Is(err, ErrUnknownMatch) {
		t.Errorf("submit after forfeit err = %v, want ErrUnknownMatch", err)
	}
}

func TestDisconnectGraceAndResume(t *testing.T) {
	n := newCaptureNotifier()
	o := newTestOrchestrator(t, n, nil)

	_, m := pairPlayers(t, o, n)
	o.countdownDone(m)

	o.Disconnect("p1")
	if _, ok := n.last("p2", EventOpponentDisconnected); !ok {
		t.Fatal("p2 never learned about the disconnect")
	}

	// Reconnecting inside the grace window cancels the forfeit.
	o.Resume("p1")
	if _, ok := n.last("p2", EventOpponentReconnected); !ok {
		t.Fatal("p2 never learned about the reconnect")
	}
	m.mu.Lock()
	pending := len(m.graceTimers)
	m.mu.Unlock()
	if pending != 0 {
		t.Errorf("%d grace timers still pending after resume", pending)
	}

	// A second disconnect that runs out of grace forfeits the match.
	o.Disconnect("p1")
	o.graceExpired(m, "p1")
	ended, ok := n.last("p1", EventMatchEnded)
	if !ok {
		t.Fatal("no match_ended after grace expiry")
	}
	if ended.Result.Resolution != geoclash.ResolutionForfeit || ended.Result.WinnerID != "p2" {
		t.Errorf("result = %+v, want p2 winning by forfeit", ended.Result)
	}
}

func TestDisconnectWhileQueued(t *testing.T) {
	n := newCaptureNotifier()
	o := newTestOrchestrator(t, n, nil)

	if err := o.JoinQueue(Participant{ID: "p1"}, geoclash.GameCountries); err != nil {
		t.Fatalf("join: %v", err)
	}
	o.Disconnect("p1")

	// The queue entry is gone, so a fresh join succeeds.
	if err := o.JoinQueue(Participant{ID: "p1"}, geoclash.GameCountries); err != nil {
		t.Errorf("rejoin after disconnect: %v", err)
	}
}

func TestSubmitAnswerGuards(t *testing.T) {
	n := newCaptureNotifier()
	o := newTestOrchestrator(t, n, nil)

	if _, err := o.SubmitAnswer("nope", "p1", "France"); !errors.Is(err, ErrUnknownMatch) {
		t.Errorf("unknown match err = %v, want ErrUnknownMatch", err)
	}

	matchID, _ := pairPlayers(t, o, n)
	// Still counting down; no round accepts answers yet.
	if _, err := o.SubmitAnswer(matchID, "p1", "France"); !errors.Is(err, ErrRoundClosed) {
		t.Errorf("countdown submit err = %v, want ErrRoundClosed", err)
	}
}

func TestStaleRoundTimeoutIgnored(t *testing.T) {
	n := newCaptureNotifier()
	o := newTestOrchestrator(t, n, nil)

	matchID, m := pairPlayers(t, o, n)
	o.countdownDone(m)

	m.mu.Lock()
	target := m.round.Target().Name
	m.mu.Unlock()
	if _, err := o.SubmitAnswer(matchID, "p1", target); err != nil {
		t.Fatalf("submit: %v", err)
	}
	o.roundTimeout(m, 1) // settles round 1, starts round 2

	// A late callback for round 1 must not touch round 2.
	o.roundTimeout(m, 1)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.roundNum != 2 {
		t.Fatalf("round = %d, want 2", m.roundNum)
	}
	if m.state != StateRoundActive {
		t.Errorf("state = %q, want round_active", m.state)
	}
}

func TestFlagAsset(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"France", "flag-france"},
		{"United States", "flag-united-states"},
		{"Congo, Dem. Rep.", "flag-congo-dem-rep"},
	}
	for _, tt := range tests {
		if got := flagAsset(tt.in); got != tt.want {
			t.Errorf("flagAsset(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
