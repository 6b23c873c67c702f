package match

import "github.com/geoclash/geoclash/internal/geoclash"

// Event types pushed to clients. Events for one match are generated under
// the match lock, so each player observes them in server order.
const (
	EventQueueJoined          = "queue_joined"
	EventQueueError           = "queue_error"
	EventMatchFound           = "match_found"
	EventCountdown            = "countdown"
	EventRoundStarted         = "round_started"
	EventGuessResult          = "guess_result"
	EventRoundResult          = "round_result"
	EventMatchEnded           = "match_ended"
	EventOpponentDisconnected = "opponent_disconnected"
	EventOpponentReconnected  = "opponent_reconnected"
)

// Queue error reasons.
const (
	ReasonAlreadyQueued = "already_queued"
	ReasonQueueTimeout  = "queue_timeout"
)

// Participant identifies one player to the other side of a match.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Event is the payload pushed to a player over the duplex channel.
type Event struct {
	Type          string                    `json:"type"`
	PlayerID      string                    `json:"playerId,omitempty"`
	MatchID       string                    `json:"matchId,omitempty"`
	GameType      geoclash.GameType         `json:"gameType,omitempty"`
	Participants  []Participant             `json:"participants,omitempty"`
	Seconds       int                       `json:"seconds,omitempty"`
	Round         int                       `json:"round,omitempty"`
	Prompt        string                    `json:"prompt,omitempty"`
	Verdict       *geoclash.Verdict         `json:"verdict,omitempty"`
	Proximity     *geoclash.ProximityResult `json:"proximity,omitempty"`
	AttemptsLeft  *int                      `json:"attemptsLeft,omitempty"`
	Solved        bool                      `json:"solved,omitempty"`
	WinnerID      string                    `json:"winnerId,omitempty"`
	Resolution    geoclash.Resolution       `json:"resolution,omitempty"`
	CorrectAnswer string                    `json:"correctAnswer,omitempty"`
	Scores        map[string]int            `json:"scores,omitempty"`
	Result        *geoclash.MatchResult     `json:"result,omitempty"`
	Reason        string                    `json:"reason,omitempty"`
}

// Notifier delivers events to a player. Implementations must not block;
// the orchestrator publishes while holding the match lock.
type Notifier interface {
	Notify(playerID string, ev Event)
}

// Stats receives game counters. The Prometheus recorder implements it; a
// nil-safe no-op is used when metrics are disabled.
type Stats interface {
	MatchStarted(gt geoclash.GameType)
	MatchEnded(res geoclash.Resolution)
	RoundSettled(res geoclash.Resolution)
	Verdict(kind geoclash.VerdictKind)
}

type nopStats struct{}

func (nopStats) MatchStarted(geoclash.GameType)   {}
func (nopStats) MatchEnded(geoclash.Resolution)   {}
func (nopStats) RoundSettled(geoclash.Resolution) {}
func (nopStats) Verdict(geoclash.VerdictKind)     {}
