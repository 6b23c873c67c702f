package server

import (
	"context"

	"github.com/geoclash/geoclash/internal/geoclash"
)

// OutcomeRow is one persisted game outcome.
type OutcomeRow struct {
	GameID       string            `json:"gameId"`
	GameType     geoclash.GameType `json:"gameType"`
	PlayerID     string            `json:"playerId"`
	Score        int               `json:"score"`
	ElapsedMs    int64             `json:"elapsedMs"`
	Streak       int               `json:"streak"`
	AttemptCount int               `json:"attemptCount"`
	RecordedAt   string            `json:"recordedAt"`
}

// Store is the persistence collaborator. RecordOutcome is idempotent per
// (game, player); replays of the same settlement are no-ops.
type Store interface {
	RecordOutcome(ctx context.Context, o geoclash.Outcome) error
	RecentOutcomes(ctx context.Context, limit int) ([]OutcomeRow, error)
}
