package server

import (
	"context"
	"database/sql"

	"github.com/geoclash/geoclash/internal/geoclash"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) RecordOutcome(ctx context.Context, o geoclash.Outcome) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes (game_id, game_type, player_id, score, elapsed_ms, streak, attempt_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (game_id, player_id) DO NOTHING
	`, o.GameID, string(o.GameType), o.PlayerID, o.Score, o.Elapsed.Milliseconds(), o.Streak, o.AttemptCount)
	return err
}

func (s *SQLiteStore) RecentOutcomes(ctx context.Context, limit int) ([]OutcomeRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game_id, game_type, player_id, score, elapsed_ms, streak, attempt_count, recorded_at
		FROM outcomes
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutcomeRow
	for rows.Next() {
		var r OutcomeRow
		var gt string
		if err := rows.Scan(&r.GameID, &gt, &r.PlayerID, &r.Score, &r.ElapsedMs, &r.Streak, &r.AttemptCount, &r.RecordedAt); err != nil {
			return nil, err
		}
		r.GameType = geoclash.GameType(gt)
		out = append(out, r)
	}
	return out, rows.Err()
}
