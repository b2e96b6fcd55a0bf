// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/rummy/internal/cache"
)

// Game status values stored in games.status.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusAbandoned  = "abandoned"
)

// Action types that change the games row.
const (
	actionRoundEnd = "round_end"
	actionGameEnd  = "game_end"
)

// ErrGameNotFound is returned when no archived game has the requested id.
var ErrGameNotFound = errors.New("game not found")

// GameSummary is one row of the games table.
type GameSummary struct {
	ID        uuid.UUID
	RoomCode  string
	Status    string
	Rounds    int
	WinnerID  *uuid.UUID
	StartTime time.Time
	EndTime   *time.Time
}

// InsertActions archives a batch of action records in one transaction. Records
// already stored under the same (game, index) are skipped, so replaying a batch
// is harmless.
func (s *Store) InsertActions(ctx context.Context, records []cache.ActionRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	roundsChanged := make(map[uuid.UUID]bool)
	for _, rec := range records {
		if err := queueAction(batch, rec); err != nil {
			return fmt.Errorf("encode action %s/%d: %w", rec.GameID, rec.ActionIndex, err)
		}
		if rec.ActionType == actionRoundEnd {
			roundsChanged[rec.GameID] = true
		}
	}
	// Counting the archived round_end rows keeps replays from double counting.
	for gameID := range roundsChanged {
		batch.Queue(`
			UPDATE games
			SET rounds = (SELECT count(*) FROM game_actions WHERE game_id = $1 AND action_type = 'round_end')
			WHERE id = $1
		`, gameID)
	}

	return s.withTx(ctx, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
}

func queueAction(batch *pgx.Batch, rec cache.ActionRecord) error {
	payload := rec.ActionPayload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var actor *uuid.UUID
	if rec.ActorID != uuid.Nil {
		actor = &rec.ActorID
	}
	recordedAt := time.UnixMilli(rec.Timestamp)

	batch.Queue(`
		INSERT INTO games (id, room_code, status, start_time)
		VALUES ($1, $2, 'in_progress', $3)
		ON CONFLICT (id)
		DO UPDATE SET start_time = LEAST(games.start_time, EXCLUDED.start_time)
	`, rec.GameID, rec.RoomCode, recordedAt)

	batch.Queue(`
		INSERT INTO game_actions (
			game_id, action_index, actor_id, action_type, action_payload, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`, rec.GameID, rec.ActionIndex, actor, rec.ActionType, jsonPayload, recordedAt)

	if rec.ActionType == actionGameEnd {
		batch.Queue(`
			UPDATE games
			SET status = 'completed', winner_id = $2, end_time = $3
			WHERE id = $1 AND status <> 'completed'
		`, rec.GameID, actor, recordedAt)
	}
	return nil
}

// MarkAbandoned flags a game that is still in progress as abandoned. It
// reports whether a row changed.
func (s *Store) MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error) {
	var changed bool
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		q := `
			UPDATE games
			SET status = 'abandoned', end_time = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`
		tag, err := tx.Exec(ctx, q, gameID)
		if err != nil {
			return err
		}
		changed = tag.RowsAffected() > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("mark game %s abandoned: %w", gameID, err)
	}
	return changed, nil
}

// GetGame loads the games row for gameID.
func (s *Store) GetGame(ctx context.Context, gameID uuid.UUID) (*GameSummary, error) {
	q := `
		SELECT id, room_code, status, rounds, winner_id, start_time, end_time
		FROM games
		WHERE id = $1
	`
	var g GameSummary
	err := s.pool.QueryRow(ctx, q, gameID).Scan(
		&g.ID, &g.RoomCode, &g.Status, &g.Rounds, &g.WinnerID, &g.StartTime, &g.EndTime,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListActions returns the archived actions of a game in index order.
func (s *Store) ListActions(ctx context.Context, gameID uuid.UUID) ([]cache.ActionRecord, error) {
	q := `
		SELECT game_id, action_index, actor_id, action_type, action_payload, recorded_at
		FROM game_actions
		WHERE game_id = $1
		ORDER BY action_index
	`
	rows, err := s.pool.Query(ctx, q, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []cache.ActionRecord
	for rows.Next() {
		var (
			rec        cache.ActionRecord
			actor      *uuid.UUID
			recordedAt time.Time
		)
		if err := rows.Scan(&rec.GameID, &rec.ActionIndex, &actor, &rec.ActionType, &rec.ActionPayload, &recordedAt); err != nil {
			return nil, err
		}
		if actor != nil {
			rec.ActorID = *actor
		}
		rec.Timestamp = recordedAt.UnixMilli()
		out = append(out, rec)
	}
	return out, rows.Err()
}
