package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"event-trivia-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// SnapshotStore appends every game snapshot to the game_snapshots table.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snapshot domain.GameSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO game_snapshots (state, taken_at, data) VALUES ($1, $2, $3)`,
		string(snapshot.State), snapshot.TakenAt, raw)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recently stored snapshot.
func (s *SnapshotStore) Latest(ctx context.Context) (domain.GameSnapshot, error) {
	var snapshot domain.GameSnapshot
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM game_snapshots ORDER BY id DESC LIMIT 1`).Scan(&raw)
	if err != nil {
		return snapshot, fmt.Errorf("load snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return snapshot, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snapshot, nil
}
