package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"event-trivia-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	latestSnapshotKey  = "trivia:snapshot:latest"
	snapshotHistoryKey = "trivia:snapshot:history"
)

// SnapshotStore keeps the latest game snapshot plus a capped history list.
type SnapshotStore struct {
	client  *redis.Client
	history int64
	ttl     time.Duration
}

func NewSnapshotStore(client *redis.Client, history int, ttl time.Duration) *SnapshotStore {
	if history <= 0 {
		history = 1
	}
	return &SnapshotStore{client: client, history: int64(history), ttl: ttl}
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, snapshot domain.GameSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, latestSnapshotKey, raw, s.ttl)
	pipe.LPush(ctx, snapshotHistoryKey, raw)
	pipe.LTrim(ctx, snapshotHistoryKey, 0, s.history-1)
	if s.ttl > 0 {
		pipe.Expire(ctx, snapshotHistoryKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot.
func (s *SnapshotStore) Latest(ctx context.Context) (domain.GameSnapshot, error) {
	var snapshot domain.GameSnapshot
	raw, err := s.client.Get(ctx, latestSnapshotKey).Bytes()
	if err != nil {
		return snapshot, fmt.Errorf("load snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return snapshot, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, nil
}
