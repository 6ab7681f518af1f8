package app

import (
	"context"

	"event-trivia-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// MultiSnapshotStore writes every snapshot to all of its stores in parallel.
type MultiSnapshotStore []SnapshotStore

func (m MultiSnapshotStore) SaveSnapshot(ctx context.Context, snapshot domain.GameSnapshot) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, store := range m {
		g.Go(func() error {
			return store.SaveSnapshot(ctx, snapshot)
		})
	}
	return g.Wait()
}
