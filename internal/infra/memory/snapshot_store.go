package memory

import (
	"context"
	"sync"

	"event-trivia-service/internal/domain"
)

const DefaultSnapshotHistory = 10

// SnapshotStore keeps the most recent game snapshots in memory.
type SnapshotStore struct {
	mu        sync.RWMutex
	history   int
	snapshots []domain.GameSnapshot
}

func NewSnapshotStore(history int) *SnapshotStore {
	if history <= 0 {
		history = DefaultSnapshotHistory
	}
	return &SnapshotStore{history: history}
}

func (s *SnapshotStore) SaveSnapshot(_ context.Context, snapshot domain.GameSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snapshot)
	if over := len(s.snapshots) - s.history; over > 0 {
		s.snapshots = append([]domain.GameSnapshot(nil), s.snapshots[over:]...)
	}
	return nil
}

// Latest returns the most recently saved snapshot.
func (s *SnapshotStore) Latest() (domain.GameSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.snapshots) == 0 {
		return domain.GameSnapshot{}, false
	}
	return s.snapshots[len(s.snapshots)-1], true
}

// Len reports how many snapshots are retained.
func (s *SnapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}
