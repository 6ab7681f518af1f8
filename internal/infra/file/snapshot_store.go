package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"event-trivia-service/internal/domain"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

const DefaultSnapshotPath = "game_state.json"

// SnapshotStore dumps the latest game snapshot to a JSON file. The file is
// replaced atomically so readers never see a partial document.
type SnapshotStore struct {
	path string
}

func NewSnapshotStore(path string) *SnapshotStore {
	if path == "" {
		path = DefaultSnapshotPath
	}
	return &SnapshotStore{path: path}
}

func (s *SnapshotStore) Path() string {
	return s.path
}

func (s *SnapshotStore) SaveSnapshot(_ context.Context, snapshot domain.GameSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	log.Info().Str("path", s.path).Str("size", humanize.Bytes(uint64(len(data)))).Msg("game snapshot written")
	return nil
}

// Load reads back the snapshot last written.
func (s *SnapshotStore) Load() (domain.GameSnapshot, error) {
	var snapshot domain.GameSnapshot
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return snapshot, fmt.Errorf("read snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return snapshot, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, nil
}
