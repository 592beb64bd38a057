package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/pairs-api/internal/models"
)

// FileRosterRepository keeps the roster snapshot in a single YAML document.
type FileRosterRepository struct {
	path   string
	logger *zap.Logger
}

// NewFileRosterRepository constructs a repository backed by path.
func NewFileRosterRepository(path string, logger *zap.Logger) *FileRosterRepository {
	if path == "" {
		path = "pairs.yaml"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileRosterRepository{path: path, logger: logger}
}

// Load reads the snapshot. A missing file yields an empty roster.
func (r *FileRosterRepository) Load(ctx context.Context) (*models.Roster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug("roster file missing, starting empty", zap.String("path", r.path))
			return models.NewRoster(), nil
		}
		return nil, fmt.Errorf("read roster file: %w", err)
	}

	var snap models.Snapshot
	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode roster file %s: %w", r.path, err)
	}
	roster, err := snap.Roster()
	if err != nil {
		return nil, fmt.Errorf("invalid roster file %s: %w", r.path, err)
	}
	return roster, nil
}

// Save writes the snapshot to a temp file in the same directory and renames it into place, so
// readers never observe a partial document.
func (r *FileRosterRepository) Save(ctx context.Context, roster *models.Roster) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := yaml.Marshal(roster.Snapshot())
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("prepare roster directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp roster file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp roster file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp roster file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp roster file: %w", err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		cleanup()
		return fmt.Errorf("replace roster file: %w", err)
	}

	r.logger.Debug("roster saved", zap.String("path", r.path), zap.String("revision", roster.Revision))
	return nil
}

// Path returns the snapshot location.
func (r *FileRosterRepository) Path() string {
	return r.path
}
