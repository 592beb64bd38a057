package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/pairs-api/internal/models"
	"github.com/noah-isme/pairs-api/pkg/config"
	"github.com/noah-isme/pairs-api/pkg/database"
)

// RosterStore loads and saves the whole roster.
type RosterStore interface {
	Load(ctx context.Context) (*models.Roster, error)
	Save(ctx context.Context, roster *models.Roster) error
}

// OpenRosterStore builds the store selected by cfg.Roster.StorageDriver. The returned close
// function releases any database handle and is never nil.
func OpenRosterStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (RosterStore, func(), error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	noop := func() {}

	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Roster.StorageDriver {
	case "", config.StorageFile:
		logger.Info("using file roster store", zap.String("path", cfg.Roster.File))
		return NewFileRosterRepository(cfg.Roster.File, logger), noop, nil
	case config.StoragePostgres:
		db, err = database.NewPostgres(ctx, cfg.Database)
	case config.StorageSQLite:
		db, err = database.NewSQLite(ctx, cfg.SQLite)
	default:
		return nil, noop, fmt.Errorf("unknown roster storage driver %q", cfg.Roster.StorageDriver)
	}
	if err != nil {
		return nil, noop, fmt.Errorf("open %s roster store: %w", cfg.Roster.StorageDriver, err)
	}

	repo := NewSQLRosterRepository(db, cfg.Roster.ID)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, noop, err
	}
	logger.Info("using sql roster store", zap.String("driver", cfg.Roster.StorageDriver), zap.String("roster_id", cfg.Roster.ID))
	return repo, func() { _ = db.Close() }, nil
}
