// Package app wires configuration, storage and the roster core together.
package app

import (
	"context"

	"github.com/pkg/errors"

	"github.com/quipper/poc/gradebook/internal/config"
	"github.com/quipper/poc/gradebook/internal/repositories/kv/memory"
	kvRedis "github.com/quipper/poc/gradebook/internal/repositories/kv/redis"
	kvSqlite "github.com/quipper/poc/gradebook/internal/repositories/kv/sqlite"
	"github.com/quipper/poc/gradebook/internal/roster"
	"github.com/quipper/poc/gradebook/pkg/common/logger"
	"github.com/quipper/poc/gradebook/pkg/repositories/kv"
)

// App is one opened roster: its storage, store and form controller.
type App struct {
	Repo       kv.Repository
	Store      *roster.Store
	Controller *roster.Controller
}

// OpenRepository builds the kv backend named by s.Driver.
func OpenRepository(ctx context.Context, s config.Storage) (kv.Repository, error) {
	switch s.Driver {
	case config.DriverSQLite:
		logger.Debug("opening sqlite storage at %s", s.SQLitePath)
		repo, err := kvSqlite.NewSQLiteRepo(s.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.DriverRedis:
		logger.Debug("opening redis storage at %s", s.RedisAddr)
		repo, err := kvRedis.NewRedisRepo(ctx, s.RedisAddr)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.DriverMemory:
		logger.Warn("memory storage selected, nothing will be kept after exit")
		return memory.NewRepo(), nil
	}
	return nil, errors.Errorf("unknown storage driver %q", s.Driver)
}

// Open hydrates the roster from the configured storage.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	repo, err := OpenRepository(ctx, cfg.Storage)
	if err != nil {
		return nil, errors.Wrap(err, "init repo")
	}
	return New(ctx, repo, cfg.Storage.Key)
}

// New builds an App over an already opened repository. The repository is
// disconnected if hydration fails.
func New(ctx context.Context, repo kv.Repository, key string) (*App, error) {
	store, err := roster.OpenStore(ctx, roster.NewPersistence(repo, key))
	if err != nil {
		repo.Disconnect()
		return nil, errors.Wrap(err, "open roster")
	}
	logger.Info("roster loaded with %d students", store.Len())
	return &App{
		Repo:       repo,
		Store:      store,
		Controller: roster.NewController(store),
	}, nil
}

// Close releases the storage backend.
func (a *App) Close() {
	if a.Repo != nil {
		a.Repo.Disconnect()
	}
}
