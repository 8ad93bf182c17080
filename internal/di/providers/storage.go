package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/kellerblick/storefront/internal/config"
	"github.com/kellerblick/storefront/internal/logger"
	"github.com/kellerblick/storefront/internal/store"
	"github.com/kellerblick/storefront/internal/store/sqlite"
)

// StorageHandle wraps the persistence driver with shutdown capability.
type StorageHandle struct {
	store.Storage
}

// Shutdown implements do.Shutdownable.
func (h *StorageHandle) Shutdown() error {
	return h.Close()
}

// ProvideStorage provides the persistence driver selected by STORAGE_DRIVER.
func ProvideStorage(i do.Injector) (*StorageHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := OpenStorage(context.Background(), cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	return &StorageHandle{Storage: storage}, nil
}

// OpenStorage opens the driver named in cfg. Badger and sqlite live under DataPath.
func OpenStorage(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (store.Storage, error) {
	switch cfg.Driver {
	case "badger":
		path := filepath.Join(cfg.DataPath, "db")
		s, err := store.NewBadger(path, log.Component("storage"))
		if err != nil {
			return nil, err
		}
		log.Info("Storage initialized", "driver", cfg.Driver, "path", path)
		return s, nil

	case "sqlite":
		if err := os.MkdirAll(cfg.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create data path: %w", err)
		}
		path := filepath.Join(cfg.DataPath, "state.db")
		s, err := sqlite.Open(path, log.Component("storage"))
		if err != nil {
			return nil, err
		}
		log.Info("Storage initialized", "driver", cfg.Driver, "path", path)
		return s, nil

	case "redis":
		s, err := store.NewRedis(ctx, cfg.RedisURL, log.Component("storage"))
		if err != nil {
			return nil, err
		}
		log.Info("Storage initialized", "driver", cfg.Driver)
		return s, nil

	case "memory":
		log.Warn("Using in-memory storage; wishlist and bookings are lost on restart")
		return store.NewMemory(), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
