package kvstore

import (
	"context"
	"fmt"

	"github.com/gravekeeper/core/internal/infrastructure/config"
	"github.com/gravekeeper/core/internal/infrastructure/logger"
	"github.com/gravekeeper/core/internal/ports"
)

// Open builds the store selected by cfg.Store.Driver
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (ports.KeyValueStore, error) {
	switch cfg.Store.Driver {
	case "badger":
		return OpenBadger(cfg.Store.Path, cfg.Store.InMemory, log)
	case "redis":
		return NewRedisStore(ctx, cfg.Redis, cfg.Store.Timeout)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
