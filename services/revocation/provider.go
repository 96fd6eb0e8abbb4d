package revocation

import (
	"fmt"

	"github.com/parleychat/authkit/config"
	"github.com/parleychat/authkit/services/logging"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func ProvideStore(cfg *config.Config, logger *logging.Service) (Store, error) {
	if logger != nil {
		logger.Info("initializing revocation store",
			zap.String("store_type", cfg.Revocation.Store))
	}

	switch cfg.Revocation.Store {
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Revocation.RedisAddr,
			Password: cfg.Revocation.RedisPassword,
			DB:       cfg.Revocation.RedisDB,
		})
		return NewRedisStore(client, cfg.Revocation.KeyPrefix), nil
	default:
		if logger != nil {
			logger.Error("unsupported revocation store type",
				zap.String("store_type", cfg.Revocation.Store),
				zap.Strings("supported_types", []string{"memory", "redis"}))
		}
		return nil, fmt.Errorf("unsupported revocation store type: %s", cfg.Revocation.Store)
	}
}

func ProvideRevocationService(cfg *config.Config, store Store, logger *logging.Service) *Service {
	return NewService(cfg, store, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideStore),
	fx.Provide(ProvideRevocationService),
)
