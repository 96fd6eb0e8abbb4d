package identity

import (
	"github.com/parleychat/authkit/config"
	"github.com/parleychat/authkit/services/logging"
	"go.uber.org/fx"
)

func NewIdentityService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(cfg, logger)
}

var Options = fx.Options(
	fx.Provide(NewIdentityService),
)
