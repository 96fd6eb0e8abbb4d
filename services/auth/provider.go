package auth

import (
	"github.com/parleychat/authkit/config"
	"github.com/parleychat/authkit/services/identity"
	"github.com/parleychat/authkit/services/logging"
	"github.com/parleychat/authkit/services/refreshtoken"
	"github.com/parleychat/authkit/services/revocation"
	"go.uber.org/fx"
)

func NewAuthService(
	cfg *config.Config,
	identitySvc *identity.Service,
	refreshSvc *refreshtoken.Service,
	revocationSvc *revocation.Service,
	users UserStore,
	logger *logging.Service,
) *Service {
	return NewService(cfg, identitySvc, refreshSvc, revocationSvc, users, logger)
}

var Options = fx.Options(
	fx.Provide(NewAuthService),
)
