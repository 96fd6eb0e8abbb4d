package userstore

import (
	"github.com/parleychat/authkit/config"
	"github.com/parleychat/authkit/services/auth"
	"github.com/parleychat/authkit/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func NewUserStoreService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	return NewService(db, cfg, logger)
}

func ProvideAsAuthInterface(svc *Service) auth.UserStore {
	return svc
}

var Options = fx.Options(
	fx.Provide(NewUserStoreService),
	fx.Provide(ProvideAsAuthInterface),
)
