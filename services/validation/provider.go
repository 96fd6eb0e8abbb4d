package validation

import (
	"github.com/parleychat/authkit/services/logging"
	"go.uber.org/fx"
)

func NewValidationService(logger *logging.Service) *Service {
	return NewService(logger)
}

var Options = fx.Options(
	fx.Provide(NewValidationService),
)
