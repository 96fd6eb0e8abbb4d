// Package authkit is the session and token lifecycle subsystem for
// parleychat services: issuance and verification of short-lived signed
// identity tokens, rotation of long-lived refresh tokens, and detection
// of refresh-token replay through a shared family-head revocation store.
package authkit

import (
	"github.com/parleychat/authkit/config"
	"github.com/parleychat/authkit/database"
	"github.com/parleychat/authkit/services/auth"
	"github.com/parleychat/authkit/services/identity"
	"github.com/parleychat/authkit/services/logging"
	"github.com/parleychat/authkit/services/refreshtoken"
	"github.com/parleychat/authkit/services/revocation"
	"github.com/parleychat/authkit/services/userstore"
	"github.com/parleychat/authkit/services/validation"
	"go.uber.org/fx"
)

// Options wires the full token subsystem: config, logging, both token
// codecs, the revocation store, the rotation protocol, the request
// validation extractor, and the relational user store collaborator.
func Options(cfg *config.Config) fx.Option {
	return fx.Options(
		config.NewProvider(cfg),
		logging.Module,
		database.Module,
		fx.Provide(func() *database.ModelsOption {
			return database.WithModels(&userstore.UserRecord{})
		}),
		identity.Options,
		refreshtoken.Options,
		revocation.Module,
		userstore.Options,
		auth.Options,
		validation.Options,
	)
}

// CoreOptions wires the token subsystem without the relational store
// collaborator, for consumers that bring their own auth.UserStore
// implementation.
func CoreOptions(cfg *config.Config) fx.Option {
	return fx.Options(
		config.NewProvider(cfg),
		logging.Module,
		identity.Options,
		refreshtoken.Options,
		revocation.Module,
		auth.Options,
		validation.Options,
	)
}
