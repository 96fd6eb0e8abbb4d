package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/parleychat/authkit/config"
	"github.com/parleychat/authkit/services/logging"
	"go.uber.org/zap"
)

var ErrStoreNotConfigured = errors.New("revocation store not configured")

type Service struct {
	config *config.Config
	store  Store
	logger *logging.Service
}

func NewService(cfg *config.Config, store Store, logger *logging.Service) *Service {
	if logger != nil {
		logger.Info("initializing revocation service",
			zap.String("store_type", cfg.Revocation.Store))
	}

	return &Service{
		config: cfg,
		store:  store,
		logger: logger,
	}
}

func (s *Service) SetHead(ctx context.Context, family, fingerprint string, ttl time.Duration) error {
	if s.store == nil {
		return ErrStoreNotConfigured
	}

	if err := s.store.SetHead(ctx, family, fingerprint, ttl); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to set family head",
				zap.String("family", family),
				zap.Error(err))
		}
		return fmt.Errorf("failed to set family head: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("family head set",
			zap.String("family", family),
			zap.Duration("ttl", ttl))
	}

	return nil
}

func (s *Service) IsHead(ctx context.Context, family, fingerprint string) (bool, error) {
	if s.store == nil {
		return false, ErrStoreNotConfigured
	}

	head, err := s.store.IsHead(ctx, family, fingerprint)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to check family head",
				zap.String("family", family),
				zap.Error(err))
		}
		return false, fmt.Errorf("failed to check family head: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("family head checked",
			zap.String("family", family),
			zap.Bool("is_head", head))
	}

	return head, nil
}

func (s *Service) RotateHead(ctx context.Context, family, oldFingerprint, newFingerprint string, ttl time.Duration) (bool, error) {
	if s.store == nil {
		return false, ErrStoreNotConfigured
	}

	swapped, err := s.store.RotateHead(ctx, family, oldFingerprint, newFingerprint, ttl)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to rotate family head",
				zap.String("family", family),
				zap.Error(err))
		}
		return false, fmt.Errorf("failed to rotate family head: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug("family head rotation attempted",
			zap.String("family", family),
			zap.Bool("swapped", swapped))
	}

	return swapped, nil
}

func (s *Service) Revoke(ctx context.Context, family string) error {
	if s.store == nil {
		return ErrStoreNotConfigured
	}

	if err := s.store.Revoke(ctx, family); err != nil {
		if s.logger != nil {
			s.logger.Error("failed to revoke family",
				zap.String("family", family),
				zap.Error(err))
		}
		return fmt.Errorf("failed to revoke family: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("token family revoked",
			zap.String("family", family))
	}

	return nil
}
