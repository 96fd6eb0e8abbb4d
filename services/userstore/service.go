package userstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/parleychat/authkit/config"
	"github.com/parleychat/authkit/services/auth"
	"github.com/parleychat/authkit/services/logging"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrLoginTaken = errors.New("a user with this login already exists")

// Service is the relational collaborator behind auth.UserStore. Both the
// unknown-login and wrong-password paths answer auth.ErrCredentialsInvalid
// so callers cannot learn which one failed.
type Service struct {
	db     *gorm.DB
	config *config.Config
	logger *logging.Service
}

func NewService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}

	return &Service{
		db:     db,
		config: cfg,
		logger: logger,
	}
}

func (s *Service) FindByCredentials(ctx context.Context, login, password string) (*auth.User, error) {
	var record UserRecord
	err := s.db.WithContext(ctx).Where("login = ?", login).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrCredentialsInvalid
		}
		if s.logger != nil {
			s.logger.Error("user lookup by credentials failed", zap.Error(err))
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return nil, auth.ErrCredentialsInvalid
	}

	return toUser(&record), nil
}

func (s *Service) FindByID(ctx context.Context, id int) (*auth.User, error) {
	var record UserRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrCredentialsInvalid
		}
		if s.logger != nil {
			s.logger.Error("user lookup by id failed", zap.Error(err))
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return toUser(&record), nil
}

func (s *Service) LoginExists(ctx context.Context, login string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&UserRecord{}).Where("login = ?", login).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return count > 0, nil
}

func (s *Service) Create(ctx context.Context, login, name, password string) (*auth.User, error) {
	exists, err := s.LoginExists(ctx, login)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrLoginTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	record := UserRecord{
		Login:        login,
		Name:         name,
		PasswordHash: string(hash),
		Authorized:   true,
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if s.logger != nil {
			s.logger.Error("failed to create user", zap.Error(err))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("user created",
			zap.Int("user_id", record.ID),
			zap.String("login", record.Login))
	}

	return toUser(&record), nil
}

func toUser(record *UserRecord) *auth.User {
	return &auth.User{
		ID:         record.ID,
		Login:      record.Login,
		Name:       record.Name,
		Authorized: record.Authorized,
	}
}
