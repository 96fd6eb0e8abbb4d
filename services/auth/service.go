package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/parleychat/authkit/config"
	"github.com/parleychat/authkit/services/identity"
	"github.com/parleychat/authkit/services/logging"
	"github.com/parleychat/authkit/services/refreshtoken"
	"github.com/parleychat/authkit/services/revocation"
	"go.uber.org/zap"
)

var (
	ErrTokenMalformed        = errors.New("refresh token is malformed")
	ErrTokenSignatureInvalid = errors.New("refresh token signature is invalid")
	ErrTokenExpired          = errors.New("refresh token has expired")
	ErrTokenReplayed         = errors.New("refresh token is not the family head")
	ErrCredentialsInvalid    = errors.New("invalid credentials")
	ErrAuthorizationRevoked  = errors.New("account access has been revoked")
	ErrStorageUnavailable    = errors.New("backing store unavailable")
)

// User is the relational collaborator's view of an account, as consumed
// by this core. Persistence of user records lives outside this module.
type User struct {
	ID         int
	Login      string
	Name       string
	Authorized bool
}

// UserStore is the relational store collaborator. FindByCredentials must
// return ErrCredentialsInvalid for both an unknown login and a wrong
// password, so the caller cannot tell which field was wrong.
type UserStore interface {
	FindByCredentials(ctx context.Context, login, password string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
}

// Session is the outcome of a successful authentication or rotation: the
// pair of cookies to hand to the client. The server keeps no copy of
// either token; the family head record is the only server-resident state.
type Session struct {
	User          User
	IdentityToken string
	RefreshToken  refreshtoken.Token
	Identity      *http.Cookie
	Refresh       *http.Cookie
}

type Service struct {
	config     *config.Config
	identity   *identity.Service
	refresh    *refreshtoken.Service
	revocation *revocation.Service
	users      UserStore
	logger     *logging.Service
	now        func() time.Time
}

func NewService(
	cfg *config.Config,
	identitySvc *identity.Service,
	refreshSvc *refreshtoken.Service,
	revocationSvc *revocation.Service,
	users UserStore,
	logger *logging.Service,
) *Service {
	if logger != nil {
		logger.Info("initializing auth service",
			zap.Duration("failure_delay", cfg.Auth.FailureDelay))
	}

	return &Service{
		config:     cfg,
		identity:   identitySvc,
		refresh:    refreshSvc,
		revocation: revocationSvc,
		users:      users,
		logger:     logger,
		now:        time.Now,
	}
}

// Authenticate verifies credentials and opens a new token family. Every
// credential failure is delayed by a fixed interval and reported as the
// same opaque error, regardless of whether the login or the password was
// wrong. The delay suspends only this request.
func (s *Service) Authenticate(ctx context.Context, login, password string, lifetime refreshtoken.Lifetime) (*Session, error) {
	user, err := s.users.FindByCredentials(ctx, login, password)
	if err != nil {
		if errors.Is(err, ErrCredentialsInvalid) {
			if s.logger != nil {
				s.logger.Warn("authentication failed",
					zap.String("login", login))
			}
			s.failureDelay(ctx)
			return nil, ErrCredentialsInvalid
		}
		if s.logger != nil {
			s.logger.Error("user lookup failed", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if !user.Authorized {
		if s.logger != nil {
			s.logger.Warn("authentication rejected for unauthorized account",
				zap.Int("user_id", user.ID))
		}
		return nil, ErrAuthorizationRevoked
	}

	token := s.refresh.Create(user.ID, lifetime)
	if err := s.revocation.SetHead(ctx, token.Family.String(), refreshtoken.Fingerprint(token), token.TTL(s.now())); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	session, err := s.materialize(*user, token)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("user authenticated",
			zap.Int("user_id", user.ID),
			zap.String("family", token.Family.String()))
	}

	return session, nil
}

// Rotate renews a presented refresh token. The presented token must
// decode, be unexpired, and be the current head of its family; the head
// comparison and the overwrite happen as one atomic step in the
// revocation store, so of two concurrent rotations of the same token
// exactly one wins. A presented token that is not the head is either a
// benign double submit or a replayed stolen token; the stored state
// cannot distinguish these, so the whole family is torn down and the
// caller must re-authenticate.
func (s *Service) Rotate(ctx context.Context, presented string) (*Session, error) {
	token, err := s.refresh.Decode(presented)
	if err != nil {
		return nil, mapDecodeError(err)
	}

	renewed := s.refresh.Renew(token)
	family := token.Family.String()

	swapped, err := s.revocation.RotateHead(ctx,
		family,
		refreshtoken.Fingerprint(token),
		refreshtoken.Fingerprint(renewed),
		renewed.TTL(s.now()),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if !swapped {
		if revokeErr := s.revocation.Revoke(ctx, family); revokeErr != nil && s.logger != nil {
			s.logger.Error("failed to revoke family after replay",
				zap.String("family", family),
				zap.Error(revokeErr))
		}
		if s.logger != nil {
			s.logger.Warn("refresh token replay detected, family revoked",
				zap.String("family", family),
				zap.Int("user_id", token.UserID))
		}
		return nil, ErrTokenReplayed
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, ErrCredentialsInvalid) {
			_ = s.revocation.Revoke(ctx, family)
			return nil, ErrAuthorizationRevoked
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if !user.Authorized {
		_ = s.revocation.Revoke(ctx, family)
		if s.logger != nil {
			s.logger.Warn("rotation rejected for unauthorized account",
				zap.Int("user_id", user.ID),
				zap.String("family", family))
		}
		return nil, ErrAuthorizationRevoked
	}

	session, err := s.materialize(*user, renewed)
	if err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Debug("refresh token rotated",
			zap.Int("user_id", user.ID),
			zap.String("family", family))
	}

	return session, nil
}

// ReissueIdentity mints a fresh identity cookie from the current user
// record, so a profile update is reflected in the client's claims
// without waiting out the old token's expiry. The refresh chain is
// untouched.
func (s *Service) ReissueIdentity(ctx context.Context, userID int) (*http.Cookie, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrCredentialsInvalid) {
			return nil, ErrAuthorizationRevoked
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if !user.Authorized {
		return nil, ErrAuthorizationRevoked
	}

	token, err := s.identity.Issue(user.ID, user.Name, user.Login, user.Authorized)
	if err != nil {
		return nil, err
	}

	return s.identity.Cookie(token), nil
}

// Logout revokes the family and returns removal cookies for both token
// cookies.
func (s *Service) Logout(ctx context.Context, family uuid.UUID) ([]*http.Cookie, error) {
	if err := s.revocation.Revoke(ctx, family.String()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if s.logger != nil {
		s.logger.Info("user logged out",
			zap.String("family", family.String()))
	}

	return []*http.Cookie{
		s.identity.RemovalCookie(),
		s.refresh.RemovalCookie(),
	}, nil
}

func (s *Service) materialize(user User, token refreshtoken.Token) (*Session, error) {
	identityToken, err := s.identity.Issue(user.ID, user.Name, user.Login, user.Authorized)
	if err != nil {
		return nil, err
	}

	encoded, err := s.refresh.Encode(token)
	if err != nil {
		return nil, err
	}

	return &Session{
		User:          user,
		IdentityToken: identityToken,
		RefreshToken:  token,
		Identity:      s.identity.Cookie(identityToken),
		Refresh:       s.refresh.Cookie(token, encoded),
	}, nil
}

func (s *Service) failureDelay(ctx context.Context) {
	timer := time.NewTimer(s.config.Auth.FailureDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func mapDecodeError(err error) error {
	switch {
	case errors.Is(err, refreshtoken.ErrExpiredToken):
		return ErrTokenExpired
	case errors.Is(err, refreshtoken.ErrMalformedToken):
		return ErrTokenMalformed
	case errors.Is(err, refreshtoken.ErrInvalidSignature):
		return ErrTokenSignatureInvalid
	default:
		return ErrTokenMalformed
	}
}

// HTTPStatus maps the error taxonomy for collaborating handlers. Bad
// credentials answer 404 rather than 401 so the response does not
// confirm that a login exists; a replayed token answers like any
// ordinary rejected token.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrCredentialsInvalid):
		return http.StatusNotFound
	case errors.Is(err, ErrAuthorizationRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, ErrTokenMalformed),
		errors.Is(err, ErrTokenSignatureInvalid),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenReplayed):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
