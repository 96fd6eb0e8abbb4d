package refreshtoken

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/parleychat/authkit/config"
	"github.com/parleychat/authkit/services/logging"
	"go.uber.org/zap"
)

const CookieName = "refresh_token"

var (
	ErrExpiredToken     = errors.New("refresh token has expired")
	ErrMalformedToken   = errors.New("malformed refresh token")
	ErrInvalidSignature = errors.New("invalid refresh token signature")
	ErrInvalidToken     = errors.New("invalid refresh token")
)

type tokenClaims struct {
	UserID      int    `json:"user_id"`
	SessionOnly bool   `json:"session_only"`
	Family      string `json:"family"`
	jwt.RegisteredClaims
}

type Service struct {
	config *config.Config
	logger *logging.Service
	now    func() time.Time
}

func NewService(cfg *config.Config, logger *logging.Service) *Service {
	if logger != nil {
		logger.Info("initializing refresh token service",
			zap.Duration("refresh_expiry", cfg.Token.RefreshExpiry))
	}

	return &Service{
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Create issues the first token of a brand new family. Only a fresh
// login goes through here; every later link of the chain comes from
// Renew.
func (s *Service) Create(userID int, lifetime Lifetime) Token {
	token := Token{
		ID:        uuid.New(),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.config.Token.RefreshExpiry),
		Lifetime:  lifetime,
		Family:    uuid.New(),
	}

	if s.logger != nil {
		s.logger.Debug("refresh token created",
			zap.Int("user_id", userID),
			zap.String("family", token.Family.String()),
			zap.Time("expires_at", token.ExpiresAt))
	}

	return token
}

// Renew is the only operation that keeps a family id stable. User id and
// lifetime carry over; the expiry advances and a fresh id is assigned so
// the renewed token never shares a fingerprint with the one it replaces.
func (s *Service) Renew(t Token) Token {
	renewed := Token{
		ID:        uuid.New(),
		UserID:    t.UserID,
		ExpiresAt: s.now().Add(s.config.Token.RefreshExpiry),
		Lifetime:  t.Lifetime,
		Family:    t.Family,
	}

	if s.logger != nil {
		s.logger.Debug("refresh token renewed",
			zap.Int("user_id", renewed.UserID),
			zap.String("family", renewed.Family.String()),
			zap.Time("expires_at", renewed.ExpiresAt))
	}

	return renewed
}

func (s *Service) Encode(t Token) (string, error) {
	claims := tokenClaims{
		UserID:      t.UserID,
		SessionOnly: !t.Lifetime.IsPersistent(),
		Family:      t.Family.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        t.ID.String(),
			Issuer:    s.config.Token.Issuer,
			ExpiresAt: jwt.NewNumericDate(t.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(s.now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Token.Secret))
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to sign refresh token", zap.Error(err))
		}
		return "", fmt.Errorf("failed to encode refresh token: %w", err)
	}

	return signed, nil
}

func (s *Service) Decode(tokenString string) (Token, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected algorithm: expected HS256, got %s", token.Method.Alg())
		}
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid algorithm family: %v", token.Header["alg"])
		}
		return []byte(s.config.Token.Secret), nil
	}, jwt.WithExpirationRequired())

	if err != nil {
		if s.logger != nil {
			s.logger.Warn("refresh token decode failed", zap.Error(err))
		}

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Token{}, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Token{}, ErrMalformedToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return Token{}, ErrInvalidSignature
		default:
			return Token{}, ErrInvalidToken
		}
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Token{}, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return Token{}, ErrMalformedToken
	}

	family, err := uuid.Parse(claims.Family)
	if err != nil {
		return Token{}, ErrMalformedToken
	}

	lifetime := Persistent()
	if claims.SessionOnly {
		lifetime = SessionScoped()
	}

	return Token{
		ID:        id,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
		Lifetime:  lifetime,
		Family:    family,
	}, nil
}

// Cookie materializes the encoded token. Session-scoped tokens become
// browser-session cookies; persistent tokens carry the token's own
// expiry. The refresh cookie is always http-only, unlike the identity
// cookie, because no client code ever needs to read it.
func (s *Service) Cookie(t Token, encoded string) *http.Cookie {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
	}

	if t.Lifetime.IsPersistent() {
		cookie.Expires = t.ExpiresAt
	}

	return cookie
}

func (s *Service) RemovalCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		MaxAge:   -1,
	}
}
