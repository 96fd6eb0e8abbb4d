package identity

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/parleychat/authkit/config"
	"github.com/parleychat/authkit/services/logging"
	"go.uber.org/zap"
)

const CookieName = "jwt"

// The identity cookie is readable by client code, so it never expires
// with the browser session regardless of how the refresh token was
// scoped.
const permanentCookieLifetime = 20 * 365 * 24 * time.Hour

var (
	ErrExpiredToken     = errors.New("identity token has expired")
	ErrMalformedToken   = errors.New("malformed identity token")
	ErrInvalidSignature = errors.New("invalid identity token signature")
	ErrInvalidToken     = errors.New("invalid identity token")
)

// Claims are stateless: validity is proven by signature and expiry alone.
// The Authorized flag is copied at issuance, so an account disabled after
// issuance keeps a valid-looking token until expiry. Short access expiry
// bounds that staleness window.
type Claims struct {
	UserID     int    `json:"user_id"`
	Name       string `json:"name"`
	Login      string `json:"login"`
	Authorized bool   `json:"authorized"`
	jwt.RegisteredClaims
}

type Service struct {
	config *config.Config
	logger *logging.Service
	now    func() time.Time
}

func NewService(cfg *config.Config, logger *logging.Service) *Service {
	if logger != nil {
		logger.Info("initializing identity token service",
			zap.Duration("access_expiry", cfg.Token.AccessExpiry),
			zap.String("issuer", cfg.Token.Issuer))
	}

	return &Service{
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) Issue(userID int, name, login string, authorized bool) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:     userID,
		Name:       name,
		Login:      login,
		Authorized: authorized,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Token.Issuer,
			Subject:   fmt.Sprintf("%d", userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Token.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Token.Secret))
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to sign identity token", zap.Error(err))
		}
		return "", fmt.Errorf("failed to issue identity token: %w", err)
	}

	return signed, nil
}

func (s *Service) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected algorithm: expected HS256, got %s", token.Method.Alg())
		}
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid algorithm family: %v", token.Header["alg"])
		}
		return []byte(s.config.Token.Secret), nil
	})

	if err != nil {
		if s.logger != nil {
			s.logger.Warn("identity token verification failed", zap.Error(err))
		}

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	if claims, ok := parsed.Claims.(*Claims); ok && parsed.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// Cookie materializes the signed identity string. It is deliberately not
// http-only: client code reads the claims to render identity without a
// server round trip, while refresh stays server-validated.
func (s *Service) Cookie(encoded string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    encoded,
		Path:     "/",
		Secure:   true,
		HttpOnly: false,
		Expires:  s.now().Add(permanentCookieLifetime),
	}
}

func (s *Service) RemovalCookie() *http.Cookie {
	return &http.Cookie{
		Name:   CookieName,
		Value:  "",
		Path:   "/",
		Secure: true,
		MaxAge: -1,
	}
}
