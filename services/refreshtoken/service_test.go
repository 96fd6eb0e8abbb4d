package refreshtoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/parleychat/authkit/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestConfig() *config.Config {
	return &config.Config{
		Token: config.TokenConfig{
			Secret:        "test-secret-key-for-refresh-tokens",
			Issuer:        "authkit-test",
			RefreshExpiry: 168 * time.Hour,
		},
	}
}

func TestService_Create(t *testing.T) {
	service := NewService(getTestConfig(), nil)

	t.Run("assigns fresh family and expiry", func(t *testing.T) {
		token := service.Create(42, Persistent())

		assert.Equal(t, 42, token.UserID)
		assert.NotEqual(t, uuid.Nil, token.Family)
		assert.True(t, token.ExpiresAt.After(time.Now()))
		assert.True(t, token.Lifetime.IsPersistent())
	})

	t.Run("distinct families per login", func(t *testing.T) {
		first := service.Create(42, SessionScoped())
		second := service.Create(42, SessionScoped())

		assert.NotEqual(t, first.Family, second.Family)
	})
}

func TestService_Renew(t *testing.T) {
	service := NewService(getTestConfig(), nil)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return base }

	original := service.Create(7, SessionScoped())

	service.now = func() time.Time { return base.Add(30 * time.Minute) }
	renewed := service.Renew(original)

	assert.Equal(t, original.UserID, renewed.UserID)
	assert.Equal(t, original.Family, renewed.Family)
	assert.Equal(t, original.Lifetime, renewed.Lifetime)
	assert.NotEqual(t, original.ID, renewed.ID)
	assert.True(t, renewed.ExpiresAt.After(original.ExpiresAt))
}

func TestService_EncodeDecode(t *testing.T) {
	service := NewService(getTestConfig(), nil)

	t.Run("round trip", func(t *testing.T) {
		token := service.Create(13, Persistent())

		encoded, err := service.Encode(token)
		require.NoError(t, err)
		assert.NotEmpty(t, encoded)

		decoded, err := service.Decode(encoded)
		require.NoError(t, err)

		assert.Equal(t, token.ID, decoded.ID)
		assert.Equal(t, token.UserID, decoded.UserID)
		assert.Equal(t, token.Family, decoded.Family)
		assert.Equal(t, token.Lifetime, decoded.Lifetime)
		assert.Equal(t, token.ExpiresAt.Unix(), decoded.ExpiresAt.Unix())
	})

	t.Run("session scoped survives round trip", func(t *testing.T) {
		token := service.Create(13, SessionScoped())

		encoded, err := service.Encode(token)
		require.NoError(t, err)

		decoded, err := service.Decode(encoded)
		require.NoError(t, err)
		assert.False(t, decoded.Lifetime.IsPersistent())
	})

	t.Run("expired token", func(t *testing.T) {
		service.now = func() time.Time { return time.Now().Add(-200 * time.Hour) }
		token := service.Create(13, Persistent())
		encoded, err := service.Encode(token)
		require.NoError(t, err)
		service.now = time.Now

		_, err = service.Decode(encoded)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := service.Decode("not-a-jwt")
		assert.ErrorIs(t, err, ErrMalformedToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := service.Create(13, Persistent())
		encoded, err := service.Encode(token)
		require.NoError(t, err)

		otherCfg := getTestConfig()
		otherCfg.Token.Secret = "a-different-secret"
		other := NewService(otherCfg, nil)

		_, err = other.Decode(encoded)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}

func TestFingerprint(t *testing.T) {
	service := NewService(getTestConfig(), nil)

	t.Run("deterministic", func(t *testing.T) {
		token := service.Create(99, Persistent())
		assert.Equal(t, Fingerprint(token), Fingerprint(token))
	})

	t.Run("copies fingerprint identically", func(t *testing.T) {
		token := service.Create(99, Persistent())
		clone := Token{
			ID:        token.ID,
			UserID:    token.UserID,
			ExpiresAt: token.ExpiresAt,
			Lifetime:  token.Lifetime,
			Family:    token.Family,
		}
		assert.Equal(t, Fingerprint(token), Fingerprint(clone))
	})

	t.Run("any field change alters it", func(t *testing.T) {
		token := service.Create(99, Persistent())

		altered := token
		altered.ID = uuid.New()
		assert.NotEqual(t, Fingerprint(token), Fingerprint(altered))

		altered = token
		altered.UserID = 100
		assert.NotEqual(t, Fingerprint(token), Fingerprint(altered))

		altered = token
		altered.ExpiresAt = token.ExpiresAt.Add(time.Second)
		assert.NotEqual(t, Fingerprint(token), Fingerprint(altered))

		altered = token
		altered.Lifetime = SessionScoped()
		assert.NotEqual(t, Fingerprint(token), Fingerprint(altered))

		altered = token
		altered.Family = uuid.New()
		assert.NotEqual(t, Fingerprint(token), Fingerprint(altered))
	})

	t.Run("renewal changes fingerprint but not family", func(t *testing.T) {
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		service.now = func() time.Time { return base }
		token := service.Create(99, Persistent())

		service.now = func() time.Time { return base.Add(time.Hour) }
		renewed := service.Renew(token)
		service.now = time.Now

		assert.NotEqual(t, Fingerprint(token), Fingerprint(renewed))
		assert.Equal(t, token.Family, renewed.Family)
	})

	t.Run("renewal within the same second changes fingerprint", func(t *testing.T) {
		// JWT timestamps truncate to whole seconds, so an unchanged
		// clock must not let a renewed token collide with its
		// predecessor in the revocation store.
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		service.now = func() time.Time { return base }
		defer func() { service.now = time.Now }()

		token := service.Create(99, Persistent())
		renewed := service.Renew(token)

		assert.Equal(t, token.ExpiresAt, renewed.ExpiresAt)
		assert.NotEqual(t, Fingerprint(token), Fingerprint(renewed))
	})
}

func TestService_Cookie(t *testing.T) {
	service := NewService(getTestConfig(), nil)

	t.Run("persistent cookie copies token expiry", func(t *testing.T) {
		token := service.Create(1, Persistent())
		cookie := service.Cookie(token, "encoded-value")

		assert.Equal(t, CookieName, cookie.Name)
		assert.Equal(t, "encoded-value", cookie.Value)
		assert.Equal(t, "/", cookie.Path)
		assert.True(t, cookie.Secure)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, token.ExpiresAt, cookie.Expires)
	})

	t.Run("session cookie has no expiry", func(t *testing.T) {
		token := service.Create(1, SessionScoped())
		cookie := service.Cookie(token, "encoded-value")

		assert.True(t, cookie.Expires.IsZero())
		assert.True(t, cookie.HttpOnly)
	})

	t.Run("removal cookie", func(t *testing.T) {
		cookie := service.RemovalCookie()

		assert.Equal(t, CookieName, cookie.Name)
		assert.Empty(t, cookie.Value)
		assert.Equal(t, -1, cookie.MaxAge)
	})
}

func TestToken_Expiry(t *testing.T) {
	service := NewService(getTestConfig(), nil)
	token := service.Create(1, Persistent())

	assert.False(t, token.Expired(time.Now()))
	assert.True(t, token.Expired(token.ExpiresAt.Add(time.Second)))
	assert.InDelta(t, (168 * time.Hour).Seconds(), token.TTL(time.Now()).Seconds(), 5)
}
