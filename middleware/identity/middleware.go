package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/parleychat/authkit/services/identity"
)

const (
	UserIDKey = "_identity_user_id"
	ClaimsKey = "_identity_claims"
)

// RequireIdentity guards a route behind a valid identity cookie. The
// cookie is stateless: a signature and expiry check alone admits the
// request, with no store lookup.
func RequireIdentity(identityService *identity.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(identity.CookieName)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "You aren't logged in.")
			}

			claims, err := identityService.Verify(cookie.Value)
			if err != nil {
				switch err {
				case identity.ErrExpiredToken:
					return echo.NewHTTPError(http.StatusUnauthorized, "Identity token has expired")
				case identity.ErrMalformedToken:
					return echo.NewHTTPError(http.StatusUnauthorized, "Malformed identity token")
				case identity.ErrInvalidSignature:
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid identity token signature")
				default:
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid identity token")
				}
			}

			if !claims.Authorized {
				return echo.NewHTTPError(http.StatusForbidden, "This account's access has been revoked")
			}

			c.Set(UserIDKey, claims.UserID)
			c.Set(ClaimsKey, claims)

			return next(c)
		}
	}
}

func GetUserID(c echo.Context) int {
	if userID, ok := c.Get(UserIDKey).(int); ok {
		return userID
	}
	return 0
}

func GetClaims(c echo.Context) *identity.Claims {
	if claims, ok := c.Get(ClaimsKey).(*identity.Claims); ok {
		return claims
	}
	return nil
}
