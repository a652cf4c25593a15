package middleware // middleware contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers

	"github.com/jorisdh/appdepot/internal/utils"
)

// Denylist answers whether a token has been revoked. The token repository
// implements it over the blacklist_tokens table; tests substitute fakes.
type Denylist interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's id and username claims into the request context under
// "user_id" (uint64) and "username". A token that passes signature and expiry
// checks is still rejected when it appears in the revocation ledger, so
// disabling or deleting a user cuts off their outstanding sessions
// immediately rather than at natural expiry.
//
// Status mapping: missing/malformed header and expired or revoked tokens are
// 401; a token that fails signature verification is 403.
func JWTAuth(secret string, denylist Denylist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			id, username, err := utils.TokenIdentity(secret, raw)
			if err != nil {
				// jwt/v5 reports expiry as a distinct error; everything else
				// (bad signature, malformed token, wrong algorithm) is 403.
				if errors.Is(err, jwt.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
				}
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid token"})
			}

			revoked, err := denylist.IsBlacklisted(c.Request().Context(), raw)
			if err != nil {
				c.Logger().Errorf("denylist lookup failed: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			if revoked {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token revoked"})
			}

			c.Set("user_id", id)
			c.Set("username", username)
			return next(c)
		}
	}
}
