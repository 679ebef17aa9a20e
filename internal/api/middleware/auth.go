package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/mmp/docrepo/internal/api/handler"
	"github.com/mmp/docrepo/internal/core/domain"
	"github.com/mmp/docrepo/internal/core/ports"
)

// Auth validates the bearer token, rejects revoked tokens and injects the
// actor id and token claims into the context. It does not make access
// decisions; those belong to the repository.
func Auth(jwtSecret, issuer string, revocations ports.TokenRevocations) echo.MiddlewareFunc {
	return authenticate(jwtSecret, issuer, revocations, true)
}

// OptionalAuth behaves like Auth when a token is presented and lets the
// request through anonymously otherwise. An invalid token is still rejected.
func OptionalAuth(jwtSecret, issuer string, revocations ports.TokenRevocations) echo.MiddlewareFunc {
	return authenticate(jwtSecret, issuer, revocations, false)
}

func authenticate(jwtSecret, issuer string, revocations ports.TokenRevocations, required bool) echo.MiddlewareFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				if required {
					return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
				}
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := &jwt.RegisteredClaims{}
			tkn, err := parser.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid || claims.Subject == "" || claims.ID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			revoked, err := revocations.IsRevoked(c.Request().Context(), claims.ID)
			if err != nil {
				return fmt.Errorf("%w: %w", domain.ErrStorage, err)
			}
			if revoked {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
			}

			c.Set(handler.CtxActorID, claims.Subject)
			c.Set(handler.CtxTokenID, claims.ID)
			c.Set(handler.CtxTokenExp, claims.ExpiresAt.Time)

			return next(c)
		}
	}
}
