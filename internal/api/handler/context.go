package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Context keys set by the auth middleware.
const (
	CtxActorID  = "actor_id"
	CtxTokenID  = "token_id"
	CtxTokenExp = "token_exp"
)

// actorID returns the authenticated user id, or "" for an anonymous request.
func actorID(c echo.Context) string {
	id, _ := c.Get(CtxActorID).(string)
	return id
}

// requireActor fails fast when the auth middleware did not run or did not
// identify a user.
func requireActor(c echo.Context) (string, error) {
	id := actorID(c)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

// tokenClaims returns the id and expiry of the presented token.
func tokenClaims(c echo.Context) (string, time.Time, error) {
	id, _ := c.Get(CtxTokenID).(string)
	exp, _ := c.Get(CtxTokenExp).(time.Time)
	if id == "" {
		return "", time.Time{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, exp, nil
}
