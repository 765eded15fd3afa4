package httpapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nexuslabs-ai/context-engine-sub000/pkg/apierr"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/auth"
	"github.com/nexuslabs-ai/context-engine-sub000/pkg/storage"
)

const authContextKey = "componentkb.authContext"

// requireAuth validates the bearer token on every route it wraps and
// stashes the resulting auth.Context on the echo.Context for
// downstream handlers and requireScope to read.
func requireAuth(validator *auth.Validator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return fail(c, apierr.Unauthorized("missing bearer token"))
			}

			authCtx, err := validator.Validate(c.Request().Context(), token)
			if err != nil {
				return fail(c, apierr.Unauthorized("invalid token"))
			}

			c.Set(authContextKey, authCtx)
			return next(c)
		}
	}
}

// requireScope enforces that the caller's auth.Context carries scope s
// and that the orgId in the path matches the authenticated org (spec
// §4.12: "orgId in the path must match the orgId in the authenticated
// context").
func requireScope(scope storage.APIKeyScope) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authCtx, ok := c.Get(authContextKey).(auth.Context)
			if !ok {
				return fail(c, apierr.Unauthorized("not authenticated"))
			}
			if !authCtx.HasScope(scope) {
				return fail(c, apierr.Forbidden("missing required scope: "+string(scope)))
			}
			if orgID := c.Param("orgId"); orgID != "" && orgID != authCtx.OrgID {
				return fail(c, apierr.Forbidden("organization mismatch"))
			}
			return next(c)
		}
	}
}

func authFromContext(c echo.Context) auth.Context {
	authCtx, _ := c.Get(authContextKey).(auth.Context)
	return authCtx
}
