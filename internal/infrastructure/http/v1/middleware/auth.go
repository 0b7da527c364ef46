package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/midasconsultingnet/successfuel-api-sub001/internal/core/apperror"
	appctx "github.com/midasconsultingnet/successfuel-api-sub001/internal/core/context"
)

// TokenValidator validates an access token into an actor context.
type TokenValidator interface {
	ValidateToken(tokenString string) (*appctx.ActorContext, error)
}

// Auth middleware validates JWT tokens and populates the actor context.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		actor, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := appctx.WithActor(c.Request.Context(), actor)
		c.Request = c.Request.WithContext(ctx)

		c.Set("actor_id", actor.ActorID)
		c.Set("roles", actor.Roles)

		c.Next()
	}
}

// RequireRole middleware checks that the actor has one of the roles.
// Admins pass every role check.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := appctx.GetActor(c.Request.Context())
		if actor == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		if actor.IsAdmin {
			c.Next()
			return
		}

		for _, required := range roles {
			for _, role := range actor.Roles {
				if role == required {
					c.Next()
					return
				}
			}
		}

		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_roles", roles),
		)
		c.Abort()
	}
}

// RequireStationAccess checks that the actor may operate on the station
// named by the stationId path or query parameter. Requests without a
// station parameter pass through; service-level checks still apply.
func RequireStationAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		stationID := c.Param("stationId")
		if stationID == "" {
			stationID = c.Query("stationId")
		}
		if stationID == "" {
			c.Next()
			return
		}

		if !appctx.HasStationAccess(c.Request.Context(), stationID) {
			_ = c.Error(
				apperror.NewForbidden("no access to station").
					WithDetail("station_id", stationID),
			)
			c.Abort()
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
