package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/procurement-flow/internal/domain/entity"
	domainwf "github.com/garyjia/procurement-flow/internal/domain/workflow"
	"github.com/garyjia/procurement-flow/pkg/utils"
)

// Identity is resolved upstream (gateway or SSO) and forwarded in these headers
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

const (
	actorIDKey   = "actor_id"
	actorRoleKey = "actor_role"
)

// actorMiddleware rejects calls without a well-formed actor identity
func actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderActorID)
		if err := utils.ValidateID(id); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing or invalid " + HeaderActorID,
				Code:    "unauthenticated",
			})
			return
		}

		role := domainwf.Role(c.GetHeader(HeaderActorRole))
		if !role.IsValid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing or invalid " + HeaderActorRole,
				Code:    "unauthenticated",
			})
			return
		}

		c.Set(actorIDKey, id)
		c.Set(actorRoleKey, string(role))
		c.Next()
	}
}

// actorFrom returns the actor stored by actorMiddleware
func actorFrom(c *gin.Context) entity.Actor {
	return entity.Actor{
		ID:   c.GetString(actorIDKey),
		Role: domainwf.Role(c.GetString(actorRoleKey)),
	}
}
