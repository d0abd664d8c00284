package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/examportal-backend/internal/model"
	"github.com/stemsi/examportal-backend/internal/response"
)

const (
	// ContextKeyActor is the Gin context key for the resolved caller.
	ContextKeyActor = "actor"
	// ContextKeyToken is the Gin context key for the raw bearer credential.
	ContextKeyToken = "token"
)

// ActorResolver classifies a bearer credential. It must not fail.
type ActorResolver interface {
	Resolve(ctx context.Context, token string) model.Actor
}

// Authenticate resolves the caller on every request and stores the Actor.
// It never rejects; RequireRole decides access.
func Authenticate(resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		c.Set(ContextKeyToken, token)
		c.Set(ContextKeyActor, resolver.Resolve(c.Request.Context(), token))
		c.Next()
	}
}

// RequireRole admits only the listed kinds of actor.
func RequireRole(kinds ...model.ActorKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)

		switch actor.Kind {
		case model.ActorUnauthenticated, "":
			if GetToken(c) == "" {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			} else {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			}
			return
		case model.ActorUnrecognized:
			response.AbortFail(c, http.StatusForbidden, response.ErrRoleUnrecognized)
			return
		}

		for _, k := range kinds {
			if actor.Kind == k {
				c.Next()
				return
			}
		}
		response.AbortFail(c, http.StatusForbidden, response.ErrForbidden)
	}
}

// GetActor retrieves the caller from the Gin context.
func GetActor(c *gin.Context) model.Actor {
	val, exists := c.Get(ContextKeyActor)
	if !exists {
		return model.Actor{Kind: model.ActorUnauthenticated}
	}
	actor, ok := val.(model.Actor)
	if !ok {
		return model.Actor{Kind: model.ActorUnauthenticated}
	}
	return actor
}

// GetToken retrieves the raw bearer credential from the Gin context.
func GetToken(c *gin.Context) string {
	return c.GetString(ContextKeyToken)
}

// BearerToken reads the Authorization header, falling back to ?token= for
// EventSource and WebSocket clients, which cannot set headers.
func BearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Query("token")
}
