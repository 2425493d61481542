package middleware

import (
	"strings"

	"github.com/dimitrije/capacity-planner/internal/services"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	ActorIDKey    = "actor_id"
	ActorEmailKey = "actor_email"

	// TokenQueryParam carries the token for clients that cannot set headers,
	// such as a browser EventSource.
	TokenQueryParam = "access_token"
)

// Auth resolves the caller from a bearer token. It only establishes who is
// acting; it makes no authorization decisions.
func Auth(jwtService *services.JWTService) drift.HandlerFunc {
	return func(c *drift.Context) {
		token, problem := bearerToken(c)
		if problem != "" {
			c.Unauthorized(problem)
			return
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			c.Unauthorized("invalid or expired token")
			return
		}

		c.Set(ActorIDKey, claims.UserID)
		c.Set(ActorEmailKey, claims.Email)

		c.Next()
	}
}

func bearerToken(c *drift.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.QueryParam(TokenQueryParam); token != "" {
			return token, ""
		}
		return "", "missing authorization header"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", "invalid authorization header format"
	}
	return parts[1], ""
}

func GetActorID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(ActorIDKey); ok {
		if uid, ok := id.(uuid.UUID); ok {
			return uid
		}
	}
	return uuid.Nil
}

// Actor is the identifier written to createdBy and changedBy.
func Actor(c *drift.Context) string {
	if id := GetActorID(c); id != uuid.Nil {
		return id.String()
	}
	return ""
}

func GetActorEmail(c *drift.Context) string {
	if email, ok := c.Get(ActorEmailKey); ok {
		if e, ok := email.(string); ok {
			return e
		}
	}
	return ""
}
