package middleware

import (
	"context"
	"strings"

	"gridflow/internal/auth"
	"gridflow/internal/domain"
	"gridflow/internal/errors"

	"github.com/gin-gonic/gin"
)

const ActorKey = "actor"

type ActorProvider interface {
	GetActor(ctx context.Context, id uint64) (*domain.Actor, error)
}

type Auth struct {
	Actors ActorProvider
	Secret []byte
}

// AuthMiddleWare resolves the bearer token to an active actor and stores it
// on the context under ActorKey.
func (m *Auth) AuthMiddleWare() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		userID, err := auth.VerifyJWT(m.Secret, token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		actor, err := m.Actors.GetActor(ctx.Request.Context(), userID)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid User ID!", err))
			ctx.Abort()
			return
		}
		if !actor.IsActive {
			ctx.Error(errors.Unauthorized("User is deactivated!", nil))
			ctx.Abort()
			return
		}

		ctx.Set("user_id", actor.ID)
		ctx.Set(ActorKey, *actor)
		ctx.Next()
	}
}

// CurrentActor returns the actor set by AuthMiddleWare.
func CurrentActor(c *gin.Context) (domain.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return domain.Actor{}, false
	}
	a, ok := v.(domain.Actor)
	return a, ok
}
