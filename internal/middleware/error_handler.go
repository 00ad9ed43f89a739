package middleware

import (
	"errors"

	apiError "gridflow/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func ErrorHandler(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next() // Execute the handler first

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var apiErr *apiError.APIError
		if !errors.As(err, &apiErr) {
			// a raw error nobody wrapped
			apiErr = apiError.Internal(err)
		}

		if apiErr.Status >= 500 {
			log.Error().Err(apiErr.Internal).Str("path", c.FullPath()).Msg(apiErr.Message)
		} else {
			log.Info().Err(apiErr.Internal).Str("path", c.FullPath()).Int("status", apiErr.Status).Msg(apiErr.Message)
		}

		c.AbortWithStatusJSON(apiErr.Status, apiErr)
	}
}
