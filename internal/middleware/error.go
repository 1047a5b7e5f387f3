package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/careaxis/clinic-api/pkg/logger"
)

// ErrorLogger logs errors recorded on the gin context. Handlers attach
// internal errors via c.Error; the client-facing response was already
// written by the handler with a generic message.
func ErrorLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, e := range c.Errors {
			log.Zerolog().Error().
				Err(e.Err).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Str("client_ip", c.ClientIP()).
				Msg("request error")
		}
	}
}
