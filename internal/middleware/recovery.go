package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/careaxis/clinic-api/pkg/httputil"
	"github.com/careaxis/clinic-api/pkg/logger"
)

// Recovery converts panics into 500 responses with a stack trace in the log.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Zerolog().Error().
					Interface("panic", r).
					Str("stack", string(debug.Stack())).
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("request_id", c.GetString(ContextRequestID)).
					Msg("request panic recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError, httputil.Response{
					Status:  "error",
					Message: "internal server error",
				})
			}
		}()
		c.Next()
	}
}
