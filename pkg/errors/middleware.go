package errors

import (
	"fmt"
	"html"
	"net/http"
	"runtime/debug"

	"guestbook/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const errorPage = `<!DOCTYPE html>
<html>
<head><title>%[1]d %[2]s</title></head>
<body>
<h1>%[2]s</h1>
<p>%[3]s</p>
</body>
</html>
`

// ErrorHandler returns a middleware that turns errors pushed with c.Error
// into a generic error response
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := FromError(c.Errors.Last().Err)

		log := logger.FromContext(c)
		log.Error("Request error",
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"status_code", appErr.StatusCode,
			"error_code", appErr.Code,
		)

		respond(c, appErr.StatusCode, appErr.Code, appErr.Message)
	}
}

// RecoveryWithLogger returns a middleware that recovers from any panics
// and logs them with the request-scoped logger
func RecoveryWithLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(c).Error("Panic recovered",
					"error", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				respond(c, http.StatusInternalServerError, "SERVER_ERROR",
					"The server encountered an unexpected error")
			}
		}()

		c.Next()
	}
}

func respond(c *gin.Context, status int, code, message string) {
	switch c.NegotiateFormat(binding.MIMEHTML, binding.MIMEJSON) {
	case binding.MIMEJSON:
		c.AbortWithStatusJSON(status, gin.H{
			"error": gin.H{
				"code":    code,
				"message": message,
			},
		})
	default:
		page := fmt.Sprintf(errorPage, status, http.StatusText(status), html.EscapeString(message))
		c.Data(status, "text/html; charset=utf-8", []byte(page))
		c.Abort()
	}
}
