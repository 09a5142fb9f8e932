package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// ErrorHandler middleware handles panics and errors
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		msg := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			msg = s
		}
		logrus.Errorf("panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{Code: CodeInternal, Message: msg},
		})
	})
}

// CORS answers preflight requests and decorates the rest for the
// configured origins. No origins means no cross-origin access at all.
func CORS(origins []string) gin.HandlerFunc {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
	}
	if len(origins) == 0 {
		// rs/cors reads an empty list as "*"
		opts.AllowOriginFunc = func(string) bool { return false }
	}
	c := cors.New(opts)
	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		if ctx.Request.Method == http.MethodOptions && ctx.GetHeader("Access-Control-Request-Method") != "" {
			ctx.AbortWithStatus(http.StatusNoContent)
		}
	}
}

// OriginGuard rejects requests whose Origin header allow refuses, before
// any handler can act on the server's stored credentials.
func OriginGuard(allow func(*http.Request) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !allow(c.Request) {
			logrus.Warnf("rejected %s %s from origin %s", c.Request.Method, c.Request.URL.Path, c.GetHeader("Origin"))
			abort(c, http.StatusForbidden, CodeForbidden, "Origin not allowed")
			return
		}
		c.Next()
	}
}

// Logger logs one line per request at debug level, warn for 5xx.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		entry := logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  status,
			"latency": time.Since(start).Round(time.Millisecond),
		})
		if status >= http.StatusInternalServerError {
			entry.Warn("request failed")
		} else {
			entry.Debug("request")
		}
	}
}
