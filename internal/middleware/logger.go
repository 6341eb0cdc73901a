package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger writes one line per request with the id, method, path,
// status and latency.
func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = log.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		requestID, _ := c.Get(RequestIDKey)
		logger.Printf("request_id=%v method=%s path=%s status=%d latency=%s",
			requestID, c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
