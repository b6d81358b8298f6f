package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/vendorseo/internal/telemetry"
)

// Metrics records request counts and latency per route template.
func Metrics(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
