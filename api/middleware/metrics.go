package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scout/metrics"
)

// Metrics counts requests per matched route and status code. Unmatched
// paths share the "unmatched" label to keep cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
