package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kuberan/loansync/internal/logger"
)

const (
	feedKeyHeader    = "X-API-Key"
	feedSourceHeader = "X-Feed-Source"
	feedSourceKey    = "feedSource"
)

// RateFeedAuth guards the endpoints rate feeds push quotes to. Requests must
// carry apiKey in X-API-Key. An empty apiKey switches the endpoints off.
// The optional X-Feed-Source header names the pushing feed in the logs.
func RateFeedAuth(apiKey string) gin.HandlerFunc {
	log := logger.Named("rate_feed")

	return func(c *gin.Context) {
		source := c.GetHeader(feedSourceHeader)
		if source == "" {
			source = "unknown"
		}

		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error": gin.H{"code": "RATE_FEED_DISABLED", "message": "Rate feed endpoints are disabled"},
			})
			return
		}

		given := c.GetHeader(feedKeyHeader)
		if subtle.ConstantTimeCompare([]byte(given), []byte(apiKey)) != 1 {
			log.Warnw("rejected rate feed request",
				"source", source,
				"client_ip", c.ClientIP(),
				"key_present", given != "",
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": "INVALID_API_KEY", "message": "Invalid or missing API key"},
			})
			return
		}

		c.Set(feedSourceKey, source)
		c.Next()
	}
}
