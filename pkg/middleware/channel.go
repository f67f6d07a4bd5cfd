package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

type channelKey struct{}

var ChannelContextKey = channelKey{}

// deriveChannelFromAPIKey guesses the calling channel from the API key pattern.
func deriveChannelFromAPIKey(key string) string {
	switch {
	case strings.HasPrefix(key, "store_"):
		return "storefront"
	case strings.HasPrefix(key, "admin_"):
		return "admin"
	case strings.HasPrefix(key, "cms_"):
		return "cms"
	default:
		return "api"
	}
}

// Channel tags the request context with the calling channel based on X-API-Key.
func Channel() gin.HandlerFunc {
	return func(c *gin.Context) {
		channel := deriveChannelFromAPIKey(c.GetHeader("X-API-Key"))
		ctx := context.WithValue(c.Request.Context(), ChannelContextKey, channel)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetChannel returns the current channel string (default "api").
func GetChannel(ctx context.Context) string {
	ch, ok := ctx.Value(ChannelContextKey).(string)
	if !ok {
		return "api"
	}
	return ch
}
