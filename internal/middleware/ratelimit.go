package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"trailbook/api/internal/apperror"
	"trailbook/api/internal/config"
)

// RateLimit is a fixed-window counter per client IP backed by redis. When
// redis is unreachable the limiter fails open rather than taking the API down.
func RateLimit(client *redis.Client, cfg config.RateLimitConfig, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())
		ctx := c.Request.Context()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			log.Warn().Err(err).Msg("rate limiter unavailable, failing open")
			c.Next()
			return
		}
		if count == 1 {
			if err := client.Expire(ctx, key, cfg.Window).Err(); err != nil {
				log.Warn().Err(err).Msg("rate limiter expire failed")
			}
		}

		if count > int64(cfg.Max) {
			_ = c.Error(apperror.TooManyRequests(
				"Too many requests from this IP, please try again in an hour"))
			c.Abort()
			return
		}

		c.Next()
	}
}
