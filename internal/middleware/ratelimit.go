package middleware

import (
	"fmt"
	"math"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/fitness-score-api/pkg/errors"
	"github.com/noah-isme/fitness-score-api/pkg/response"
)

// RateLimit throttles each client IP to perMinute requests. Zero disables it.
func RateLimit(perMinute uint) gin.HandlerFunc {
	if perMinute == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: perMinute,
	})
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: rateLimited,
		KeyFunc:      func(c *gin.Context) string { return c.ClientIP() },
	})
}

func rateLimited(c *gin.Context, info ratelimit.Info) {
	wait := int(math.Ceil(time.Until(info.ResetTime).Seconds()))
	if wait < 1 {
		wait = 1
	}
	c.Header("Retry-After", fmt.Sprintf("%d", wait))
	response.Error(c, appErrors.ErrRateLimited)
	c.Abort()
}
