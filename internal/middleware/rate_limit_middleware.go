package middleware

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/botswanaservices/directory-backend/internal/services"
	"github.com/botswanaservices/directory-backend/internal/utils"
)

// RateLimit bounds mutation frequency per caller. Keys are ip:route so one
// noisy client cannot exhaust another route's budget.
func RateLimit(limiter *services.RateLimitService, auditSvc *services.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := utils.GetRealIP(c)
		key := ip + ":" + c.FullPath()

		if err := limiter.Check(key); err != nil {
			if rlErr, ok := err.(*services.RateLimitError); ok {
				if auditSvc != nil {
					if logErr := auditSvc.LogRateLimitViolation(key, c.FullPath(), ip, utils.GetUserAgent(c)); logErr != nil {
						log.Printf("WARN: failed to log rate limit violation: %v", logErr)
					}
				}
				c.Header("Retry-After", strconv.Itoa(rlErr.RetryAfterSeconds))
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error":   "rate_limited",
					"message": rlErr.Error(),
				})
				c.Abort()
				return
			}

			log.Printf("ERROR: rate limit check failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "internal_error",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
