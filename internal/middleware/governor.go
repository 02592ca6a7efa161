package middleware

import (
	"safc/internal/apperr"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Governor 全局令牌桶，超出时返回 429
func Governor(perSecond float64, burst int) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			err := apperr.ErrRateLimited
			c.AbortWithStatusJSON(apperr.HTTPStatus(err), apperr.Response(err))
			return
		}
		c.Next()
	}
}
