package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"safc/internal/apperr"
	"safc/internal/services"

	"github.com/gin-gonic/gin"
)

// ClientIP 依次取 X-Real-IP、X-Forwarded-For 第一项、连接地址
func ClientIP(r *http.Request) (string, bool) {
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip, true
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip, true
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	host = strings.TrimSpace(host)
	return host, host != ""
}

// PostQuota 每个客户端每日 POST 次数上限；超出时不进入处理函数
func PostQuota(q *services.QuotaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ip, ok := ClientIP(c.Request)
		if !ok {
			err := apperr.Validation("client", "unable to identify client ip")
			c.AbortWithStatusJSON(apperr.HTTPStatus(err), apperr.Response(err))
			return
		}
		if !q.Allow(ip) {
			c.Header("X-RateLimit-Limit", strconv.Itoa(q.Limit()))
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apperr.Body{Error: apperr.Detail{
				Message: "RateLimitExceeded",
				Code:    apperr.Code(apperr.ErrRateLimited),
			}})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(q.Remaining(ip)))
		c.Next()
	}
}
