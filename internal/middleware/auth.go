package middleware

import (
	"net/http"

	"safc/internal/apperr"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AdminTokenHeader 管理接口的凭证头
const AdminTokenHeader = "X-Admin-Token"

// AdminRequired 校验 X-Admin-Token 与配置中的 bcrypt 哈希。
// 未配置哈希时接口整体关闭。
func AdminRequired(tokenHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenHash == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, apperr.Body{Error: apperr.Detail{Message: "not found", Code: "not_found"}})
			return
		}

		token := c.GetHeader(AdminTokenHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperr.Body{Error: apperr.Detail{Message: "admin token required", Code: "unauthorized"}})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, apperr.Body{Error: apperr.Detail{Message: "invalid admin token", Code: "forbidden"}})
			return
		}

		c.Next()
	}
}
