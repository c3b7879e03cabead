package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"collab_web/internal/auth"
)

const identityKey = "identity"

// Credential 從 Authorization header 或 token cookie 取出 token
func Credential(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if token, err := c.Cookie("token"); err == nil {
		return token
	}
	return ""
}

// AuthMiddleware 驗證請求的 token，roles 非空時只允許清單內的角色
func AuthMiddleware(gate *auth.Gate, roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := gate.Authenticate(Credential(c), roles...)
		if err != nil {
			AbortWithAuthError(c, err)
			return
		}

		// 將用戶身分設置到上下文中
		c.Set(identityKey, id)
		c.Next()
	}
}

// AbortWithAuthError 依錯誤種類回應 401 或 403
func AbortWithAuthError(c *gin.Context, err error) {
	status := http.StatusUnauthorized
	if errors.Is(err, auth.ErrForbidden) {
		status = http.StatusForbidden
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": auth.Code(err)})
}

// CurrentIdentity 回傳 AuthMiddleware 設置的身分
func CurrentIdentity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}
