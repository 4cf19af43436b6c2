package middleware

import (
	"strings"

	"gitcloner/internal/services"
	"gitcloner/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 会话认证中间件
type AuthMiddleware struct {
	sessions *services.SessionService
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(sessions *services.SessionService) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// RequireLogin 校验Bearer会话令牌
func (m *AuthMiddleware) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "请先登录")
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c, "认证头格式错误")
			c.Abort()
			return
		}

		token := authHeader[7:] // 去掉 "Bearer "

		session, ok := m.sessions.Validate(token)
		if !ok {
			response.Unauthorized(c, "会话无效或已过期")
			c.Abort()
			return
		}

		// 将会话信息保存到上下文
		c.Set("session", session)
		c.Set("token", token)
		c.Set("user_id", session.UserID)
		c.Set("username", session.Username)

		c.Next()
	}
}
