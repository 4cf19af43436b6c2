package handlers

import (
	"strings"

	"gitcloner/internal/services"
	"gitcloner/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	userService *services.UserService
	sessions    *services.SessionService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(userService *services.UserService, sessions *services.SessionService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		sessions:    sessions,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresAt int64  `json:"expires_at"`
}

// Login 用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "请求参数错误: "+err.Error())
		return
	}

	user, err := h.userService.GetByUsername(req.Username)
	if err != nil {
		response.Unauthorized(c, "用户名或密码错误")
		return
	}

	if !user.IsActive() {
		response.Unauthorized(c, "用户已被禁用")
		return
	}

	if !user.CheckPassword(req.Password) {
		response.Unauthorized(c, "用户名或密码错误")
		return
	}

	session := h.sessions.Create(user)

	// 更新最后登录时间，失败不影响登录流程
	_ = h.userService.UpdateLastLogin(user.ID)

	response.Success(c, LoginResponse{
		Token:     session.Token,
		Username:  session.Username,
		ExpiresAt: session.ExpiresAt.Unix(),
	})
}

// Logout 用户登出。无论令牌是否有效都返回成功
func (h *AuthHandler) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		h.sessions.Remove(authHeader[7:])
	}

	response.SuccessWithMessage(c, "登出成功", nil)
}

// Me 当前会话的用户信息
func (h *AuthHandler) Me(c *gin.Context) {
	session := c.MustGet("session").(*services.Session)

	user, err := h.userService.GetByID(session.UserID)
	if err != nil {
		response.Unauthorized(c, "用户不存在")
		return
	}

	response.Success(c, gin.H{
		"id":            user.ID,
		"username":      user.Username,
		"status":        user.Status,
		"last_login_at": user.LastLoginAt,
		"expires_at":    session.ExpiresAt.Unix(),
	})
}
