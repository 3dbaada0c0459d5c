package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aiResume/internal/api/middleware"
	"aiResume/internal/auth"
)

// 登录尝试限流：同一 IP 每分钟最多 5 次。
const (
	loginRateLimit  = 5
	loginRateWindow = time.Minute
)

// AuthHandler 负责管理员登录与会话检查。
type AuthHandler struct {
	authService *auth.AuthService
	redisClient redisRateCounter
	logger      *slog.Logger
}

func NewAuthHandler(authService *auth.AuthService, redisClient redisRateCounter, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		redisClient: redisClient,
		logger:      logger,
	}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login 校验管理员口令并签发会话令牌。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()

	rateKey := fmt.Sprintf("login_attempts:%s", c.ClientIP())
	count, err := incrWithTTL(ctx, h.redisClient, rateKey, loginRateWindow)
	if err != nil {
		// Redis 不可用时放行登录，避免锁死管理入口
		h.logger.Warn("login rate counter unavailable", slog.Any("error", err))
	} else if count > loginRateLimit {
		TooManyRequests(c, "too many login attempts")
		return
	}

	if !h.authService.CheckAdminPassword(req.Password) {
		middleware.LoggerFromContext(c).Warn("admin login rejected", slog.String("client_ip", c.ClientIP()))
		Unauthorized(c)
		return
	}

	token, err := h.authService.IssueSessionToken()
	if err != nil {
		h.logger.Error("issue session token failed", slog.Any("error", err))
		Internal(c, "failed to issue token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Session 校验当前令牌是否有效（经过 AuthMiddleware 即为有效）。
func (h *AuthHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
