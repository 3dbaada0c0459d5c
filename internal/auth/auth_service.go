package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 负责管理员口令校验与会话令牌的签发、验证。
// 单管理员模型：口令哈希来自配置，令牌使用 HS256 对称签名。
type AuthService struct {
	adminPasswordHash string
	tokenSecret       []byte
	tokenTTL          time.Duration
}

// SessionClaims 表示会话令牌中的业务字段。
type SessionClaims struct {
	jwt.RegisteredClaims
}

// NewAuthService 构造服务实例。
func NewAuthService(adminPasswordHash, tokenSecret string, tokenTTL time.Duration) (*AuthService, error) {
	if tokenSecret == "" {
		return nil, errors.New("token secret is required")
	}
	if tokenTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &AuthService{
		adminPasswordHash: adminPasswordHash,
		tokenSecret:       []byte(tokenSecret),
		tokenTTL:          tokenTTL,
	}, nil
}

// CheckAdminPassword 校验管理员口令。未配置哈希时一律拒绝。
func (s *AuthService) CheckAdminPassword(password string) bool {
	if s.adminPasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.adminPasswordHash), []byte(password)) == nil
}

// IssueSessionToken 签发一个新的会话令牌。
func (s *AuthService) IssueSessionToken() (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.tokenSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken 解析并验证会话令牌。
func (s *AuthService) ValidateToken(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, errors.New("token string is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.tokenSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// HashPassword 使用 bcrypt 生成口令哈希，供部署时生成配置值。
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}
