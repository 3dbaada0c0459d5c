package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"aiResume/internal/database"
)

// LLMConfigHandler 负责生成服务接入配置的读写。
// API Key 只写不读，响应中仅返回是否已配置。
type LLMConfigHandler struct {
	db *gorm.DB
}

func NewLLMConfigHandler(db *gorm.DB) *LLMConfigHandler {
	return &LLMConfigHandler{db: db}
}

type llmConfigResponse struct {
	BaseURL   string `json:"base_url"`
	ModelName string `json:"model_name"`
	HasAPIKey bool   `json:"has_api_key"`
}

// GetConfig 返回当前生效的 LLM 配置（不含密钥明文）。
func (h *LLMConfigHandler) GetConfig(c *gin.Context) {
	var cfg database.LLMConfig
	err := h.db.WithContext(c.Request.Context()).Order("id ASC").First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, llmConfigResponse{})
		return
	}
	if err != nil {
		Internal(c, "failed to query llm config")
		return
	}

	c.JSON(http.StatusOK, llmConfigResponse{
		BaseURL:   cfg.BaseURL,
		ModelName: cfg.ModelName,
		HasAPIKey: strings.TrimSpace(cfg.APIKey) != "",
	})
}

type updateLLMConfigRequest struct {
	BaseURL   *string `json:"base_url"`
	APIKey    *string `json:"api_key"`
	ModelName *string `json:"model_name"`
}

// UpdateConfig 更新配置；未提供的字段保持不变。
func (h *LLMConfigHandler) UpdateConfig(c *gin.Context) {
	var req updateLLMConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()

	var cfg database.LLMConfig
	err := h.db.WithContext(ctx).Order("id ASC").First(&cfg).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		Internal(c, "failed to query llm config")
		return
	}

	if req.BaseURL != nil {
		cfg.BaseURL = strings.TrimSpace(*req.BaseURL)
	}
	if req.APIKey != nil {
		cfg.APIKey = strings.TrimSpace(*req.APIKey)
	}
	if req.ModelName != nil {
		cfg.ModelName = strings.TrimSpace(*req.ModelName)
	}

	if err := h.db.WithContext(ctx).Save(&cfg).Error; err != nil {
		Internal(c, "failed to save llm config")
		return
	}

	c.JSON(http.StatusOK, llmConfigResponse{
		BaseURL:   cfg.BaseURL,
		ModelName: cfg.ModelName,
		HasAPIKey: strings.TrimSpace(cfg.APIKey) != "",
	})
}
