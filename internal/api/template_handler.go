package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"aiResume/internal/agent"
	"aiResume/internal/api/middleware"
	"aiResume/internal/ast"
	"aiResume/internal/database"
	"aiResume/internal/tasks"
)

// TemplateGenerator 由生成服务实现：根据自然语言描述产出模板结构树。
type TemplateGenerator interface {
	GenerateTemplate(ctx context.Context, prompt string, baseAST map[string]any) (agent.GeneratedTemplate, error)
	ParseHTML(ctx context.Context, htmlContent, cssContent string) (map[string]any, error)
}

// TemplateHandler 负责模板相关的 API。
type TemplateHandler struct {
	db          *gorm.DB
	asynqClient TaskEnqueuer
	storage     ObjectStorage
	generator   TemplateGenerator
}

func NewTemplateHandler(db *gorm.DB, asynqClient TaskEnqueuer, storageClient ObjectStorage, generator TemplateGenerator) *TemplateHandler {
	return &TemplateHandler{
		db:          db,
		asynqClient: asynqClient,
		storage:     storageClient,
		generator:   generator,
	}
}

type createTemplateRequest struct {
	Name        string         `json:"name" binding:"required"`
	Description string         `json:"description"`
	AST         datatypes.JSON `json:"ast" binding:"required"`
}

type templateListItem struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsSystem    bool   `json:"is_system"`
}

type templateDetailResponse struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	AST         datatypes.JSON `json:"ast"`
	IsSystem    bool           `json:"is_system"`
}

// CreateTemplate 创建模板并异步生成缩略图。
// 结构树必须包含 root 节点，缺失的节点 ID 会在入库前补齐。
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	normalized, ok := normalizeTemplateAST(c, req.AST)
	if !ok {
		return
	}

	model := database.Template{
		Name:        req.Name,
		Description: req.Description,
		AST:         normalized,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&model).Error; err != nil {
		Internal(c, "failed to create template")
		return
	}

	h.enqueuePreview(c, model.ID)
	c.JSON(http.StatusCreated, gin.H{"id": model.ID, "name": model.Name})
}

// ListTemplates 按更新时间倒序返回模板（系统模板在前）。
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	var templates []database.Template
	if err := h.db.WithContext(c.Request.Context()).
		Order("is_system DESC, updated_at DESC").
		Find(&templates).Error; err != nil {
		Internal(c, "failed to list templates")
		return
	}

	items := make([]templateListItem, 0, len(templates))
	for _, t := range templates {
		items = append(items, templateListItem{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			IsSystem:    t.IsSystem,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetTemplate 返回模板详情（含完整结构树）。
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	model, ok := h.loadTemplate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, templateDetailResponse{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		AST:         model.AST,
		IsSystem:    model.IsSystem,
	})
}

type updateTemplateRequest struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	AST         datatypes.JSON `json:"ast"`
}

// UpdateTemplate 修改模板；系统内置模板不可修改。
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	model, ok := h.loadTemplate(c)
	if !ok {
		return
	}
	if model.IsSystem {
		Forbidden(c, "system template is read-only")
		return
	}

	var req updateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(req.AST) > 0 {
		normalized, ok := normalizeTemplateAST(c, req.AST)
		if !ok {
			return
		}
		updates["ast"] = normalized
	}
	if len(updates) == 0 {
		BadRequest(c, "nothing to update")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(&model).
		Updates(updates).Error; err != nil {
		Internal(c, "failed to update template")
		return
	}

	if _, astChanged := updates["ast"]; astChanged {
		h.enqueuePreview(c, model.ID)
	}
	c.JSON(http.StatusOK, gin.H{"id": model.ID})
}

// DeleteTemplate 删除模板及其缩略图对象；系统内置模板不可删除。
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	model, ok := h.loadTemplate(c)
	if !ok {
		return
	}
	if model.IsSystem {
		Forbidden(c, "system template is read-only")
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Delete(&model).Error; err != nil {
		Internal(c, "failed to delete template")
		return
	}

	if model.ThumbnailKey != "" {
		if err := h.storage.DeleteObject(ctx, model.ThumbnailKey); err != nil {
			middleware.LoggerFromContext(c).Warn("delete template thumbnail failed", slog.Any("error", err))
		}
	}
	c.Status(http.StatusNoContent)
}

// GetThumbnailLink 返回模板缩略图的预签名链接。
func (h *TemplateHandler) GetThumbnailLink(c *gin.Context) {
	model, ok := h.loadTemplate(c)
	if !ok {
		return
	}
	if model.ThumbnailKey == "" {
		NotFound(c, "no thumbnail available")
		return
	}

	url, err := h.storage.GeneratePresignedURL(c.Request.Context(), model.ThumbnailKey, 15*time.Minute)
	if err != nil {
		Internal(c, "failed to generate thumbnail link")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

type generateTemplateRequest struct {
	Prompt         string `json:"prompt" binding:"required"`
	BaseTemplateID *uint  `json:"base_template_id"`
}

// GenerateTemplate 用自然语言描述生成新模板并入库。
func (h *TemplateHandler) GenerateTemplate(c *gin.Context) {
	var req generateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()

	var baseAST map[string]any
	if req.BaseTemplateID != nil {
		var base database.Template
		err := h.db.WithContext(ctx).First(&base, *req.BaseTemplateID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "base template not found")
			return
		}
		if err != nil {
			Internal(c, "failed to query base template")
			return
		}
		if err := json.Unmarshal(base.AST, &baseAST); err != nil {
			Internal(c, "failed to decode base template")
			return
		}
	}

	generated, err := h.generator.GenerateTemplate(ctx, req.Prompt, baseAST)
	if err != nil {
		if errors.Is(err, agent.ErrLLMNotConfigured) {
			Error(c, http.StatusServiceUnavailable, "请先在设置页面配置 LLM 参数。")
			return
		}
		BadRequest(c, err.Error())
		return
	}

	astJSON, err := json.Marshal(generated.AST)
	if err != nil {
		Internal(c, "failed to encode generated template")
		return
	}

	model := database.Template{
		Name:        generated.Name,
		Description: generated.Description,
		AST:         datatypes.JSON(astJSON),
	}
	if err := h.db.WithContext(ctx).Create(&model).Error; err != nil {
		Internal(c, "failed to save generated template")
		return
	}

	h.enqueuePreview(c, model.ID)
	c.JSON(http.StatusCreated, gin.H{
		"id":          model.ID,
		"name":        model.Name,
		"description": model.Description,
		"ast":         model.AST,
	})
}

type parseHTMLRequest struct {
	HTML string `json:"html" binding:"required"`
	CSS  string `json:"css"`
}

// ParseHTML 将现有 HTML/CSS 片段转换为模板结构树，不入库。
func (h *TemplateHandler) ParseHTML(c *gin.Context) {
	var req parseHTMLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	result, err := h.generator.ParseHTML(c.Request.Context(), req.HTML, req.CSS)
	if err != nil {
		if errors.Is(err, agent.ErrLLMNotConfigured) {
			Error(c, http.StatusServiceUnavailable, "请先在设置页面配置 LLM 参数。")
			return
		}
		BadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TemplateHandler) enqueuePreview(c *gin.Context, templateID uint) {
	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewTemplatePreviewTask(templateID, correlationID)
	if err != nil {
		middleware.LoggerFromContext(c).Error("build preview task failed", slog.Any("error", err))
		return
	}
	if _, err := h.asynqClient.EnqueueContext(c.Request.Context(), task); err != nil {
		// 缩略图生成失败不影响模板本身的写入
		middleware.LoggerFromContext(c).Error("enqueue preview task failed", slog.Any("error", err))
	}
}

// normalizeTemplateAST 校验 root 节点并补齐缺失的节点 ID。
func normalizeTemplateAST(c *gin.Context, raw datatypes.JSON) (datatypes.JSON, bool) {
	var tpl map[string]any
	if err := json.Unmarshal(raw, &tpl); err != nil {
		BadRequest(c, "ast must be a JSON object")
		return nil, false
	}
	if !ast.HasRoot(tpl) {
		BadRequest(c, "ast must contain a root node")
		return nil, false
	}
	if root, ok := tpl["root"].(map[string]any); ok {
		ast.EnsureNodeIDsMap(root, "")
	}

	normalized, err := json.Marshal(tpl)
	if err != nil {
		Internal(c, "failed to encode ast")
		return nil, false
	}
	return datatypes.JSON(normalized), true
}

func (h *TemplateHandler) loadTemplate(c *gin.Context) (database.Template, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "invalid template id")
		return database.Template{}, false
	}

	var model database.Template
	if err := h.db.WithContext(c.Request.Context()).First(&model, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "template not found")
			return database.Template{}, false
		}
		Internal(c, "failed to query template")
		return database.Template{}, false
	}
	return model, true
}
