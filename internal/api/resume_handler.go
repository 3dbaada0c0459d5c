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

	"aiResume/internal/api/middleware"
	"aiResume/internal/ast"
	"aiResume/internal/database"
	"aiResume/internal/resume"
	"aiResume/internal/tasks"
)

// ResumeHandler 负责简历文档的增删改查、版本与导出接口。
type ResumeHandler struct {
	db          *gorm.DB
	asynqClient TaskEnqueuer
	storage     ObjectStorage
	extractor   ResumeExtractor
	maxResumes  int
}

// ResumeExtractor 从纯文本中抽取结构化简历数据。
type ResumeExtractor interface {
	ExtractResumeData(ctx context.Context, text string) resume.Data
}

// NewResumeHandler 构造 ResumeHandler。
func NewResumeHandler(db *gorm.DB, asynqClient TaskEnqueuer, storageClient ObjectStorage, extractor ResumeExtractor, maxResumes int) *ResumeHandler {
	return &ResumeHandler{
		db:          db,
		asynqClient: asynqClient,
		storage:     storageClient,
		extractor:   extractor,
		maxResumes:  maxResumes,
	}
}

var errInvalidResumeID = errors.New("invalid resume id")

type createResumeRequest struct {
	Title      string `json:"title" binding:"required"`
	TemplateID *uint  `json:"template_id"`
}

type resumeListItem struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

type resumeResponse struct {
	ID           uint           `json:"id"`
	Title        string         `json:"title"`
	ResumeData   datatypes.JSON `json:"resume_data"`
	LayoutConfig datatypes.JSON `json:"layout_config"`
	TemplateAST  datatypes.JSON `json:"template_ast"`
	Messages     datatypes.JSON `json:"messages"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func newResumeResponse(doc database.Resume) resumeResponse {
	return resumeResponse{
		ID:           doc.ID,
		Title:        doc.Title,
		ResumeData:   doc.ResumeData,
		LayoutConfig: doc.LayoutConfig,
		TemplateAST:  doc.TemplateAST,
		Messages:     doc.Messages,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

// CreateResume 创建一份新简历：默认数据 + 默认布局 + 模板结构树。
// 传入 template_id 时以该模板的结构树初始化。
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	var req createResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()

	var count int64
	if err := h.db.WithContext(ctx).Model(&database.Resume{}).Count(&count).Error; err != nil {
		Internal(c, "failed to count resumes")
		return
	}
	if h.maxResumes > 0 && count >= int64(h.maxResumes) {
		Forbidden(c, "resume limit reached")
		return
	}

	astJSON, err := h.initialTemplateAST(c, req.TemplateID)
	if err != nil {
		return // response already written
	}

	dataJSON, err := json.Marshal(resume.DefaultData())
	if err != nil {
		Internal(c, "failed to encode default data")
		return
	}
	layoutJSON, err := json.Marshal(resume.DefaultLayoutConfig())
	if err != nil {
		Internal(c, "failed to encode default layout")
		return
	}

	doc := database.Resume{
		Title:        req.Title,
		ResumeData:   datatypes.JSON(dataJSON),
		LayoutConfig: datatypes.JSON(layoutJSON),
		TemplateAST:  astJSON,
		Messages:     datatypes.JSON([]byte("[]")),
	}
	if err := h.db.WithContext(ctx).Create(&doc).Error; err != nil {
		Internal(c, "failed to create resume")
		return
	}

	c.JSON(http.StatusCreated, newResumeResponse(doc))
}

func (h *ResumeHandler) initialTemplateAST(c *gin.Context, templateID *uint) (datatypes.JSON, error) {
	if templateID == nil {
		raw, err := json.Marshal(ast.DefaultTemplate())
		if err != nil {
			Internal(c, "failed to encode default template")
			return nil, err
		}
		return datatypes.JSON(raw), nil
	}

	var tpl database.Template
	err := h.db.WithContext(c.Request.Context()).First(&tpl, *templateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		NotFound(c, "template not found")
		return nil, err
	}
	if err != nil {
		Internal(c, "failed to query template")
		return nil, err
	}
	return tpl.AST, nil
}

// ListResumes 返回按更新时间倒序的简历列表。
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	var docs []database.Resume
	if err := h.db.WithContext(c.Request.Context()).
		Order("updated_at DESC").
		Find(&docs).Error; err != nil {
		Internal(c, "failed to list resumes")
		return
	}

	items := make([]resumeListItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, resumeListItem{
			ID:        doc.ID,
			Title:     doc.Title,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetResume 返回完整文档状态。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	doc, ok := h.loadResume(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(doc))
}

type updateResumeRequest struct {
	Title        *string        `json:"title"`
	ResumeData   datatypes.JSON `json:"resume_data"`
	LayoutConfig datatypes.JSON `json:"layout_config"`
	TemplateAST  datatypes.JSON `json:"template_ast"`
}

// UpdateResume 直接覆盖文档字段，供前端手动编辑路径使用。
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	doc, ok := h.loadResume(c)
	if !ok {
		return
	}

	var req updateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if len(req.ResumeData) > 0 {
		updates["resume_data"] = req.ResumeData
	}
	if len(req.LayoutConfig) > 0 {
		updates["layout_config"] = req.LayoutConfig
	}
	if len(req.TemplateAST) > 0 {
		var tpl map[string]any
		if err := json.Unmarshal(req.TemplateAST, &tpl); err != nil || !ast.HasRoot(tpl) {
			BadRequest(c, "template_ast must contain a root node")
			return
		}
		updates["template_ast"] = req.TemplateAST
	}
	if len(updates) == 0 {
		BadRequest(c, "nothing to update")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(&doc).
		Updates(updates).Error; err != nil {
		Internal(c, "failed to update resume")
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(doc))
}

// DeleteResume 删除简历及其版本记录。
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	doc, ok := h.loadResume(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("resume_id = ?", doc.ID).Delete(&database.ResumeVersion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&doc).Error
	})
	if err != nil {
		Internal(c, "failed to delete resume")
		return
	}
	c.Status(http.StatusNoContent)
}

type versionListItem struct {
	VersionNumber int       `json:"version_number"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListVersions 返回简历的历史版本号列表（不含数据体）。
func (h *ResumeHandler) ListVersions(c *gin.Context) {
	doc, ok := h.loadResume(c)
	if !ok {
		return
	}

	var versions []database.ResumeVersion
	if err := h.db.WithContext(c.Request.Context()).
		Where("resume_id = ?", doc.ID).
		Order("version_number DESC").
		Find(&versions).Error; err != nil {
		Internal(c, "failed to list versions")
		return
	}

	items := make([]versionListItem, 0, len(versions))
	for _, v := range versions {
		items = append(items, versionListItem{
			VersionNumber: v.VersionNumber,
			CreatedAt:     v.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// RestoreVersion 将简历数据与布局回滚到指定版本。
// 回滚前先对当前状态做一次快照，保证回滚本身也可撤销。
func (h *ResumeHandler) RestoreVersion(c *gin.Context) {
	doc, ok := h.loadResume(c)
	if !ok {
		return
	}

	versionNumber, err := strconv.Atoi(c.Param("version"))
	if err != nil || versionNumber <= 0 {
		BadRequest(c, "invalid version number")
		return
	}

	ctx := c.Request.Context()

	var version database.ResumeVersion
	err = h.db.WithContext(ctx).
		Where("resume_id = ? AND version_number = ?", doc.ID, versionNumber).
		First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		NotFound(c, "version not found")
		return
	}
	if err != nil {
		Internal(c, "failed to query version")
		return
	}

	if err := snapshotVersion(ctx, h.db, &doc); err != nil {
		Internal(c, "failed to snapshot resume")
		return
	}

	if err := h.db.WithContext(ctx).Model(&doc).Updates(map[string]any{
		"resume_data":   version.ResumeData,
		"layout_config": version.LayoutConfig,
	}).Error; err != nil {
		Internal(c, "failed to restore version")
		return
	}

	c.JSON(http.StatusOK, newResumeResponse(doc))
}

// ExportResume 异步导出 PDF：入队后立即返回，完成经 WebSocket 通知。
func (h *ResumeHandler) ExportResume(c *gin.Context) {
	doc, ok := h.loadResume(c)
	if !ok {
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewResumeExportTask(doc.ID, correlationID)
	if err != nil {
		Internal(c, "failed to build export task")
		return
	}
	if _, err := h.asynqClient.EnqueueContext(c.Request.Context(), task); err != nil {
		middleware.LoggerFromContext(c).Error("enqueue export task failed", slog.Any("error", err))
		Internal(c, "failed to enqueue export task")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":         "queued",
		"correlation_id": correlationID,
	})
}

// GetExportLink 返回最近一次导出产物的预签名下载链接。
func (h *ResumeHandler) GetExportLink(c *gin.Context) {
	doc, ok := h.loadResume(c)
	if !ok {
		return
	}
	if doc.ExportKey == "" {
		NotFound(c, "no export available")
		return
	}

	url, err := h.storage.GeneratePresignedURL(c.Request.Context(), doc.ExportKey, 15*time.Minute)
	if err != nil {
		middleware.LoggerFromContext(c).Error("generate export link failed", slog.Any("error", err))
		Internal(c, "failed to generate download link")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

type updateNodeRequest struct {
	NodeID  string         `json:"node_id" binding:"required"`
	Updates map[string]any `json:"updates" binding:"required"`
}

// UpdateTemplateNode 按节点 ID 直接修改文档模板树中的单个节点，
// 供前端拖拽、就地样式调整等非对话路径使用。
func (h *ResumeHandler) UpdateTemplateNode(c *gin.Context) {
	doc, ok := h.loadResume(c)
	if !ok {
		return
	}

	var req updateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	var tpl map[string]any
	if err := json.Unmarshal(doc.TemplateAST, &tpl); err != nil {
		Internal(c, "failed to decode template ast")
		return
	}
	if !ast.UpdateNode(tpl, req.NodeID, req.Updates) {
		NotFound(c, "node not found")
		return
	}

	raw, err := json.Marshal(tpl)
	if err != nil {
		Internal(c, "failed to encode template ast")
		return
	}
	if err := h.db.WithContext(c.Request.Context()).
		Model(&doc).
		Update("template_ast", datatypes.JSON(raw)).Error; err != nil {
		Internal(c, "failed to update template ast")
		return
	}

	c.JSON(http.StatusOK, gin.H{"template_ast": datatypes.JSON(raw)})
}

type extractRequest struct {
	Text string `json:"text" binding:"required"`
}

// ExtractResume 从粘贴的纯文本中抽取结构化简历数据。
// 抽取失败时返回空骨架，前端可直接落入编辑器。
func (h *ResumeHandler) ExtractResume(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	data := h.extractor.ExtractResumeData(c.Request.Context(), req.Text)
	c.JSON(http.StatusOK, gin.H{"resume_data": data})
}

func (h *ResumeHandler) loadResume(c *gin.Context) (database.Resume, bool) {
	id, err := resumeIDParam(c)
	if err != nil {
		BadRequest(c, "invalid resume id")
		return database.Resume{}, false
	}

	var doc database.Resume
	if err := h.db.WithContext(c.Request.Context()).First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "resume not found")
			return database.Resume{}, false
		}
		Internal(c, "failed to query resume")
		return database.Resume{}, false
	}
	return doc, true
}
