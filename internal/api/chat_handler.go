package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"aiResume/internal/agent"
	"aiResume/internal/api/middleware"
	"aiResume/internal/database"
	"aiResume/internal/llm"
	"aiResume/internal/resume"
)

// TurnRunner 执行一个完整的对话回合。
type TurnRunner interface {
	Run(ctx context.Context, input agent.TurnInput) agent.TurnResult
}

// ChatHandler 负责对话编辑接口：加载文档状态、执行回合并持久化结果。
type ChatHandler struct {
	db     *gorm.DB
	runner TurnRunner
}

func NewChatHandler(db *gorm.DB, runner TurnRunner) *ChatHandler {
	return &ChatHandler{db: db, runner: runner}
}

type chatImage struct {
	Data     string `json:"data" binding:"required"`
	MIMEType string `json:"mime_type"`
}

type chatRequest struct {
	Message          string             `json:"message" binding:"required"`
	Images           []chatImage        `json:"images"`
	FocusedSectionID string             `json:"focused_section_id"`
	DragContext      *agent.DragContext `json:"drag_context"`
	EditMode         string             `json:"edit_mode"`
}

type chatResponse struct {
	Reply        string              `json:"reply"`
	Intent       string              `json:"intent"`
	ResumeData   map[string]any      `json:"resume_data"`
	LayoutConfig resume.LayoutConfig `json:"layout_config"`
	TemplateAST  map[string]any      `json:"template_ast"`
	Messages     []agent.ChatMessage `json:"messages"`
}

// Chat 处理 POST /v1/resumes/:id/chat。
// 执行回合前会先写入一条不可变版本快照，便于整回合回滚。
func (h *ChatHandler) Chat(c *gin.Context) {
	id, err := resumeIDParam(c)
	if err != nil {
		BadRequest(c, "invalid resume id")
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c)

	var doc database.Resume
	if err := h.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "resume not found")
			return
		}
		Internal(c, "failed to query resume")
		return
	}

	input, err := turnInputFromResume(doc, req)
	if err != nil {
		log.Error("decode resume state failed", slog.Any("error", err))
		Internal(c, "failed to decode resume state")
		return
	}

	if err := snapshotVersion(ctx, h.db, &doc); err != nil {
		log.Error("snapshot resume version failed", slog.Any("error", err))
		Internal(c, "failed to snapshot resume")
		return
	}

	result := h.runner.Run(ctx, input)

	if err := persistTurnResult(ctx, h.db, &doc, result); err != nil {
		log.Error("persist turn result failed", slog.Any("error", err))
		Internal(c, "failed to persist resume")
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		Reply:        result.Message,
		Intent:       string(result.Intent),
		ResumeData:   result.ResumeData,
		LayoutConfig: result.LayoutConfig,
		TemplateAST:  result.TemplateAST,
		Messages:     result.Messages,
	})
}

func turnInputFromResume(doc database.Resume, req chatRequest) (agent.TurnInput, error) {
	var data map[string]any
	if err := json.Unmarshal(doc.ResumeData, &data); err != nil {
		return agent.TurnInput{}, err
	}

	var layout resume.LayoutConfig
	if len(doc.LayoutConfig) > 0 {
		if err := json.Unmarshal(doc.LayoutConfig, &layout); err != nil {
			return agent.TurnInput{}, err
		}
	}

	var tpl map[string]any
	if len(doc.TemplateAST) > 0 {
		if err := json.Unmarshal(doc.TemplateAST, &tpl); err != nil {
			return agent.TurnInput{}, err
		}
	}

	var history []agent.ChatMessage
	if len(doc.Messages) > 0 {
		if err := json.Unmarshal(doc.Messages, &history); err != nil {
			return agent.TurnInput{}, err
		}
	}

	images := make([]llm.ImageData, 0, len(req.Images))
	for _, img := range req.Images {
		mime := img.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		images = append(images, llm.ImageData{Base64: img.Data, MIMEType: mime})
	}

	return agent.TurnInput{
		ThreadID:         strconv.FormatUint(uint64(doc.ID), 10),
		Message:          req.Message,
		ResumeData:       data,
		LayoutConfig:     layout,
		TemplateAST:      tpl,
		Messages:         history,
		FocusedSectionID: req.FocusedSectionID,
		DragContext:      req.DragContext,
		EditMode:         req.EditMode,
		Images:           images,
	}, nil
}

// snapshotVersion 记录回合前的数据与布局快照，版本号在同一简历内递增。
func snapshotVersion(ctx context.Context, db *gorm.DB, doc *database.Resume) error {
	var latest int
	err := db.WithContext(ctx).
		Model(&database.ResumeVersion{}).
		Where("resume_id = ?", doc.ID).
		Select("COALESCE(MAX(version_number), 0)").
		Scan(&latest).Error
	if err != nil {
		return err
	}

	version := database.ResumeVersion{
		ResumeID:      doc.ID,
		VersionNumber: latest + 1,
		ResumeData:    doc.ResumeData,
		LayoutConfig:  doc.LayoutConfig,
	}
	return db.WithContext(ctx).Create(&version).Error
}

func persistTurnResult(ctx context.Context, db *gorm.DB, doc *database.Resume, result agent.TurnResult) error {
	data, err := json.Marshal(result.ResumeData)
	if err != nil {
		return err
	}
	layout, err := json.Marshal(result.LayoutConfig)
	if err != nil {
		return err
	}
	tpl, err := json.Marshal(result.TemplateAST)
	if err != nil {
		return err
	}
	messages, err := json.Marshal(result.Messages)
	if err != nil {
		return err
	}

	return db.WithContext(ctx).Model(doc).Updates(map[string]any{
		"resume_data":   datatypes.JSON(data),
		"layout_config": datatypes.JSON(layout),
		"template_ast":  datatypes.JSON(tpl),
		"messages":      datatypes.JSON(messages),
	}).Error
}

func resumeIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidResumeID
	}
	return uint(id), nil
}
