package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"aiResume/internal/database"
	"aiResume/internal/errcode"
	"aiResume/internal/render"
	"aiResume/internal/resume"
	"aiResume/internal/storage"
	"aiResume/internal/tasks"
)

// TemplatePreviewHandler 负责模板缩略图生成任务。
// 缩略图使用默认示例数据渲染，只反映模板结构与样式。
type TemplatePreviewHandler struct {
	db          *gorm.DB
	storage     *storage.Client
	redisClient *redis.Client
	logger      *slog.Logger
}

func NewTemplatePreviewHandler(
	db *gorm.DB,
	storageClient *storage.Client,
	redisClient *redis.Client,
	logger *slog.Logger,
) *TemplatePreviewHandler {
	return &TemplatePreviewHandler{
		db:          db,
		storage:     storageClient,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (h *TemplatePreviewHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.TemplatePreviewPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal template preview payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(
		slog.Int("template_id", int(payload.TemplateID)),
		slog.String("correlation_id", payload.CorrelationID),
	)
	log.Info("Starting template preview generation task...")

	var template database.Template
	if err := h.db.WithContext(ctx).First(&template, payload.TemplateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("template not found, skipping task")
			return nil
		}
		log.Error("query template failed", slog.Any("error", err))
		return err
	}

	var tpl map[string]any
	if err := json.Unmarshal(template.AST, &tpl); err != nil {
		log.Error("decode template ast failed", slog.Any("error", err))
		return err
	}

	sampleData, err := sampleRenderData()
	if err != nil {
		return err
	}

	htmlDoc, err := render.Document(tpl, sampleData, resume.DefaultLayoutConfig())
	if err != nil {
		log.Error("render template html failed", slog.Any("error", err))
		return err
	}

	const previewQuality = 80
	previewBytes, err := captureHTMLScreenshot(htmlDoc, previewQuality)
	if err != nil {
		log.Error("capture template screenshot failed", slog.Any("error", err))
		return err
	}

	objectName := fmt.Sprintf("thumbnails/templates/%d/preview.jpg", template.ID)
	if _, err := h.storage.UploadFile(ctx, objectName, bytes.NewReader(previewBytes), int64(len(previewBytes)), "image/jpeg"); err != nil {
		log.Error("upload template preview failed", slog.Any("error", err))
		return err
	}

	if err := h.db.WithContext(ctx).
		Model(&template).
		Update("thumbnail_key", objectName).Error; err != nil {
		log.Error("update template thumbnail key failed", slog.Any("error", err))
		return err
	}

	notify := NotifyMessage{
		Kind:          "template_preview",
		Status:        "completed",
		TemplateID:    template.ID,
		ObjectKey:     objectName,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := publishNotify(ctx, h.redisClient, notify); err != nil {
		log.Error("publish preview notification failed", slog.Any("error", err))
		return err
	}

	log.Info("Template preview generation completed.")
	return nil
}

// sampleRenderData 将默认简历数据转成渲染用的松散映射。
func sampleRenderData() (map[string]any, error) {
	raw, err := json.Marshal(resume.DefaultData())
	if err != nil {
		return nil, fmt.Errorf("marshal sample data: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode sample data: %w", err)
	}
	return data, nil
}
