package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"aiResume/internal/database"
	"aiResume/internal/errcode"
	"aiResume/internal/pdf"
	"aiResume/internal/render"
	"aiResume/internal/storage"
	"aiResume/internal/tasks"
)

// 渲染失败与系统错误在通知里用不同错误码区分。
var errRenderFailed = errors.New("render failed")

// ResumeExportHandler 负责消费简历 PDF 导出任务。
type ResumeExportHandler struct {
	db          *gorm.DB
	storage     *storage.Client
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewResumeExportHandler 创建任务处理器。
func NewResumeExportHandler(
	db *gorm.DB,
	storageClient *storage.Client,
	redisClient *redis.Client,
	logger *slog.Logger,
) *ResumeExportHandler {
	return &ResumeExportHandler{
		db:          db,
		storage:     storageClient,
		redisClient: redisClient,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ResumeExportHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	var payload tasks.ResumeExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal export payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("resume_id", int(payload.ResumeID)),
	)
	log.Info("Starting resume PDF export task...")

	var doc database.Resume
	if err := h.db.WithContext(ctx).First(&doc, payload.ResumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("resume not found, skipping task")
			return nil
		}
		log.Error("query resume failed", slog.Any("error", err))
		return err
	}

	// 仅最后一次重试失败时推送错误通知，避免中间重试打扰前端。
	defer func() {
		if retErr == nil || !isFinalAsynqAttempt(ctx) {
			return
		}
		code := errcode.SystemError
		if errors.Is(retErr, errRenderFailed) {
			code = errcode.RenderError
		}
		notify := NotifyMessage{
			Kind:          "resume_export",
			Status:        "error",
			ResumeID:      doc.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     code,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := publishNotify(ctx, h.redisClient, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	htmlDoc, err := h.renderResumeHTML(doc)
	if err != nil {
		log.Error("render resume html failed", slog.Any("error", err))
		return fmt.Errorf("%w: %v", errRenderFailed, err)
	}

	pdfBytes, err := pdf.GeneratePDFFromHTML(htmlDoc)
	if err != nil {
		log.Error("generate pdf failed", slog.Any("error", err))
		return err
	}

	objectName := fmt.Sprintf("exports/resumes/%d/%s.pdf", doc.ID, uuid.NewString())
	if _, err := h.storage.UploadFile(ctx, objectName, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	if err := h.db.WithContext(ctx).
		Model(&doc).
		Update("export_key", objectName).Error; err != nil {
		log.Error("update resume export key failed", slog.Any("error", err))
		return err
	}

	notify := NotifyMessage{
		Kind:          "resume_export",
		Status:        "completed",
		ResumeID:      doc.ID,
		ObjectKey:     objectName,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := publishNotify(ctx, h.redisClient, notify); err != nil {
		log.Error("publish export notification failed", slog.Any("error", err))
		return err
	}

	log.Info("Resume PDF export task completed successfully.")
	return nil
}

func (h *ResumeExportHandler) renderResumeHTML(doc database.Resume) (string, error) {
	var tpl map[string]any
	if err := json.Unmarshal(doc.TemplateAST, &tpl); err != nil {
		return "", fmt.Errorf("decode template ast: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(doc.ResumeData, &data); err != nil {
		return "", fmt.Errorf("decode resume data: %w", err)
	}
	var layout map[string]string
	if len(doc.LayoutConfig) > 0 {
		if err := json.Unmarshal(doc.LayoutConfig, &layout); err != nil {
			return "", fmt.Errorf("decode layout config: %w", err)
		}
	}
	return render.Document(tpl, data, layout)
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
