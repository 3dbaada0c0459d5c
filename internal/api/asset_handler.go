package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"aiResume/internal/database"
)

// 上传限流：每分钟最多 30 次。
const (
	uploadRateLimit  = 30
	uploadRateWindow = time.Minute
)

var allowedAssetExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

// AssetHandler 负责图片资产的上传、列举与删除。
// 文件内容存放在对象存储，元信息入库。
type AssetHandler struct {
	db          *gorm.DB
	storage     ObjectStorage
	redisClient redisRateCounter
	logger      *slog.Logger
	clamdAddr   string
}

// NewAssetHandler 返回 AssetHandler 实例。
func NewAssetHandler(db *gorm.DB, storageClient ObjectStorage, redisClient redisRateCounter, logger *slog.Logger, clamdAddr string) *AssetHandler {
	return &AssetHandler{
		db:          db,
		storage:     storageClient,
		redisClient: redisClient,
		logger:      logger,
		clamdAddr:   clamdAddr,
	}
}

// UploadAsset 处理图片上传，上传前经 clamd 扫描。
func (h *AssetHandler) UploadAsset(c *gin.Context) {
	ctx := c.Request.Context()

	rateKey := fmt.Sprintf("asset_uploads:%s", c.ClientIP())
	count, err := incrWithTTL(ctx, h.redisClient, rateKey, uploadRateWindow)
	if err != nil {
		h.logger.Warn("upload rate counter unavailable", slog.Any("error", err))
	} else if count > uploadRateLimit {
		TooManyRequests(c, "too many uploads")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}

	ext := strings.ToLower(path.Ext(file.Filename))
	contentType, ok := allowedAssetExtensions[ext]
	if !ok {
		BadRequest(c, "unsupported file type")
		return
	}

	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}

	clamdClient := clamd.NewClamd(h.clamdAddr)
	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(fileReader, abortChan)
	fileReader.Close()
	if err != nil {
		h.logger.Error("scan file", slog.Any("error", err))
		Internal(c, "failed to scan file")
		return
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			BadRequest(c, "malicious file detected")
			return
		}
	}

	fileReader, err = file.Open()
	if err != nil {
		Internal(c, "failed to reopen file")
		return
	}
	defer fileReader.Close()

	objectKey := fmt.Sprintf("assets/%s%s", uuid.NewString(), ext)
	if _, err := h.storage.UploadFile(ctx, objectKey, fileReader, file.Size, contentType); err != nil {
		h.logger.Error("upload file", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	asset := database.Asset{
		ObjectKey: objectKey,
		MIMEType:  contentType,
		SizeBytes: file.Size,
	}
	if err := h.db.WithContext(ctx).Create(&asset).Error; err != nil {
		h.logger.Error("save asset record", slog.Any("error", err))
		Internal(c, "failed to save asset")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"objectKey": objectKey})
}

// ListAssets 按上传时间倒序列出资产并附带预览链接。
func (h *AssetHandler) ListAssets(c *gin.Context) {
	ctx := c.Request.Context()

	var assets []database.Asset
	if err := h.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(200).
		Find(&assets).Error; err != nil {
		Internal(c, "failed to list assets")
		return
	}

	items := make([]gin.H, 0, len(assets))
	for _, asset := range assets {
		url, err := h.storage.GeneratePresignedURL(ctx, asset.ObjectKey, 10*time.Minute)
		if err != nil {
			h.logger.Error("generate asset url", slog.String("objectKey", asset.ObjectKey), slog.Any("error", err))
			continue
		}
		items = append(items, gin.H{
			"objectKey":  asset.ObjectKey,
			"previewUrl": url,
			"size":       asset.SizeBytes,
			"mimeType":   asset.MIMEType,
			"createdAt":  asset.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetAssetURL 返回资产的临时预签名 URL。
func (h *AssetHandler) GetAssetURL(c *gin.Context) {
	objectKey := c.Query("key")
	if objectKey == "" {
		BadRequest(c, "missing key")
		return
	}
	if !isValidAssetObjectKey(objectKey) {
		Forbidden(c, "access denied")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(c.Request.Context(), objectKey, 15*time.Minute)
	if err != nil {
		h.logger.Error("generate presigned url", slog.Any("error", err))
		Internal(c, "failed to generate url")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

// DeleteAsset 删除对象存储中的文件与数据库记录。
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	objectKey := c.Query("key")
	if !isValidAssetObjectKey(objectKey) {
		BadRequest(c, "invalid key")
		return
	}

	ctx := c.Request.Context()

	var asset database.Asset
	err := h.db.WithContext(ctx).Where("object_key = ?", objectKey).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		NotFound(c, "asset not found")
		return
	}
	if err != nil {
		Internal(c, "failed to query asset")
		return
	}

	if err := h.storage.DeleteObject(ctx, objectKey); err != nil {
		h.logger.Error("delete object", slog.Any("error", err))
		Internal(c, "failed to delete object")
		return
	}
	if err := h.db.WithContext(ctx).Delete(&asset).Error; err != nil {
		Internal(c, "failed to delete asset record")
		return
	}
	c.Status(http.StatusNoContent)
}
