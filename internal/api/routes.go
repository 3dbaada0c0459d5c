package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"aiResume/internal/api/middleware"
	"aiResume/internal/auth"
	"aiResume/internal/storage"
)

// Dependencies 汇集路由注册需要的全部服务。
type Dependencies struct {
	DB          *gorm.DB
	AsynqClient *asynq.Client
	RedisClient *redis.Client
	AuthService *auth.AuthService
	Storage     *storage.Client
	Runner      TurnRunner
	Generator   TemplateGenerator
	Extractor   ResumeExtractor
	Logger      *slog.Logger
	ClamdAddr   string
	Origins     []string
	MaxResumes  int
}

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	chatHandler := NewChatHandler(deps.DB, deps.Runner)
	resumeHandler := NewResumeHandler(deps.DB, deps.AsynqClient, deps.Storage, deps.Extractor, deps.MaxResumes)
	templateHandler := NewTemplateHandler(deps.DB, deps.AsynqClient, deps.Storage, deps.Generator)
	llmConfigHandler := NewLLMConfigHandler(deps.DB)
	authHandler := NewAuthHandler(deps.AuthService, deps.RedisClient, deps.Logger)
	assetHandler := NewAssetHandler(deps.DB, deps.Storage, deps.RedisClient, deps.Logger, deps.ClamdAddr)
	wsHandler := NewWsHandler(deps.RedisClient, deps.AuthService, deps.Logger, deps.Origins)
	authMiddleware := middleware.AuthMiddleware(deps.AuthService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/session", authMiddleware, authHandler.Session)
		}

		resumeGroup := v1.Group("/resumes")
		resumeGroup.Use(authMiddleware)
		{
			resumeGroup.POST("", resumeHandler.CreateResume)
			resumeGroup.GET("", resumeHandler.ListResumes)
			resumeGroup.POST("/extract", resumeHandler.ExtractResume)
			resumeGroup.GET("/:id", resumeHandler.GetResume)
			resumeGroup.PATCH("/:id", resumeHandler.UpdateResume)
			resumeGroup.PATCH("/:id/template-node", resumeHandler.UpdateTemplateNode)
			resumeGroup.DELETE("/:id", resumeHandler.DeleteResume)
			resumeGroup.POST("/:id/chat", chatHandler.Chat)
			resumeGroup.GET("/:id/versions", resumeHandler.ListVersions)
			resumeGroup.POST("/:id/versions/:version/restore", resumeHandler.RestoreVersion)
			resumeGroup.POST("/:id/export", resumeHandler.ExportResume)
			resumeGroup.GET("/:id/export-link", resumeHandler.GetExportLink)
		}

		templateGroup := v1.Group("/templates")
		templateGroup.Use(authMiddleware)
		{
			templateGroup.POST("", templateHandler.CreateTemplate)
			templateGroup.GET("", templateHandler.ListTemplates)
			templateGroup.POST("/generate", templateHandler.GenerateTemplate)
			templateGroup.POST("/parse", templateHandler.ParseHTML)
			templateGroup.GET("/:id", templateHandler.GetTemplate)
			templateGroup.PATCH("/:id", templateHandler.UpdateTemplate)
			templateGroup.DELETE("/:id", templateHandler.DeleteTemplate)
			templateGroup.GET("/:id/thumbnail-link", templateHandler.GetThumbnailLink)
		}

		llmGroup := v1.Group("/llm-config")
		llmGroup.Use(authMiddleware)
		{
			llmGroup.GET("", llmConfigHandler.GetConfig)
			llmGroup.PUT("", llmConfigHandler.UpdateConfig)
		}

		assetGroup := v1.Group("/assets")
		assetGroup.Use(authMiddleware)
		{
			assetGroup.POST("/upload", assetHandler.UploadAsset)
			assetGroup.GET("", assetHandler.ListAssets)
			assetGroup.GET("/view", assetHandler.GetAssetURL)
			assetGroup.DELETE("", assetHandler.DeleteAsset)
		}
	}
}
