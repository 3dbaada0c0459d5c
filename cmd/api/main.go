package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"aiResume/internal/agent"
	"aiResume/internal/api"
	"aiResume/internal/ast"
	"aiResume/internal/auth"
	"aiResume/internal/config"
	"aiResume/internal/database"
	"aiResume/internal/llm"
	"aiResume/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Printf("database connection ready")

	if err := db.AutoMigrate(
		&database.Resume{},
		&database.ResumeVersion{},
		&database.Template{},
		&database.LLMConfig{},
		&database.Asset{},
	); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	log.Printf("database migrated")

	if err := seedSystemTemplate(db); err != nil {
		log.Fatalf("seed system template: %v", err)
	}

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()

	authService, err := auth.NewAuthService(
		cfg.Auth.AdminPasswordHash,
		cfg.Auth.TokenSecret,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
	)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	resolver := llm.NewConfigResolver(db, llm.Settings{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})
	orchestrator := agent.NewOrchestrator(resolver, logger)
	generator := agent.NewGenerator(resolver, logger)

	router := api.NewRouter(cfg, logger)
	api.RegisterRoutes(router, api.Dependencies{
		DB:          db,
		AsynqClient: asynqClient,
		RedisClient: redisClient,
		AuthService: authService,
		Storage:     storageClient,
		Runner:      orchestrator,
		Generator:   generator,
		Extractor:   generator,
		Logger:      logger,
		ClamdAddr:   cfg.Clamd.Addr,
		Origins:     cfg.API.AllowedOriginList(),
		MaxResumes:  cfg.API.MaxResumes,
	})

	address := fmt.Sprintf(":%d", cfg.API.Port)
	log.Printf("api listening on %s", address)

	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}

// seedSystemTemplate 保证至少存在一个系统内置模板。
func seedSystemTemplate(db *gorm.DB) error {
	var existing database.Template
	switch err := db.Where("is_system = ?", true).First(&existing).Error; {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return err
	}

	astJSON, err := json.Marshal(ast.DefaultTemplate())
	if err != nil {
		return err
	}

	seeded := database.Template{
		Name:        "经典单栏",
		Description: "默认的单栏简历模板，适合大多数场景。",
		AST:         datatypes.JSON(astJSON),
		IsSystem:    true,
	}
	if err := db.Create(&seeded).Error; err != nil {
		return err
	}
	log.Printf("seeded system template %q", seeded.Name)
	return nil
}
