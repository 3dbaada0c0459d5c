package llm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"aiResume/internal/database"
)

// ConfigResolver 先读数据库中的 LLMConfig 记录，缺省回退到环境配置。
// 每次调用都重新解析，配置更新后无需重启即可生效。
type ConfigResolver struct {
	db       *gorm.DB
	fallback Settings
}

// NewConfigResolver 构造解析器，fallback 来自环境变量配置。
func NewConfigResolver(db *gorm.DB, fallback Settings) *ConfigResolver {
	return &ConfigResolver{db: db, fallback: fallback}
}

// Client 返回当前配置下的客户端；无 API Key 时返回 (nil, nil)。
func (r *ConfigResolver) Client(ctx context.Context) (Client, error) {
	settings := r.fallback

	var record database.LLMConfig
	err := r.db.WithContext(ctx).First(&record).Error
	switch {
	case err == nil:
		if record.APIKey != "" {
			settings.APIKey = record.APIKey
		}
		if record.BaseURL != "" {
			settings.BaseURL = record.BaseURL
		}
		if record.ModelName != "" {
			settings.Model = record.ModelName
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// 无持久化配置，使用环境回退值
	default:
		return nil, fmt.Errorf("load llm config: %w", err)
	}

	if settings.APIKey == "" {
		return nil, nil
	}
	if settings.Model == "" {
		settings.Model = "gpt-4o"
	}
	return NewOpenAIClient(settings)
}
