package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NotifyChannel 是 Redis Pub/Sub 通知频道，WebSocket 端订阅同名频道。
const NotifyChannel = "admin_notify"

// NotifyMessage 是统一的 WebSocket 消息协议（经 Redis Pub/Sub 转发给前端）。
// 字段名与前端解析保持一致。
type NotifyMessage struct {
	Kind          string `json:"kind"`
	Status        string `json:"status"`
	ResumeID      uint   `json:"resume_id,omitempty"`
	TemplateID    uint   `json:"template_id,omitempty"`
	ObjectKey     string `json:"object_key,omitempty"`
	CorrelationID string `json:"correlation_id"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}

func publishNotify(ctx context.Context, client *redis.Client, msg NotifyMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	if err := client.Publish(ctx, NotifyChannel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", NotifyChannel, err)
	}
	return nil
}
