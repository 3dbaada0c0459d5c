package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const correlationIDKey = "correlationID"

// 客户端可通过任一 Header 传入已有的关联 ID；超长或缺失时服务端重新生成。
const maxCorrelationIDLength = 64

// CorrelationIDMiddleware 确保每个请求都有关联 ID，并原样回写到响应头。
// 对话回合入队的异步任务（缩略图、PDF 导出）沿用同一个 ID，方便跨进程追踪。
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Correlation-ID")
		if id == "" {
			id = c.GetHeader("X-Request-ID")
		}
		if id == "" || len(id) > maxCorrelationIDLength {
			id = uuid.NewString()
		}

		c.Set(correlationIDKey, id)
		c.Header("X-Correlation-ID", id)

		c.Next()
	}
}

// GetCorrelationID 从请求上下文取出关联 ID，不存在时返回空串。
func GetCorrelationID(c *gin.Context) string {
	if value, ok := c.Get(correlationIDKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
