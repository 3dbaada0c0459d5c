// Package llm 封装对话式文本生成服务的调用。
package llm

import "context"

// 消息角色。
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ImageData 表示随消息附带的内联图片。
type ImageData struct {
	Base64   string `json:"base64"`
	MIMEType string `json:"mime_type"`
}

// Message 是一条带角色的消息，文本之外可携带若干内联图片。
type Message struct {
	Role   string
	Text   string
	Images []ImageData
}

// SystemMessage 构造 system 角色消息。
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Text: text}
}

// UserMessage 构造 user 角色消息，images 可为空。
func UserMessage(text string, images []ImageData) Message {
	return Message{Role: RoleUser, Text: text, Images: images}
}

// Client 是生成服务的抽象，便于在测试中替换。
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Resolver 按当前配置解析出可用的 Client。
// 未配置 API Key 时返回 (nil, nil)，调用方据此走未配置分支。
type Resolver interface {
	Client(ctx context.Context) (Client, error)
}
