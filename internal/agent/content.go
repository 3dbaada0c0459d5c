package agent

import (
	"context"
	"fmt"
	"log/slog"

	"aiResume/internal/jsonrepair"
	"aiResume/internal/llm"
	"aiResume/internal/resume"
)

// handleContent 处理文本内容类请求：模型返回 (path, value) 更新序列，
// 逐条用路径补丁写入简历数据，单条失败不影响后续。
func (o *Orchestrator) handleContent(ctx context.Context, s *turnState) {
	client, err := o.resolver.Client(ctx)
	if err != nil || client == nil {
		s.response = msgLLMNotConfigured
		return
	}

	prompt := fmt.Sprintf(contentPrompt,
		jsonString(s.resumeData),
		s.lastUserMessage(),
		s.focusedSection(),
		s.dragContextJSON(),
	)

	messages := []llm.Message{
		llm.SystemMessage("You are a professional resume editor. Output only valid JSON. Respond in Chinese."),
		llm.UserMessage(prompt, s.images),
	}

	reply, err := client.Chat(ctx, messages)
	if err != nil {
		o.logger.Warn("content update call failed", slog.Any("error", err))
		s.response = "内容更新失败：" + truncated(err)
		return
	}

	result, err := jsonrepair.Parse(reply)
	if err != nil {
		s.response = "无法处理内容更改，请重试。"
		return
	}

	s.response = "内容已更新。"
	if msg, ok := result["message"].(string); ok && msg != "" {
		s.response = msg
	}

	updates, _ := result["updates"].([]any)
	for _, raw := range updates {
		update, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		path, _ := update["path"].(string)
		value := update["value"]
		if path == "" || value == nil {
			continue
		}
		resume.ApplyPath(s.resumeData, path, value)
	}
}
