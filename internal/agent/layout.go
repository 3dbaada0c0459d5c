package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"aiResume/internal/jsonrepair"
	"aiResume/internal/llm"
)

// handleLayout 处理外观类请求：让模型只返回需要变更的布局键，部分合并进配置。
func (o *Orchestrator) handleLayout(ctx context.Context, s *turnState) {
	client, err := o.resolver.Client(ctx)
	if err != nil || client == nil {
		s.response = msgLLMNotConfigured
		return
	}

	prompt := fmt.Sprintf(layoutPrompt, jsonString(s.layoutConfig), s.lastUserMessage())
	if len(s.images) > 0 {
		prompt += layoutImageHint
	}

	messages := []llm.Message{
		llm.SystemMessage("You are a JSON layout configurator. Output only valid JSON."),
		llm.UserMessage(prompt, s.images),
	}

	reply, err := client.Chat(ctx, messages)
	if err != nil {
		o.logger.Warn("layout update call failed", slog.Any("error", err))
		s.response = "布局更新失败：" + truncated(err)
		return
	}

	patch, err := jsonrepair.Parse(reply)
	if err != nil {
		s.response = "无法解析布局更改，请重试。"
		return
	}

	if errMsg, ok := patch["error"]; ok {
		s.response = fmt.Sprint(errMsg)
		return
	}

	changed := s.layoutConfig.Merge(patch)
	s.response = "布局已更新：" + strings.Join(changed, ", ")
}
