package agent

import (
	"context"
	"log/slog"

	"aiResume/internal/llm"
)

// handleGeneral 处理普通问答：固定助手人设，原样转述模型回复，不改动任何状态。
func (o *Orchestrator) handleGeneral(ctx context.Context, s *turnState) {
	client, err := o.resolver.Client(ctx)
	if err != nil || client == nil {
		s.response = "您好！请先在设置页面配置 LLM 参数后，即可开始编辑简历。"
		return
	}

	messages := []llm.Message{
		llm.SystemMessage(generalSystemPrompt),
		llm.UserMessage(s.lastUserMessage(), nil),
	}

	reply, err := client.Chat(ctx, messages)
	if err != nil {
		o.logger.Warn("general chat call failed", slog.Any("error", err))
		s.response = "AI 服务调用失败：" + truncated(err)
		return
	}
	s.response = reply
}
