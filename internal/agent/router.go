package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"aiResume/internal/llm"
)

// route 对最后一条用户消息做意图分类，结果写入 state.intent。
// 分类失败一律降级为 general，不中断回合。
func (o *Orchestrator) route(ctx context.Context, s *turnState) {
	client, err := o.resolver.Client(ctx)
	if err != nil || client == nil {
		s.intent = IntentGeneral
		if err == nil {
			s.response = "请先在设置页面配置 LLM 参数。"
		} else {
			s.response = "AI 服务调用失败，请检查 LLM 配置。错误：" + truncated(err)
		}
		return
	}

	prompt := fmt.Sprintf(routerPrompt,
		s.lastUserMessage(),
		s.focusedSection(),
		s.editMode,
		s.dragContextJSON(),
	)
	if len(s.images) > 0 {
		prompt += routerImageHint
	}

	// 分类是单轮指令，不携带会话历史
	reply, err := client.Chat(ctx, []llm.Message{llm.UserMessage(prompt, nil)})
	if err != nil {
		o.logger.Warn("intent classification failed", slog.Any("error", err))
		s.intent = IntentGeneral
		s.response = "AI 服务调用失败，请检查 LLM 配置。错误：" + truncated(err)
		return
	}

	switch intent := Intent(strings.ToLower(strings.TrimSpace(reply))); intent {
	case IntentLayout, IntentContent, IntentTemplate, IntentGeneral:
		s.intent = intent
	default:
		s.intent = IntentGeneral
	}
}
