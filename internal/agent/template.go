package agent

import (
	"context"
	"fmt"
	"log/slog"

	"aiResume/internal/ast"
	"aiResume/internal/jsonrepair"
	"aiResume/internal/llm"
)

// 接受替换树后追加到响应末尾的确认后缀。
const templateUpdatedSuffix = "\n\n✅ 模板已更新，预览已刷新。"

// handleTemplate 处理结构树类请求。模型被要求返回应用全部修改后的完整树
// （整树替换，永不接受增量 diff）；树缺失 root 时保持现状，仅透出说明。
func (o *Orchestrator) handleTemplate(ctx context.Context, s *turnState) {
	client, err := o.resolver.Client(ctx)
	if err != nil || client == nil {
		s.response = msgLLMNotConfigured
		return
	}

	astJSON := "null"
	if s.templateAST != nil {
		astJSON = jsonString(s.templateAST)
	}

	prompt := fmt.Sprintf(templatePrompt, astJSON, s.dragContextJSON(), s.lastUserMessage())

	messages := []llm.Message{
		llm.SystemMessage("You are a template structure editor. Output only valid JSON. Respond in Chinese."),
		llm.UserMessage(prompt, nil),
	}

	reply, err := client.Chat(ctx, messages)
	if err != nil {
		o.logger.Warn("template update call failed", slog.Any("error", err))
		s.response = "模板更新失败：" + truncated(err)
		return
	}

	result, err := jsonrepair.Parse(reply)
	if err != nil {
		s.response = "无法处理模板更改，请重试。"
		return
	}

	s.response = "模板结构已更新。"
	if msg, ok := result["message"].(string); ok && msg != "" {
		s.response = msg
	}

	newAST, ok := result["template_ast"].(map[string]any)
	if ok && ast.HasRoot(newAST) {
		s.templateAST = newAST
		s.response += templateUpdatedSuffix
	}
}
