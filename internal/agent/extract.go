package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"aiResume/internal/jsonrepair"
	"aiResume/internal/llm"
	"aiResume/internal/resume"
)

// ExtractResumeData 从纯文本简历中抽取结构化数据。
// 服务未配置或解析失败时返回空结构，不向上抛错（与上传流程的宽松语义一致）。
func (g *Generator) ExtractResumeData(ctx context.Context, text string) resume.Data {
	client, err := g.resolver.Client(ctx)
	if err != nil || client == nil {
		return resume.DefaultData()
	}

	messages := []llm.Message{
		llm.SystemMessage("You are a precise JSON extractor. Output only valid JSON."),
		llm.UserMessage(fmt.Sprintf(extractionPrompt, text), nil),
	}

	reply, err := client.Chat(ctx, messages)
	if err != nil {
		g.logger.Warn("resume extraction call failed", slog.Any("error", err))
		return resume.DefaultData()
	}

	var data resume.Data
	if err := json.Unmarshal([]byte(jsonrepair.Extract(reply)), &data); err != nil {
		g.logger.Warn("resume extraction parse failed", slog.Any("error", err))
		return resume.DefaultData()
	}
	if data.Sections == nil {
		data.Sections = []resume.Section{}
	}
	return data
}
