package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"aiResume/internal/ast"
	"aiResume/internal/jsonrepair"
	"aiResume/internal/llm"
)

// ErrLLMNotConfigured 表示生成服务尚未配置，调用方应提示用户先完成配置。
var ErrLLMNotConfigured = errors.New("llm not configured")

// Generator 独立于回合图之外，负责整棵结构树的生成与解析。
type Generator struct {
	resolver llm.Resolver
	logger   *slog.Logger
}

// NewGenerator 构造 Generator。
func NewGenerator(resolver llm.Resolver, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{resolver: resolver, logger: logger}
}

// GeneratedTemplate 是一次模板生成的产物。
type GeneratedTemplate struct {
	Name        string
	Description string
	AST         map[string]any
}

// GenerateTemplate 根据自然语言描述生成完整模板树；baseAST 非空时基于其修改。
// 输出经过容错 JSON 解析与节点 ID 补齐。
func (g *Generator) GenerateTemplate(ctx context.Context, prompt string, baseAST map[string]any) (GeneratedTemplate, error) {
	client, err := g.resolver.Client(ctx)
	if err != nil {
		return GeneratedTemplate{}, err
	}
	if client == nil {
		return GeneratedTemplate{}, ErrLLMNotConfigured
	}

	baseContext := ""
	if baseAST != nil {
		baseContext = fmt.Sprintf("## Base Template (modify based on this):\n```json\n%s\n```", jsonString(baseAST))
	}

	messages := []llm.Message{
		llm.SystemMessage("You are a professional resume template designer. Output only valid JSON."),
		llm.UserMessage(fmt.Sprintf(generateTemplatePrompt, prompt, baseContext), nil),
	}

	reply, err := client.Chat(ctx, messages)
	if err != nil {
		g.logger.Warn("template generation call failed", slog.Any("error", err))
		return GeneratedTemplate{}, fmt.Errorf("生成模板失败: %s", truncated(err))
	}

	result, err := jsonrepair.Parse(reply)
	if err != nil {
		return GeneratedTemplate{}, errors.New("无法解析 AI 返回的 JSON。响应可能被截断，请尝试简化模板需求。")
	}

	astMap, _ := result["ast"].(map[string]any)
	if root, ok := astMap["root"].(map[string]any); ok {
		ast.EnsureNodeIDsMap(root, "")
	}

	name, _ := result["name"].(string)
	description, _ := result["description"].(string)
	return GeneratedTemplate{Name: name, Description: description, AST: astMap}, nil
}

// ParseHTML 将 HTML/CSS 解析为模板结构树。
func (g *Generator) ParseHTML(ctx context.Context, htmlContent, cssContent string) (map[string]any, error) {
	client, err := g.resolver.Client(ctx)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrLLMNotConfigured
	}

	messages := []llm.Message{
		llm.SystemMessage("You are an HTML/CSS parser. Output only valid JSON."),
		llm.UserMessage(fmt.Sprintf(parseHTMLPrompt, htmlContent, cssContent), nil),
	}

	reply, err := client.Chat(ctx, messages)
	if err != nil {
		g.logger.Warn("html parse call failed", slog.Any("error", err))
		return nil, fmt.Errorf("解析 HTML 失败: %s", truncated(err))
	}

	result, err := jsonrepair.Parse(reply)
	if err != nil {
		return nil, errors.New("无法解析 AI 返回的 JSON。响应可能被截断。")
	}

	astMap, ok := result["ast"].(map[string]any)
	if !ok {
		return nil, errors.New("AI 返回的结果缺少 ast 字段。")
	}
	if root, ok := astMap["root"].(map[string]any); ok {
		ast.EnsureNodeIDsMap(root, "")
	}
	return astMap, nil
}
