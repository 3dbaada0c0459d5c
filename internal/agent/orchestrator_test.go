package agent

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"aiResume/internal/llm"
	"aiResume/internal/resume"
)

type fakeCall struct {
	reply string
	err   error
}

// fakeClient 按顺序消费预置的回复，同时记录收到的消息序列。
type fakeClient struct {
	calls    []fakeCall
	received [][]llm.Message
}

func (f *fakeClient) Chat(_ context.Context, messages []llm.Message) (string, error) {
	f.received = append(f.received, messages)
	if len(f.calls) == 0 {
		return "", errors.New("fakeClient: no scripted reply")
	}
	call := f.calls[0]
	f.calls = f.calls[1:]
	return call.reply, call.err
}

type fakeResolver struct {
	client llm.Client
}

func (f *fakeResolver) Client(context.Context) (llm.Client, error) {
	return f.client, nil
}

func newTestOrchestrator(calls ...fakeCall) (*Orchestrator, *fakeClient) {
	client := &fakeClient{calls: calls}
	return NewOrchestrator(&fakeResolver{client: client}, nil), client
}

func baseInput() TurnInput {
	return TurnInput{
		ThreadID: "resume-1",
		Message:  "改一下主题",
		ResumeData: map[string]any{
			"profile": map[string]any{"name": "张三"},
			"sections": []any{
				map[string]any{
					"id":      "exp-1",
					"type":    "experience",
					"content": map[string]any{"description": "旧描述"},
				},
			},
		},
		LayoutConfig: resume.LayoutConfig{
			"theme":         "modern-blue",
			"font_size":     "14px",
			"primary_color": "#2563eb",
		},
	}
}

func TestRun_LayoutMerge(t *testing.T) {
	o, _ := newTestOrchestrator(
		fakeCall{reply: "layout"},
		fakeCall{reply: `{"theme":"classic-black","font_size":"16px"}`},
	)

	input := baseInput()
	input.Message = "换成经典黑主题，字号 16px"
	result := o.Run(context.Background(), input)

	if result.Intent != IntentLayout {
		t.Fatalf("intent = %s", result.Intent)
	}
	if result.LayoutConfig["theme"] != "classic-black" || result.LayoutConfig["font_size"] != "16px" {
		t.Fatalf("layout not merged: %v", result.LayoutConfig)
	}
	if result.LayoutConfig["primary_color"] != "#2563eb" {
		t.Fatalf("untouched key changed: %v", result.LayoutConfig)
	}
	if !strings.Contains(result.Message, "theme") || !strings.Contains(result.Message, "font_size") {
		t.Fatalf("changed keys missing from response: %q", result.Message)
	}
}

func TestRun_LayoutErrorReplyLeavesConfigUntouched(t *testing.T) {
	o, _ := newTestOrchestrator(
		fakeCall{reply: "layout"},
		fakeCall{reply: `{"error":"cannot apply a theme that does not exist"}`},
	)

	input := baseInput()
	want := resume.LayoutConfig{}
	for k, v := range input.LayoutConfig {
		want[k] = v
	}

	result := o.Run(context.Background(), input)

	if result.Message != "cannot apply a theme that does not exist" {
		t.Fatalf("error not surfaced: %q", result.Message)
	}
	if !reflect.DeepEqual(result.LayoutConfig, want) {
		t.Fatalf("config mutated: %v", result.LayoutConfig)
	}
}

func TestRun_LayoutParseFailure(t *testing.T) {
	o, _ := newTestOrchestrator(
		fakeCall{reply: "layout"},
		fakeCall{reply: "抱歉，我不能输出 JSON"},
	)

	result := o.Run(context.Background(), baseInput())

	if result.Message != "无法解析布局更改，请重试。" {
		t.Fatalf("unexpected response: %q", result.Message)
	}
	if result.LayoutConfig["theme"] != "modern-blue" {
		t.Fatalf("config mutated on parse failure: %v", result.LayoutConfig)
	}
}

func TestRun_ContentUpdates(t *testing.T) {
	o, _ := newTestOrchestrator(
		fakeCall{reply: "content"},
		fakeCall{reply: `{"message":"done","updates":[{"path":"sections.0.content.description","value":"Led 5 engineers..."}]}`},
	)

	result := o.Run(context.Background(), baseInput())

	if result.Message != "done" {
		t.Fatalf("message = %q", result.Message)
	}
	section := result.ResumeData["sections"].([]any)[0].(map[string]any)
	if section["content"].(map[string]any)["description"] != "Led 5 engineers..." {
		t.Fatalf("update not applied: %v", section)
	}
	if result.ResumeData["profile"].(map[string]any)["name"] != "张三" {
		t.Fatalf("profile changed: %v", result.ResumeData)
	}
}

func TestRun_ContentBadPathSkipped(t *testing.T) {
	o, _ := newTestOrchestrator(
		fakeCall{reply: "content"},
		fakeCall{reply: `{"message":"部分更新","updates":[
			{"path":"sections.9.content.description","value":"不可达"},
			{"path":"profile.summary","value":"资深后端工程师"}
		]}`},
	)

	result := o.Run(context.Background(), baseInput())

	profile := result.ResumeData["profile"].(map[string]any)
	if profile["summary"] != "资深后端工程师" {
		t.Fatalf("later update lost after bad path: %v", profile)
	}
	section := result.ResumeData["sections"].([]any)[0].(map[string]any)
	if section["content"].(map[string]any)["description"] != "旧描述" {
		t.Fatalf("out-of-bounds path mutated data: %v", section)
	}
}

func TestRun_ContentDefaultMessage(t *testing.T) {
	o, _ := newTestOrchestrator(
		fakeCall{reply: "content"},
		fakeCall{reply: `{"updates":[]}`},
	)

	result := o.Run(context.Background(), baseInput())
	if result.Message != "内容已更新。" {
		t.Fatalf("default message missing: %q", result.Message)
	}
}

func TestRun_TemplateReplacement(t *testing.T) {
	o, _ := newTestOrchestrator(
		fakeCall{reply: "template"},
		fakeCall{reply: `{"message":"已调整结构","template_ast":{"root":{"id":"root","tag":"div"}}}`},
	)

	input := baseInput()
	input.TemplateAST = map[string]any{"root": map[string]any{"id": "old-root"}}
	result := o.Run(context.Background(), input)

	root := result.TemplateAST["root"].(map[string]any)
	if root["id"] != "root" {
		t.Fatalf("tree not replaced: %v", result.TemplateAST)
	}
	if !strings.HasSuffix(result.Message, templateUpdatedSuffix) {
		t.Fatalf("confirmation suffix missing: %q", result.Message)
	}
}

func TestRun_TemplateNullKeepsTree(t *testing.T) {
	o, _ := newTestOrchestrator(
		fakeCall{reply: "template"},
		fakeCall{reply: `{"message":"该操作暂不支持","template_ast":null}`},
	)

	input := baseInput()
	input.TemplateAST = map[string]any{"root": map[string]any{"id": "old-root"}}
	result := o.Run(context.Background(), input)

	if result.TemplateAST["root"].(map[string]any)["id"] != "old-root" {
		t.Fatalf("tree replaced despite null ast: %v", result.TemplateAST)
	}
	if result.Message != "该操作暂不支持" {
		t.Fatalf("message = %q", result.Message)
	}
}

func TestRun_TemplateMissingRootRejected(t *testing.T) {
	o, _ := newTestOrchestrator(
		fakeCall{reply: "template"},
		fakeCall{reply: `{"message":"ok","template_ast":{"version":"1.0"}}`},
	)

	input := baseInput()
	input.TemplateAST = map[string]any{"root": map[string]any{"id": "old-root"}}
	result := o.Run(context.Background(), input)

	if result.TemplateAST["root"].(map[string]any)["id"] != "old-root" {
		t.Fatalf("rootless tree accepted: %v", result.TemplateAST)
	}
}

func TestRun_InvalidIntentFallsBackToGeneral(t *testing.T) {
	o, _ := newTestOrchestrator(
		fakeCall{reply: "banana"},
		fakeCall{reply: "有什么可以帮您？"},
	)

	result := o.Run(context.Background(), baseInput())

	if result.Intent != IntentGeneral {
		t.Fatalf("intent = %s", result.Intent)
	}
	if result.Message != "有什么可以帮您？" {
		t.Fatalf("general reply not verbatim: %q", result.Message)
	}
}

func TestRun_RouterErrorStillRunsGeneral(t *testing.T) {
	o, client := newTestOrchestrator(
		fakeCall{err: errors.New("connection refused")},
		fakeCall{reply: "你好！"},
	)

	result := o.Run(context.Background(), baseInput())

	if result.Intent != IntentGeneral {
		t.Fatalf("intent = %s", result.Intent)
	}
	// 分类与问答是独立的失败域：路由失败后 general 仍发起自己的调用
	if len(client.received) != 2 {
		t.Fatalf("expected 2 llm calls, got %d", len(client.received))
	}
	if result.Message != "你好！" {
		t.Fatalf("general reply lost: %q", result.Message)
	}
}

func TestRun_NotConfigured(t *testing.T) {
	o := NewOrchestrator(&fakeResolver{client: nil}, nil)

	result := o.Run(context.Background(), baseInput())

	if result.Intent != IntentGeneral {
		t.Fatalf("intent = %s", result.Intent)
	}
	if !strings.Contains(result.Message, "配置") {
		t.Fatalf("configure hint missing: %q", result.Message)
	}
}

func TestRun_AppendsMessages(t *testing.T) {
	o, _ := newTestOrchestrator(
		fakeCall{reply: "general"},
		fakeCall{reply: "回答"},
	)

	input := baseInput()
	input.Messages = []ChatMessage{{Role: "user", Content: "之前的问题"}, {Role: "assistant", Content: "之前的回答"}}
	result := o.Run(context.Background(), input)

	if len(result.Messages) != 4 {
		t.Fatalf("message count = %d", len(result.Messages))
	}
	if result.Messages[2].Role != "user" || result.Messages[2].Content != input.Message {
		t.Fatalf("user message not appended: %v", result.Messages[2])
	}
	last := result.Messages[3]
	if last.Role != "assistant" || last.Content != "回答" {
		t.Fatalf("assistant message not appended: %v", last)
	}
}

func TestRun_EditModeBiasEmbeddedInRouterPrompt(t *testing.T) {
	o, client := newTestOrchestrator(
		fakeCall{reply: "layout"},
		fakeCall{reply: `{}`},
	)

	input := baseInput()
	input.EditMode = EditModeLayout
	o.Run(context.Background(), input)

	routerMsg := client.received[0][0].Text
	if !strings.Contains(routerMsg, "Current edit mode: layout") {
		t.Fatalf("edit mode missing from router prompt: %q", routerMsg)
	}
}
