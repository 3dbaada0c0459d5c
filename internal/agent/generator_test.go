package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestGenerateTemplate(t *testing.T) {
	reply := "```json\n" + `{
		"name": "极简模板",
		"description": "单栏极简风格",
		"ast": {
			"version": "1.0",
			"root": {
				"id": "root",
				"type": "root",
				"tag": "div",
				"children": [
					{"type": "text", "tag": "h1", "content": "{{profile.name}}"}
				]
			}
		}
	}` + "\n```"

	client := &fakeClient{calls: []fakeCall{{reply: reply}}}
	g := NewGenerator(&fakeResolver{client: client}, nil)

	result, err := g.GenerateTemplate(context.Background(), "做一个极简模板", nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if result.Name != "极简模板" {
		t.Fatalf("name = %q", result.Name)
	}

	root := result.AST["root"].(map[string]any)
	child := root["children"].([]any)[0].(map[string]any)
	id, _ := child["id"].(string)
	if !strings.HasPrefix(id, "root-0-") {
		t.Fatalf("missing node id not assigned: %q", id)
	}
}

func TestGenerateTemplate_NotConfigured(t *testing.T) {
	g := NewGenerator(&fakeResolver{client: nil}, nil)

	_, err := g.GenerateTemplate(context.Background(), "随便", nil)
	if !errors.Is(err, ErrLLMNotConfigured) {
		t.Fatalf("expected ErrLLMNotConfigured, got %v", err)
	}
}

func TestGenerateTemplate_BaseASTEmbedded(t *testing.T) {
	client := &fakeClient{calls: []fakeCall{{reply: `{"name":"n","description":"d","ast":{"root":{"id":"root"}}}`}}}
	g := NewGenerator(&fakeResolver{client: client}, nil)

	base := map[string]any{"root": map[string]any{"id": "base-root"}}
	if _, err := g.GenerateTemplate(context.Background(), "基于现有模板调整", base); err != nil {
		t.Fatalf("generate: %v", err)
	}

	prompt := client.received[0][1].Text
	if !strings.Contains(prompt, "base-root") {
		t.Fatalf("base template missing from prompt")
	}
}

func TestGenerateTemplate_TruncatedReplyRepaired(t *testing.T) {
	// 模拟 token 上限导致的尾部截断（括号顺序可被补全恢复）
	reply := `{"name": "测试", "description": "d", "ast": {"version": "1.0", "tags": ["a"`
	client := &fakeClient{calls: []fakeCall{{reply: reply}}}
	g := NewGenerator(&fakeResolver{client: client}, nil)

	result, err := g.GenerateTemplate(context.Background(), "x", nil)
	if err != nil {
		t.Fatalf("repair failed: %v", err)
	}
	if result.Name != "测试" {
		t.Fatalf("prefix lost: %q", result.Name)
	}
}

func TestGenerateTemplate_Unrecoverable(t *testing.T) {
	client := &fakeClient{calls: []fakeCall{{reply: "这不是 JSON"}}}
	g := NewGenerator(&fakeResolver{client: client}, nil)

	if _, err := g.GenerateTemplate(context.Background(), "x", nil); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParseHTML(t *testing.T) {
	client := &fakeClient{calls: []fakeCall{{reply: `{"ast":{"root":{"id":"root","tag":"div"}}}`}}}
	g := NewGenerator(&fakeResolver{client: client}, nil)

	astMap, err := g.ParseHTML(context.Background(), "<div>hi</div>", ".a{}")
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	if astMap["root"].(map[string]any)["id"] != "root" {
		t.Fatalf("ast missing: %v", astMap)
	}
}

func TestExtractResumeData(t *testing.T) {
	reply := `{"profile":{"name":"李四","email":"a@b.c","phone":"123","summary":"摘要"},"sections":[{"id":"exp-1","type":"experience","content":{"company":"ACME"}}]}`
	client := &fakeClient{calls: []fakeCall{{reply: reply}}}
	g := NewGenerator(&fakeResolver{client: client}, nil)

	data := g.ExtractResumeData(context.Background(), "李四的简历……")
	if data.Profile.Name != "李四" {
		t.Fatalf("profile not extracted: %v", data.Profile)
	}
	if len(data.Sections) != 1 || data.Sections[0].Type != "experience" {
		t.Fatalf("sections not extracted: %v", data.Sections)
	}
}

func TestExtractResumeData_FailureReturnsEmpty(t *testing.T) {
	client := &fakeClient{calls: []fakeCall{{err: errors.New("boom")}}}
	g := NewGenerator(&fakeResolver{client: client}, nil)

	data := g.ExtractResumeData(context.Background(), "文本")
	if data.Profile.Name != "" || len(data.Sections) != 0 {
		t.Fatalf("expected empty data, got %v", data)
	}
}
