package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"aiResume/internal/agent"
	"aiResume/internal/database"
	"aiResume/internal/resume"
)

type fakeTurnRunner struct {
	lastInput agent.TurnInput
	result    agent.TurnResult
}

func (f *fakeTurnRunner) Run(_ context.Context, input agent.TurnInput) agent.TurnResult {
	f.lastInput = input
	return f.result
}

func seedResume(t *testing.T, db *gorm.DB, title string) database.Resume {
	t.Helper()
	doc := database.Resume{
		Title:        title,
		ResumeData:   datatypes.JSON(mustJSON(t, map[string]any{"name": "张三"})),
		LayoutConfig: datatypes.JSON(mustJSON(t, resume.DefaultLayoutConfig())),
		TemplateAST:  datatypes.JSON(mustJSON(t, map[string]any{"root": map[string]any{"id": "root", "tag": "div"}})),
		Messages:     datatypes.JSON([]byte("[]")),
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("seed resume: %v", err)
	}
	return doc
}

func TestChat_PersistsTurnAndSnapshotsVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t, "chat_turn")
	doc := seedResume(t, db, "测试简历")

	runner := &fakeTurnRunner{
		result: agent.TurnResult{
			Message:      "已将姓名改为李四。",
			Intent:       agent.IntentContent,
			ResumeData:   map[string]any{"name": "李四"},
			LayoutConfig: resume.DefaultLayoutConfig(),
			TemplateAST:  map[string]any{"root": map[string]any{"id": "root", "tag": "div"}},
			Messages: []agent.ChatMessage{
				{Role: "user", Content: "把姓名改成李四"},
				{Role: "assistant", Content: "已将姓名改为李四。"},
			},
		},
	}
	h := NewChatHandler(db, runner)

	c, w := newJSONContext(t, http.MethodPost, "/v1/resumes/1/chat",
		map[string]any{"message": "把姓名改成李四"}, "id", "1")
	h.Chat(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp chatResponse
	decodeBody(t, w, &resp)
	if resp.Reply != "已将姓名改为李四。" {
		t.Fatalf("unexpected reply: %q", resp.Reply)
	}
	if resp.Intent != string(agent.IntentContent) {
		t.Fatalf("unexpected intent: %q", resp.Intent)
	}
	if resp.ResumeData["name"] != "李四" {
		t.Fatalf("resume data not updated in response: %v", resp.ResumeData)
	}

	// 回合输入来自持久化状态
	if runner.lastInput.ThreadID != "1" {
		t.Fatalf("unexpected thread id: %q", runner.lastInput.ThreadID)
	}
	if runner.lastInput.ResumeData["name"] != "张三" {
		t.Fatalf("runner should see pre-turn data, got %v", runner.lastInput.ResumeData)
	}

	// 回合前快照了旧数据
	var version database.ResumeVersion
	if err := db.Where("resume_id = ?", doc.ID).First(&version).Error; err != nil {
		t.Fatalf("expected version snapshot: %v", err)
	}
	if version.VersionNumber != 1 {
		t.Fatalf("expected version 1, got %d", version.VersionNumber)
	}
	var snapshot map[string]any
	if err := json.Unmarshal(version.ResumeData, &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot["name"] != "张三" {
		t.Fatalf("snapshot should hold pre-turn data, got %v", snapshot)
	}

	// 文档本体落库了新状态
	var updated database.Resume
	if err := db.First(&updated, doc.ID).Error; err != nil {
		t.Fatalf("reload resume: %v", err)
	}
	var persisted map[string]any
	if err := json.Unmarshal(updated.ResumeData, &persisted); err != nil {
		t.Fatalf("decode persisted data: %v", err)
	}
	if persisted["name"] != "李四" {
		t.Fatalf("persisted data not updated: %v", persisted)
	}
	var messages []agent.ChatMessage
	if err := json.Unmarshal(updated.Messages, &messages); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(messages))
	}
}

func TestChat_ResumeNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t, "chat_missing")
	h := NewChatHandler(db, &fakeTurnRunner{})

	c, w := newJSONContext(t, http.MethodPost, "/v1/resumes/99/chat",
		map[string]any{"message": "hi"}, "id", "99")
	h.Chat(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}

func TestChat_RejectsInvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t, "chat_badid")
	h := NewChatHandler(db, &fakeTurnRunner{})

	c, w := newJSONContext(t, http.MethodPost, "/v1/resumes/abc/chat",
		map[string]any{"message": "hi"}, "id", "abc")
	h.Chat(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestChat_RejectsEmptyMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t, "chat_empty")
	seedResume(t, db, "测试简历")
	h := NewChatHandler(db, &fakeTurnRunner{})

	c, w := newJSONContext(t, http.MethodPost, "/v1/resumes/1/chat",
		map[string]any{"message": ""}, "id", "1")
	h.Chat(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}
