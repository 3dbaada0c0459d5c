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
	"aiResume/internal/tasks"
)

type fakeGenerator struct {
	template agent.GeneratedTemplate
	parsed   map[string]any
	err      error
}

func (f *fakeGenerator) GenerateTemplate(_ context.Context, _ string, _ map[string]any) (agent.GeneratedTemplate, error) {
	if f.err != nil {
		return agent.GeneratedTemplate{}, f.err
	}
	return f.template, nil
}

func (f *fakeGenerator) ParseHTML(_ context.Context, _, _ string) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.parsed, nil
}

func seedTemplate(t *testing.T, db *gorm.DB, name string, isSystem bool) database.Template {
	t.Helper()
	model := database.Template{
		Name:     name,
		AST:      datatypes.JSON(`{"root":{"id":"root","tag":"div"}}`),
		IsSystem: isSystem,
	}
	if err := db.Create(&model).Error; err != nil {
		t.Fatalf("seed template: %v", err)
	}
	return model
}

func TestCreateTemplate_NormalizesASTAndEnqueuesPreview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t, "tpl_create")
	enqueuer := &fakeEnqueuer{}
	h := NewTemplateHandler(db, enqueuer, newFakeStorage(), &fakeGenerator{})

	body := map[string]any{
		"name": "双栏模板",
		"ast": map[string]any{
			"root": map[string]any{
				"tag": "div",
				"children": []map[string]any{
					{"tag": "h1", "data_path": "profile.name"},
				},
			},
		},
	}
	c, w := newJSONContext(t, http.MethodPost, "/v1/templates", body)
	h.CreateTemplate(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var model database.Template
	if err := db.First(&model).Error; err != nil {
		t.Fatalf("load template: %v", err)
	}
	var tpl map[string]any
	if err := json.Unmarshal(model.AST, &tpl); err != nil {
		t.Fatalf("decode stored ast: %v", err)
	}
	root, _ := tpl["root"].(map[string]any)
	if root == nil {
		t.Fatal("stored ast missing root")
	}
	if id, _ := root["id"].(string); id == "" {
		t.Fatal("root node id should be filled in before save")
	}

	if len(enqueuer.tasks) != 1 || enqueuer.tasks[0].Type() != tasks.TypeTemplatePreview {
		t.Fatalf("expected one preview task, got %v", enqueuer.tasks)
	}
}

func TestCreateTemplate_RejectsMissingRoot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t, "tpl_noroot")
	h := NewTemplateHandler(db, &fakeEnqueuer{}, newFakeStorage(), &fakeGenerator{})

	body := map[string]any{
		"name": "坏模板",
		"ast":  map[string]any{"tag": "div"},
	}
	c, w := newJSONContext(t, http.MethodPost, "/v1/templates", body)
	h.CreateTemplate(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateTemplate_SystemTemplateIsReadOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t, "tpl_system")
	seedTemplate(t, db, "经典单栏", true)
	h := NewTemplateHandler(db, &fakeEnqueuer{}, newFakeStorage(), &fakeGenerator{})

	c, w := newJSONContext(t, http.MethodPatch, "/v1/templates/1",
		map[string]any{"name": "改名"}, "id", "1")
	h.UpdateTemplate(c)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on update, got %d", w.Code)
	}

	c, w = newJSONContext(t, http.MethodDelete, "/v1/templates/1", nil, "id", "1")
	h.DeleteTemplate(c)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on delete, got %d", w.Code)
	}
}

func TestUpdateTemplate_ASTChangeReEnqueuesPreview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t, "tpl_update")
	seedTemplate(t, db, "自定义模板", false)
	enqueuer := &fakeEnqueuer{}
	h := NewTemplateHandler(db, enqueuer, newFakeStorage(), &fakeGenerator{})

	// 仅改名不触发缩略图重建
	c, w := newJSONContext(t, http.MethodPatch, "/v1/templates/1",
		map[string]any{"name": "改名"}, "id", "1")
	h.UpdateTemplate(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if len(enqueuer.tasks) != 0 {
		t.Fatalf("rename should not enqueue preview, got %d tasks", len(enqueuer.tasks))
	}

	c, w = newJSONContext(t, http.MethodPatch, "/v1/templates/1",
		map[string]any{"ast": map[string]any{"root": map[string]any{"tag": "section"}}}, "id", "1")
	h.UpdateTemplate(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if len(enqueuer.tasks) != 1 {
		t.Fatalf("ast change should enqueue preview, got %d tasks", len(enqueuer.tasks))
	}
}

func TestGenerateTemplate_LLMNotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t, "tpl_generate_nollm")
	h := NewTemplateHandler(db, &fakeEnqueuer{}, newFakeStorage(), &fakeGenerator{err: agent.ErrLLMNotConfigured})

	c, w := newJSONContext(t, http.MethodPost, "/v1/templates/generate",
		map[string]any{"prompt": "做一个简洁的双栏模板"})
	h.GenerateTemplate(c)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d body=%s", w.Code, w.Body.String())
	}
	var resp map[string]string
	decodeBody(t, w, &resp)
	if resp["error"] != "请先在设置页面配置 LLM 参数。" {
		t.Fatalf("unexpected error message: %q", resp["error"])
	}
}

func TestGenerateTemplate_SavesAndEnqueues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t, "tpl_generate")
	enqueuer := &fakeEnqueuer{}
	gen := &fakeGenerator{
		template: agent.GeneratedTemplate{
			Name:        "生成的模板",
			Description: "AI 生成",
			AST:         map[string]any{"root": map[string]any{"id": "root", "tag": "div"}},
		},
	}
	h := NewTemplateHandler(db, enqueuer, newFakeStorage(), gen)

	c, w := newJSONContext(t, http.MethodPost, "/v1/templates/generate",
		map[string]any{"prompt": "做一个现代风格的模板"})
	h.GenerateTemplate(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}

	var model database.Template
	if err := db.First(&model).Error; err != nil {
		t.Fatalf("generated template not saved: %v", err)
	}
	if model.Name != "生成的模板" {
		t.Fatalf("unexpected template name: %q", model.Name)
	}
	if len(enqueuer.tasks) != 1 {
		t.Fatalf("expected preview task after generation, got %d", len(enqueuer.tasks))
	}
}

func TestGetThumbnailLink(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t, "tpl_thumb")
	model := seedTemplate(t, db, "自定义模板", false)
	h := NewTemplateHandler(db, &fakeEnqueuer{}, newFakeStorage(), &fakeGenerator{})

	c, w := newJSONContext(t, http.MethodGet, "/v1/templates/1/thumbnail-link", nil, "id", "1")
	h.GetThumbnailLink(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without thumbnail, got %d", w.Code)
	}

	if err := db.Model(&model).Update("thumbnail_key", "thumbnails/templates/1/preview.jpg").Error; err != nil {
		t.Fatalf("set thumbnail key: %v", err)
	}

	c, w = newJSONContext(t, http.MethodGet, "/v1/templates/1/thumbnail-link", nil, "id", "1")
	h.GetThumbnailLink(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
}
