package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"aiResume/internal/database"
)

func newMultipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func newUploadContext(t *testing.T, filename string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	body, contentType := newMultipartUpload(t, filename, []byte("\x89PNG\r\n\x1a\n"))
	req := httptest.NewRequest(http.MethodPost, "/v1/assets/upload", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func TestUploadAsset_RejectsUnsupportedExtension(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t, "asset_ext")
	h := NewAssetHandler(db, newFakeStorage(), newFakeRateCounter(), testLogger(), "")

	c, w := newUploadContext(t, "payload.exe")
	h.UploadAsset(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestUploadAsset_RateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t, "asset_rate")
	counter := newFakeRateCounter()
	h := NewAssetHandler(db, newFakeStorage(), counter, testLogger(), "")

	// 预置计数到阈值
	for i := 0; i < uploadRateLimit; i++ {
		counter.counts["asset_uploads:192.0.2.1"]++
	}

	c, w := newUploadContext(t, "a.png")
	c.Request.RemoteAddr = "192.0.2.1:1234"
	h.UploadAsset(c)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGetAssetURL_ValidatesKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t, "asset_url")
	h := NewAssetHandler(db, newFakeStorage(), newFakeRateCounter(), testLogger(), "")

	cases := []struct {
		key  string
		want int
	}{
		{"assets/" + uuidLikeKey + ".png", http.StatusOK},
		{"assets/../secrets.png", http.StatusForbidden},
		{"exports/resumes/1/a.pdf", http.StatusForbidden},
		{"assets/a.exe", http.StatusForbidden},
		{"", http.StatusBadRequest},
	}
	for i, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/v1/assets/view?key="+tc.key, nil)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = req
		h.GetAssetURL(c)
		if w.Code != tc.want {
			t.Fatalf("case %d key=%q: expected %d got %d", i, tc.key, tc.want, w.Code)
		}
	}
}

const uuidLikeKey = "0c9c35fa-9f7c-4a57-9f4f-1f2a3b4c5d6e"

func TestDeleteAsset_RemovesObjectAndRecord(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t, "asset_delete")
	storage := newFakeStorage()
	objectKey := "assets/" + uuidLikeKey + ".png"
	storage.uploaded[objectKey] = []byte("img")
	if err := db.Create(&database.Asset{ObjectKey: objectKey, MIMEType: "image/png", SizeBytes: 3}).Error; err != nil {
		t.Fatalf("seed asset: %v", err)
	}

	h := NewAssetHandler(db, storage, newFakeRateCounter(), testLogger(), "")
	req := httptest.NewRequest(http.MethodDelete, "/v1/assets?key="+objectKey, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	h.DeleteAsset(c)
	c.Writer.WriteHeaderNow()

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.deleted) != 1 || storage.deleted[0] != objectKey {
		t.Fatalf("object not deleted from storage: %v", storage.deleted)
	}
	var count int64
	db.Model(&database.Asset{}).Count(&count)
	if count != 0 {
		t.Fatalf("asset record should be gone, got %d", count)
	}
}

func TestIsValidAssetObjectKey(t *testing.T) {
	valid := []string{
		"assets/abc.png",
		"assets/nested/ok.jpeg",
		"assets/" + uuidLikeKey + ".webp",
	}
	for _, key := range valid {
		if !isValidAssetObjectKey(key) {
			t.Errorf("expected %q to be valid", key)
		}
	}

	invalid := []string{
		"",
		"other/abc.png",
		"assets/../etc/passwd.png",
		"assets/a//b.png",
		"assets\\win.png",
		"assets/no-extension",
		"assets/script.svg",
		"assets/" + strings.Repeat("a", 200) + ".png",
	}
	for _, key := range invalid {
		if isValidAssetObjectKey(key) {
			t.Errorf("expected %q to be rejected", key)
		}
	}
}
