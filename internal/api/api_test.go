package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yoloinfinity55/sparkpelican/internal/generator"
	"github.com/yoloinfinity55/sparkpelican/internal/postservice"
	"github.com/yoloinfinity55/sparkpelican/internal/storage"
	"github.com/yoloinfinity55/sparkpelican/internal/testutil"
)

type stubGenerator struct {
	calls chan string
	err   error
}

func (g *stubGenerator) Generate(_ context.Context, videoURL string, _ generator.Options) (*generator.Result, error) {
	if g.calls != nil {
		g.calls <- videoURL
	}
	if g.err != nil {
		return nil, g.err
	}
	return &generator.Result{Path: "2026-03-14-post.md", VideoID: "dQw4w9WgXcQ"}, nil
}

type recordingNotifier struct {
	events chan string
}

func (n *recordingNotifier) PublishGenerationStarted(videoID string) {
	n.events <- "started:" + videoID
}

func (n *recordingNotifier) PublishGenerationCompleted(videoID, path string) {
	n.events <- "completed:" + path
}

func (n *recordingNotifier) PublishGenerationFailed(videoID, reason string) {
	n.events <- "failed:" + videoID
}

// testEnv sets up a temp content dir, SQLite DB, service, and router.
// authToken empty means auth disabled.
func testEnv(t *testing.T, gen PostGenerator, notifier GenerationNotifier, authToken string) (*postservice.Service, storage.Provider, http.Handler) {
	t.Helper()

	_, store := testutil.TestContent(t)
	db := testutil.TestDB(t)

	svc := postservice.NewService(store, db)
	router := NewRouter(svc, gen, store, notifier, authToken != "", authToken, nil)
	return svc, store, router
}

func addPost(t *testing.T, svc *postservice.Service, store storage.Provider, path, content string) {
	t.Helper()
	if err := store.Write(path, []byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := svc.IndexFile(path, []byte(content)); err != nil {
		t.Fatal(err)
	}
}

const samplePost = `---
title: Sample Post
date: 2026-03-14T10:30:00
author: John Doe
tags: go, testing
slug: sample-post
youtube_id: dQw4w9WgXcQ
---

Body of the sample post.
`

func TestGenerateAccepted(t *testing.T) {
	gen := &stubGenerator{calls: make(chan string, 1)}
	notifier := &recordingNotifier{events: make(chan string, 4)}
	_, _, router := testEnv(t, gen, notifier, "")

	body, _ := json.Marshal(GenerateRequest{URL: "https://youtu.be/dQw4w9WgXcQ"})
	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp GenerateAccepted
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.VideoID != "dQw4w9WgXcQ" || resp.Status != "started" {
		t.Errorf("resp = %+v", resp)
	}

	select {
	case <-gen.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("generator never called")
	}
	want := []string{"started:dQw4w9WgXcQ", "completed:2026-03-14-post.md"}
	for _, ev := range want {
		select {
		case got := <-notifier.events:
			if got != ev {
				t.Errorf("event = %q, want %q", got, ev)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for %s", ev)
		}
	}
}

func TestGenerateFailurePublishesEvent(t *testing.T) {
	gen := &stubGenerator{err: errors.New("no transcript")}
	notifier := &recordingNotifier{events: make(chan string, 4)}
	_, _, router := testEnv(t, gen, notifier, "")

	body, _ := json.Marshal(GenerateRequest{URL: "dQw4w9WgXcQ"})
	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d", w.Code)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-notifier.events:
			if ev == "failed:dQw4w9WgXcQ" {
				return
			}
		case <-deadline:
			t.Fatal("failed event never published")
		}
	}
}

func TestGenerateBadRequests(t *testing.T) {
	_, _, router := testEnv(t, &stubGenerator{}, nil, "")

	cases := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"invalid json", `{`},
		{"no video id", `{"url": "https://example.com/nothing"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader([]byte(c.body)))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestGenerateUnconfigured(t *testing.T) {
	_, _, router := testEnv(t, nil, nil, "")

	body, _ := json.Marshal(GenerateRequest{URL: "dQw4w9WgXcQ"})
	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestValidateDocumentEndpoint(t *testing.T) {
	_, _, router := testEnv(t, nil, nil, "")

	body, _ := json.Marshal(ValidateRequest{Content: samplePost})
	req := httptest.NewRequest(http.MethodPost, "/validate", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var rep postservice.ValidationReport
	_ = json.Unmarshal(w.Body.Bytes(), &rep)
	if !rep.Valid {
		t.Errorf("valid post reported invalid: %v", rep.Errors)
	}

	body, _ = json.Marshal(ValidateRequest{Content: "no front matter"})
	req = httptest.NewRequest(http.MethodPost, "/validate", bytes.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	_ = json.Unmarshal(w.Body.Bytes(), &rep)
	if rep.Valid {
		t.Error("document without front matter reported valid")
	}
}

func TestTitleIssuesAndFix(t *testing.T) {
	svc, store, router := testEnv(t, nil, nil, "")
	addPost(t, svc, store, "quoted.md", "---\ntitle: \"Quoted Title\"\ndate: 2026-01-01\n---\n\nBody.\n")
	addPost(t, svc, store, "clean.md", samplePost)

	req := httptest.NewRequest(http.MethodGet, "/titles/issues", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("issues status = %d", w.Code)
	}
	var issues TitleIssuesResponse
	_ = json.Unmarshal(w.Body.Bytes(), &issues)
	if issues.Clean || len(issues.Issues) != 1 {
		t.Fatalf("issues = %+v", issues)
	}
	if issues.Issues[0].Path != "quoted.md" || issues.Issues[0].Line != 2 {
		t.Errorf("issue = %+v", issues.Issues[0])
	}

	req = httptest.NewRequest(http.MethodPost, "/titles/fix", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("fix status = %d", w.Code)
	}
	var fix TitleFixResponse
	_ = json.Unmarshal(w.Body.Bytes(), &fix)
	if len(fix.Fixed) != 1 || fix.Fixed[0].After != "title: Quoted Title" {
		t.Errorf("fix = %+v", fix)
	}

	// Tree is clean afterwards.
	req = httptest.NewRequest(http.MethodGet, "/titles/issues", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	_ = json.Unmarshal(w.Body.Bytes(), &issues)
	if !issues.Clean {
		t.Errorf("issues after fix = %+v", issues)
	}
}

func TestListAndGetPost(t *testing.T) {
	svc, store, router := testEnv(t, nil, nil, "")
	addPost(t, svc, store, "2026-03-14-sample-post.md", samplePost)

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list PostListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 1 || len(list.Posts) != 1 {
		t.Fatalf("list = %+v", list)
	}
	if list.Posts[0].Title != "Sample Post" || list.Posts[0].VideoID != "dQw4w9WgXcQ" {
		t.Errorf("item = %+v", list.Posts[0])
	}

	req = httptest.NewRequest(http.MethodGet, "/posts/2026-03-14-sample-post.md", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var post PostDetail
	_ = json.Unmarshal(w.Body.Bytes(), &post)
	if post.Slug != "sample-post" {
		t.Errorf("slug = %q", post.Slug)
	}
}

func TestGetPostNotFound(t *testing.T) {
	_, _, router := testEnv(t, nil, nil, "")
	req := httptest.NewRequest(http.MethodGet, "/posts/missing.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeletePost(t *testing.T) {
	svc, store, router := testEnv(t, nil, nil, "")
	addPost(t, svc, store, "doomed.md", samplePost)

	req := httptest.NewRequest(http.MethodDelete, "/posts/doomed.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if store.Exists("doomed.md") {
		t.Error("file still present after delete")
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	_, _, router := testEnv(t, nil, nil, "")
	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, _, router := testEnv(t, nil, nil, "secret")

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", w.Code)
	}
}

func TestImageUpload(t *testing.T) {
	_, store, router := testEnv(t, nil, nil, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "thumb.jpg")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte{0xff, 0xd8, 0xff})
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}
	if !store.Exists("images/thumb.jpg") {
		t.Error("uploaded image not on disk")
	}
}

func TestImageSafeName(t *testing.T) {
	h := NewImageHandler(t.TempDir())
	for _, bad := range []string{"", "../escape.jpg", "a/b.jpg", ".."} {
		if _, err := h.safeName(bad); err == nil {
			t.Errorf("safeName(%q) accepted", bad)
		}
	}
	if _, err := h.safeName("thumb.jpg"); err != nil {
		t.Errorf("safeName(thumb.jpg): %v", err)
	}
}
