package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yoloinfinity55/sparkpelican/internal/apperr"
	"github.com/yoloinfinity55/sparkpelican/internal/generator"
	"github.com/yoloinfinity55/sparkpelican/internal/normalizer"
	"github.com/yoloinfinity55/sparkpelican/internal/postservice"
	"github.com/yoloinfinity55/sparkpelican/internal/storage"
	"github.com/yoloinfinity55/sparkpelican/internal/transcript"
)

// generateTimeout bounds one background generation run.
const generateTimeout = 10 * time.Minute

// PostGenerator runs one video-to-post generation.
type PostGenerator interface {
	Generate(ctx context.Context, videoURL string, opts generator.Options) (*generator.Result, error)
}

// GenerationNotifier publishes generation lifecycle events.
type GenerationNotifier interface {
	PublishGenerationStarted(videoID string)
	PublishGenerationCompleted(videoID, path string)
	PublishGenerationFailed(videoID, reason string)
}

// Handler holds API route handlers.
type Handler struct {
	svc      *postservice.Service
	gen      PostGenerator
	store    storage.Provider
	notifier GenerationNotifier // may be nil
}

// NewHandler creates a new Handler. gen may be nil when generation is not
// configured (no API keys); the generate endpoint then returns 503.
func NewHandler(svc *postservice.Service, gen PostGenerator, store storage.Provider, notifier GenerationNotifier) *Handler {
	return &Handler{svc: svc, gen: gen, store: store, notifier: notifier}
}

// postPath extracts the post path from the URL (everything after /api/posts/).
// Supports encoded slashes from OpenAPI clients (e.g. drafts%2Fpost.md).
func postPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Generate handles POST /api/generate. The run happens in the background;
// progress is reported over SSE as generation.* events.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	if h.gen == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("generation is not configured"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("url is required"))
		return
	}
	videoID := transcript.ExtractVideoID(req.URL)
	if videoID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("no video id found in url"))
		return
	}

	opts := generator.Options{
		Title:    req.Title,
		Category: req.Category,
		Tags:     req.Tags,
		Language: req.Language,
		Force:    req.Force,
	}

	if h.notifier != nil {
		h.notifier.PublishGenerationStarted(videoID)
	}
	go h.runGeneration(videoID, req.URL, opts)

	writeJSON(w, http.StatusAccepted, GenerateAccepted{VideoID: videoID, Status: "started"})
}

// runGeneration executes one generation run detached from the request.
func (h *Handler) runGeneration(videoID, videoURL string, opts generator.Options) {
	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	res, err := h.gen.Generate(ctx, videoURL, opts)
	if err != nil {
		slog.Error("generation failed", slog.String("video", videoID), slog.String("error", err.Error()))
		if h.notifier != nil {
			h.notifier.PublishGenerationFailed(videoID, err.Error())
		}
		return
	}
	if h.notifier != nil {
		h.notifier.PublishGenerationCompleted(videoID, res.Path)
	}
}

// Validate handles POST /api/validate. It checks a markdown document against
// the Pelican front-matter contract without touching the content tree.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	writeJSON(w, http.StatusOK, postservice.ValidateDocument(req.Content))
}

// TitleIssues handles GET /api/titles/issues. It scans the content tree for
// quoted titles without modifying anything.
func (h *Handler) TitleIssues(w http.ResponseWriter, r *http.Request) {
	result, err := normalizer.Validate(h.store, "")
	if err != nil {
		slog.Error("title scan failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, TitleIssuesResponse{
		Issues: toTitleIssues(result.Issues),
		Clean:  result.OK(),
	})
}

// FixTitles handles POST /api/titles/fix. It rewrites quoted title lines in
// place and reports what changed.
func (h *Handler) FixTitles(w http.ResponseWriter, r *http.Request) {
	fixed, issues, err := normalizer.Fix(h.store, "")
	if err != nil {
		slog.Error("title fix failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	resp := TitleFixResponse{Fixed: []FixedTitle{}, Errors: toTitleIssues(issues)}
	for _, f := range fixed {
		resp.Fixed = append(resp.Fixed, FixedTitle{
			Path:   f.Path,
			Line:   f.Line,
			Before: f.Before,
			After:  f.After,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func toTitleIssues(issues []normalizer.Issue) []TitleIssue {
	out := make([]TitleIssue, len(issues))
	for i, iss := range issues {
		out[i] = TitleIssue{
			Path:        iss.Path,
			Line:        iss.Line,
			Kind:        iss.Kind,
			Description: iss.Description(),
		}
	}
	return out
}

// ListPosts handles GET /api/posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	tag := q.Get("tag")
	sort := q.Get("sort")

	items, total, err := h.svc.ListPosts(r.Context(), limit, offset, tag, sort)
	if err != nil {
		slog.Error("list posts failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: items, Total: total})
}

// GetPost handles GET /api/posts/*.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	path := postPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	post, err := h.svc.GetPost(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get post failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /api/posts/*.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	path := postPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeletePost(r.Context(), path); err != nil {
		slog.Error("delete post failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}
