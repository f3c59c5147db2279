// Package generator turns a YouTube video into a Pelican markdown post.
//
// It fetches the transcript, asks the language model for a title, summary,
// body, and tags, assembles the front matter, and writes the post into the
// content directory. Every model call has a deterministic fallback so a
// flaky API never blocks post creation.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
	"golang.org/x/time/rate"

	"github.com/yoloinfinity55/sparkpelican/internal/apperr"
	"github.com/yoloinfinity55/sparkpelican/internal/checksum"
	"github.com/yoloinfinity55/sparkpelican/internal/index"
	"github.com/yoloinfinity55/sparkpelican/internal/storage"
	"github.com/yoloinfinity55/sparkpelican/internal/transcript"
)

const (
	maxSlugLen     = 100
	videoIDSuffix  = 8
	postDateLayout = "2006-01-02T15:04:05"
	fileDateLayout = "2006-01-02"
)

// TextModel produces text completions for a prompt.
type TextModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// VideoSource provides transcript, metadata, and thumbnail for a video.
type VideoSource interface {
	Metadata(ctx context.Context, videoID string) (*transcript.Metadata, error)
	Fetch(ctx context.Context, videoID, lang string) (string, error)
	DownloadThumbnail(ctx context.Context, videoID string) ([]byte, error)
}

// Indexer is the subset of the post index the generator needs.
type Indexer interface {
	SlugExists(slug string) (bool, error)
	PathForVideo(videoID string) (string, error)
	UpsertPost(p index.PostRow, body string) error
}

// Options customizes a single generation run.
type Options struct {
	// Title overrides the model-generated title when non-empty.
	Title string
	// Category overrides the configured default category.
	Category string
	// Tags overrides the model-generated tags when non-empty.
	Tags []string
	// Language forces the post language; empty means detect from transcript.
	Language string
	// Force regenerates even when the video already has a post.
	Force bool
}

// Result describes the post a generation run produced.
type Result struct {
	Path     string `json:"path"`
	Title    string `json:"title"`
	Slug     string `json:"slug"`
	VideoID  string `json:"video_id"`
	Language string `json:"language"`
	Image    string `json:"image,omitempty"`
}

// Generator orchestrates transcript fetching, model calls, and post writing.
type Generator struct {
	model    TextModel
	source   VideoSource
	store    storage.Provider
	idx      Indexer
	limiter  *rate.Limiter
	logger   *slog.Logger
	author   string
	category string
	now      func() time.Time
}

// Config holds the generator's site defaults.
type Config struct {
	Author   string
	Category string
	// RateInterval is the minimum spacing between model calls.
	RateInterval time.Duration
}

// New creates a Generator.
func New(model TextModel, source VideoSource, store storage.Provider, idx Indexer, cfg Config, logger *slog.Logger) *Generator {
	interval := cfg.RateInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Generator{
		model:    model,
		source:   source,
		store:    store,
		idx:      idx,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		logger:   logger,
		author:   cfg.Author,
		category: cfg.Category,
		now:      time.Now,
	}
}

// Generate produces a post from a YouTube URL or bare video id.
// It returns apperr.ErrAlreadyExists when the video was already processed
// and opts.Force is unset, and apperr.ErrNoTranscript when the video has
// no captions.
func (g *Generator) Generate(ctx context.Context, videoURL string, opts Options) (*Result, error) {
	videoID := transcript.ExtractVideoID(videoURL)
	if videoID == "" {
		return nil, fmt.Errorf("generator: no video id in %q", videoURL)
	}

	if !opts.Force {
		if existing, err := g.idx.PathForVideo(videoID); err != nil {
			return nil, err
		} else if existing != "" {
			return nil, fmt.Errorf("generator: video %s already has post %s: %w", videoID, existing, apperr.ErrAlreadyExists)
		}
	}

	meta, err := g.source.Metadata(ctx, videoID)
	if err != nil {
		// Metadata only improves fallbacks, keep going without it.
		g.logger.Warn("video metadata unavailable", "video", videoID, "error", err)
		meta = &transcript.Metadata{VideoID: videoID}
	}

	text, err := g.source.Fetch(ctx, videoID, opts.Language)
	if err != nil {
		return nil, fmt.Errorf("generator: transcript for %s: %w", videoID, err)
	}

	lang := opts.Language
	if lang == "" {
		lang = transcript.DetectLanguage(text)
	}
	g.logger.Info("generating post", "video", videoID, "language", lang, "transcript_words", len(strings.Fields(text)))

	title := opts.Title
	if title == "" {
		title = g.generateTitle(ctx, text, lang, meta.Title)
	}
	body := g.generateBody(ctx, text, lang)
	summary := g.generateSummary(ctx, text, lang)
	tags := opts.Tags
	if len(tags) == 0 {
		tags = g.generateTags(ctx, text)
	}

	postSlug, err := g.uniqueSlug(title, videoID)
	if err != nil {
		return nil, err
	}

	now := g.now()
	relPath, err := g.uniquePath(now, postSlug)
	if err != nil {
		return nil, err
	}

	image := g.saveThumbnail(ctx, videoID)

	category := opts.Category
	if category == "" {
		category = g.category
	}

	doc := assemblePost(postFields{
		Title:    title,
		Date:     now,
		Author:   g.author,
		Category: category,
		Tags:     tags,
		Slug:     postSlug,
		VideoID:  videoID,
		Lang:     lang,
		Summary:  summary,
		Image:    image,
	}, body)

	if err := g.store.Write(relPath, []byte(doc)); err != nil {
		return nil, fmt.Errorf("generator: write post: %w", err)
	}

	row := index.PostRow{
		Path:        relPath,
		Title:       title,
		Slug:        postSlug,
		VideoID:     videoID,
		Checksum:    checksum.Sum([]byte(doc)),
		Tags:        tags,
		PublishedAt: now,
		UpdatedAt:   now,
	}
	if err := g.idx.UpsertPost(row, body); err != nil {
		return nil, fmt.Errorf("generator: index post: %w", err)
	}

	g.logger.Info("post generated", "path", relPath, "title", title, "slug", postSlug)
	return &Result{
		Path:     relPath,
		Title:    title,
		Slug:     postSlug,
		VideoID:  videoID,
		Language: lang,
		Image:    image,
	}, nil
}

// generate runs one rate-limited model call.
func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return g.model.Generate(ctx, prompt)
}

func (g *Generator) generateTitle(ctx context.Context, text, lang, videoTitle string) string {
	out, err := g.generate(ctx, titlePrompt(text, lang))
	if err != nil {
		g.logger.Warn("title generation failed, using fallback", "error", err)
		return fallbackTitle(text, videoTitle)
	}
	title := cleanTitle(out)
	if title == "" {
		return fallbackTitle(text, videoTitle)
	}
	return title
}

func (g *Generator) generateBody(ctx context.Context, text, lang string) string {
	out, err := g.generate(ctx, bodyPrompt(text, lang))
	if err != nil {
		g.logger.Warn("body generation failed, using fallback", "error", err)
		return fallbackBody(text)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return fallbackBody(text)
	}
	return out
}

func (g *Generator) generateSummary(ctx context.Context, text, lang string) string {
	out, err := g.generate(ctx, summaryPrompt(text, lang))
	if err != nil {
		g.logger.Warn("summary generation failed, using fallback", "error", err)
		return fallbackSummary(text)
	}
	s := flattenLine(out)
	if len(s) < 20 {
		return fallbackSummary(text)
	}
	return s
}

func (g *Generator) generateTags(ctx context.Context, text string) []string {
	out, err := g.generate(ctx, tagsPrompt(text))
	if err != nil {
		g.logger.Warn("tag generation failed, using fallback", "error", err)
		return fallbackTags()
	}
	tags := parseTags(out)
	if len(tags) == 0 {
		return fallbackTags()
	}
	return tags
}

// uniqueSlug builds a URL slug from the title, capped in length, suffixed
// with a video id fragment for stability, and probed against the index for
// collisions.
func (g *Generator) uniqueSlug(title, videoID string) (string, error) {
	base, err := slug.Normalize(title)
	if err != nil || base == "" {
		base = "post"
	}
	if len(base) > maxSlugLen {
		base = base[:maxSlugLen]
		if i := strings.LastIndex(base, "-"); i > maxSlugLen/2 {
			base = base[:i]
		}
	}
	suffix := videoID
	if len(suffix) > videoIDSuffix {
		suffix = suffix[:videoIDSuffix]
	}
	base = base + "-" + strings.ToLower(suffix)

	candidate := base
	for n := 1; ; n++ {
		taken, err := g.idx.SlugExists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// uniquePath returns a content-relative filename of the form
// YYYY-MM-DD-<slug>.md, probing with -N suffixes until unused.
func (g *Generator) uniquePath(now time.Time, postSlug string) (string, error) {
	base := fmt.Sprintf("%s-%s", now.Format(fileDateLayout), postSlug)
	name := base + ".md"
	for n := 1; g.store.Exists(name); n++ {
		name = fmt.Sprintf("%s-%d.md", base, n)
	}
	return name, nil
}

// saveThumbnail downloads the video thumbnail into the images directory and
// returns its content-relative path, or empty string when unavailable.
func (g *Generator) saveThumbnail(ctx context.Context, videoID string) string {
	data, err := g.source.DownloadThumbnail(ctx, videoID)
	if err != nil {
		g.logger.Warn("thumbnail unavailable", "video", videoID, "error", err)
		return ""
	}
	rel := "images/" + videoID + ".jpg"
	if err := g.store.Write(rel, data); err != nil {
		g.logger.Warn("thumbnail write failed", "video", videoID, "error", err)
		return ""
	}
	return rel
}

type postFields struct {
	Title    string
	Date     time.Time
	Author   string
	Category string
	Tags     []string
	Slug     string
	VideoID  string
	Lang     string
	Summary  string
	Image    string
}

// assemblePost renders the full markdown document. The title is written
// unquoted; Pelican reads these values as plain strings and quoting leaks
// literal quote characters into rendered pages.
func assemblePost(f postFields, body string) string {
	var sb strings.Builder
	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "title: %s\n", flattenLine(f.Title))
	fmt.Fprintf(&sb, "date: %s\n", f.Date.Format(postDateLayout))
	fmt.Fprintf(&sb, "author: %s\n", f.Author)
	fmt.Fprintf(&sb, "category: %s\n", f.Category)
	fmt.Fprintf(&sb, "tags: %s\n", strings.Join(f.Tags, ", "))
	fmt.Fprintf(&sb, "slug: %s\n", f.Slug)
	fmt.Fprintf(&sb, "youtube_id: %s\n", f.VideoID)
	if f.Lang != "" && f.Lang != "en" {
		fmt.Fprintf(&sb, "lang: %s\n", f.Lang)
	}
	fmt.Fprintf(&sb, "summary: %s\n", flattenLine(f.Summary))
	if f.Image != "" {
		fmt.Fprintf(&sb, "image: %s\n", f.Image)
	}
	sb.WriteString("---\n\n")
	sb.WriteString(flattenLine(f.Summary))
	sb.WriteString("\n\n")
	sb.WriteString(strings.TrimSpace(body))
	sb.WriteString("\n")
	return sb.String()
}

// flattenLine collapses a value onto a single line for front matter use.
func flattenLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
