// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes SparkPelican tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/yoloinfinity55/sparkpelican/internal/generator"
	"github.com/yoloinfinity55/sparkpelican/internal/index"
	"github.com/yoloinfinity55/sparkpelican/internal/normalizer"
	"github.com/yoloinfinity55/sparkpelican/internal/storage"
)

// PostGenerator runs one video-to-post generation.
type PostGenerator interface {
	Generate(ctx context.Context, videoURL string, opts generator.Options) (*generator.Result, error)
}

// Server wraps the MCP server with SparkPelican tools.
type Server struct {
	mcp    *server.MCPServer
	store  storage.Provider
	db     *index.DB
	gen    PostGenerator // nil when generation is not configured
	logger *slog.Logger
}

// New creates a new MCP server with all SparkPelican tools registered.
func New(store storage.Provider, db *index.DB, gen PostGenerator, logger *slog.Logger) *Server {
	s := &Server{store: store, db: db, gen: gen, logger: logger}

	s.mcp = server.NewMCPServer(
		"SparkPelican",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("generate_post",
		mcp.WithDescription("Generate a Pelican blog post from a YouTube video: fetches the "+
			"transcript, writes the markdown post with correct front matter into the content "+
			"directory, and indexes it."),
		mcp.WithString("url", mcp.Required(), mcp.Description("YouTube video URL or bare 11-character video id")),
		mcp.WithString("title", mcp.Description("Optional title override")),
		mcp.WithString("category", mcp.Description("Optional category override")),
		mcp.WithString("language", mcp.Description("Optional language code; detected from the transcript when empty")),
	), s.generatePost)

	s.mcp.AddTool(mcp.NewTool("validate_titles",
		mcp.WithDescription("Scan the content tree for quote-wrapped title values in front matter. "+
			"Read-only; reports each issue with file path and line number."),
	), s.validateTitles)

	s.mcp.AddTool(mcp.NewTool("fix_titles",
		mcp.WithDescription("Rewrite quote-wrapped title lines in place, leaving every other byte "+
			"of each file unchanged. Returns the applied fixes."),
	), s.fixTitles)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List all posts or posts in a specific folder of the content directory."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Full-text search through post content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read the full content of a markdown post."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the post (e.g. 2026-03-14-my-post.md)")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("get_post_contract",
		mcp.WithDescription("Returns the canonical Pelican post format contract. "+
			"Call this before writing posts by hand to ensure correct front matter."),
	), s.getPostContract)

	// Resource: post format contract.
	s.mcp.AddResource(
		mcp.NewResource("sparkpelican://post-format", "Post Format Contract",
			mcp.WithResourceDescription("Canonical Pelican markdown post format that all posts must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Serve builds a Server and runs it on stdio until the client disconnects.
func Serve(_ context.Context, store storage.Provider, db *index.DB, gen PostGenerator, logger *slog.Logger) error {
	return New(store, db, gen, logger).ServeStdio()
}

func (s *Server) generatePost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.gen == nil {
		return mcp.NewToolResultError("generation is not configured (missing model API key)"), nil
	}
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := generator.Options{}
	if v, err := req.RequireString("title"); err == nil {
		opts.Title = v
	}
	if v, err := req.RequireString("category"); err == nil {
		opts.Category = v
	}
	if v, err := req.RequireString("language"); err == nil {
		opts.Language = v
	}

	res, err := s.gen.Generate(ctx, url, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) validateTitles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := normalizer.Validate(s.store, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if result.OK() {
		return mcp.NewToolResultText("all titles clean"), nil
	}
	var lines []string
	for _, iss := range result.Issues {
		lines = append(lines, fmt.Sprintf("%s (line %d): %s", iss.Path, iss.Line, iss.Description()))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) fixTitles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fixed, issues, err := normalizer.Fix(s.store, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var lines []string
	for _, f := range fixed {
		lines = append(lines, fmt.Sprintf("%s (line %d) fixed: %s -> %s", f.Path, f.Line, f.Before, f.After))
	}
	for _, iss := range issues {
		lines = append(lines, fmt.Sprintf("%s: %s", iss.Path, iss.Description()))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("nothing to fix"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	metas, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) searchPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getPostContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PostFormatContract), nil
}

func (s *Server) readPostFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "sparkpelican://post-format",
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}
