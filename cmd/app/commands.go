package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/yoloinfinity55/sparkpelican/internal"
	"github.com/yoloinfinity55/sparkpelican/internal/gemini"
	"github.com/yoloinfinity55/sparkpelican/internal/generator"
	"github.com/yoloinfinity55/sparkpelican/internal/index"
	"github.com/yoloinfinity55/sparkpelican/internal/mcpserver"
	"github.com/yoloinfinity55/sparkpelican/internal/normalizer"
	"github.com/yoloinfinity55/sparkpelican/internal/storage"
	"github.com/yoloinfinity55/sparkpelican/internal/transcript"
)

// cliLogger logs to stderr so command output on stdout stays parseable.
func cliLogger(cfg *internal.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

func openStore(cfg *internal.Config) (storage.Provider, error) {
	if err := os.MkdirAll(cfg.Content.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}
	return storage.NewFS(cfg.Content.Path)
}

// issueLine formats one finding the way both validate and build print it.
func issueLine(iss normalizer.Issue) string {
	if iss.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", iss.Path, iss.Line, iss.Description())
	}
	return fmt.Sprintf("%s: %s", iss.Path, iss.Description())
}

// runValidate scans the content tree read-only and exits 1 when any issue
// is found, so it can gate CI and site builds.
func runValidate(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	result, err := normalizer.Validate(store, "")
	if err != nil {
		return err
	}
	if result.OK() {
		fmt.Println("all titles clean")
		return nil
	}
	for _, iss := range result.Issues {
		fmt.Println(issueLine(iss))
	}
	return cli.Exit(fmt.Sprintf("%d issue(s) found", len(result.Issues)), 1)
}

// runFix rewrites quoted titles in place. Remaining content findings
// (unterminated front matter) are reported but do not fail the run; file
// I/O errors do.
func runFix(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	fixed, issues, err := normalizer.Fix(store, "")
	if err != nil {
		return err
	}

	for _, f := range fixed {
		fmt.Printf("%s (line %d) fixed: %s -> %s\n", f.Path, f.Line, f.Before, f.After)
	}

	ioErrors := 0
	for _, iss := range issues {
		fmt.Println(issueLine(iss))
		if iss.IsIOError() {
			ioErrors++
		}
	}

	fmt.Printf("%d file(s) fixed, %d issue(s) remaining\n", len(fixed), len(issues))
	if ioErrors > 0 {
		return cli.Exit(fmt.Sprintf("%d file error(s)", ioErrors), 1)
	}
	return nil
}

// runGenerate produces one post from a video URL.
func runGenerate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Gemini.APIKey == "" {
		return fmt.Errorf("generate: gemini.api_key is not configured")
	}
	videoURL := cmd.Args().First()
	if videoURL == "" {
		return fmt.Errorf("generate: video URL argument is required")
	}

	logger := cliLogger(cfg)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("index sync failed", slog.String("error", err.Error()))
	}

	source, err := transcript.NewClient(ctx, cfg.YouTube.APIKey)
	if err != nil {
		return err
	}
	model := gemini.New(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL)
	gen := generator.New(model, source, store, db, generator.Config{
		Author:       cfg.Site.Author,
		Category:     cfg.Site.Category,
		RateInterval: time.Duration(cfg.Gemini.RateSeconds) * time.Second,
	}, logger)

	res, err := gen.Generate(ctx, videoURL, generator.Options{
		Title:    cmd.String("title"),
		Category: cmd.String("category"),
		Tags:     cmd.StringSlice("tag"),
		Language: cmd.String("language"),
		Force:    cmd.Bool("force"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("generated %s (%s)\n", res.Path, res.Title)
	return nil
}

// runBuild validates the content tree and, only when clean, runs the
// configured Pelican build command.
func runBuild(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	result, err := normalizer.Validate(store, "")
	if err != nil {
		return err
	}
	if !result.OK() {
		for _, iss := range result.Issues {
			fmt.Println(issueLine(iss))
		}
		return cli.Exit("build aborted: fix front matter first (sparkpelican fix)", 1)
	}

	command := strings.TrimSpace(cfg.Site.BuildCommand)
	if command == "" {
		return fmt.Errorf("build: site.build_command is not configured")
	}

	fmt.Printf("running: %s\n", command)
	build := exec.CommandContext(ctx, "sh", "-c", command)
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		return fmt.Errorf("build command failed: %w", err)
	}
	return nil
}

// runMCP serves the MCP tool set over stdio.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := cliLogger(cfg)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("index sync failed", slog.String("error", err.Error()))
	}

	var gen mcpserver.PostGenerator
	if cfg.Gemini.APIKey != "" {
		source, err := transcript.NewClient(ctx, cfg.YouTube.APIKey)
		if err != nil {
			return err
		}
		model := gemini.New(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.BaseURL)
		gen = generator.New(model, source, store, db, generator.Config{
			Author:       cfg.Site.Author,
			Category:     cfg.Site.Category,
			RateInterval: time.Duration(cfg.Gemini.RateSeconds) * time.Second,
		}, logger)
	}

	return mcpserver.Serve(ctx, store, db, gen, logger)
}
