package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/yoloinfinity55/sparkpelican/internal"
	pkgconfig "github.com/yoloinfinity55/sparkpelican/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "sparkpelican",
		Usage:  "YouTube-to-Pelican content pipeline with front-matter normalization",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the REST API server with content watcher and SSE",
				Action: serve,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "validate",
				Usage:  "Scan the content tree for quoted titles without modifying anything; exits 1 when issues are found",
				Action: runValidate,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "fix",
				Usage:  "Rewrite quoted title lines in place; exits non-zero only on file errors",
				Action: runFix,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:      "generate",
				Usage:     "Generate a Pelican post from a YouTube video",
				ArgsUsage: "<video-url>",
				Action:    runGenerate,
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{Name: "title", Usage: "Override the generated title"},
					&cli.StringFlag{Name: "category", Usage: "Override the configured category"},
					&cli.StringSliceFlag{Name: "tag", Usage: "Override the generated tags (repeatable)"},
					&cli.StringFlag{Name: "language", Usage: "Force the post language instead of detecting it"},
					&cli.BoolFlag{Name: "force", Usage: "Regenerate even if the video already has a post"},
				},
			},
			{
				Name:   "build",
				Usage:  "Validate front matter, then run the Pelican build command",
				Action: runBuild,
				Flags:  []cli.Flag{configFlag},
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: runMCP,
				Flags:  []cli.Flag{configFlag},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
