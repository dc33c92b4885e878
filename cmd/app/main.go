package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/mindra/internal"
	"github.com/starford/mindra/internal/canvas"
	"github.com/starford/mindra/internal/graph"
	"github.com/starford/mindra/internal/mcpserver"
	"github.com/starford/mindra/internal/session"
	pkgconfig "github.com/starford/mindra/pkg/config"
)

var (
	good   = color.New(color.FgGreen)
	warn   = color.New(color.FgYellow)
	bad    = color.New(color.FgRed)
	subtle = color.New(color.FgHiBlack)
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// stderrLogger keeps stdout free for command output and the MCP transport.
func stderrLogger(cfg *internal.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

func run(ctx context.Context, cmd *cli.Command) error {
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

func runImport(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Vault.Enabled() {
		return fmt.Errorf("vault.path is not configured")
	}

	backend, err := internal.OpenBackend(cfg, stderrLogger(cfg))
	if err != nil {
		return err
	}
	defer backend.Close()

	res, err := backend.Importer.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync vault: %w", err)
	}

	fmt.Printf("%s %s\n", good.Sprint("imported"), subtle.Sprint(cfg.Vault.Path))
	fmt.Printf("  created   %s\n", good.Sprint(res.Created))
	fmt.Printf("  updated   %s\n", good.Sprint(res.Updated))
	fmt.Printf("  deleted   %s\n", warn.Sprint(res.Deleted))
	fmt.Printf("  unchanged %s\n", subtle.Sprint(res.Unchanged))
	if res.Failed > 0 {
		fmt.Printf("  failed    %s\n", bad.Sprint(res.Failed))
		return fmt.Errorf("%d vault files failed to import", res.Failed)
	}
	return nil
}

func runRender(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	w, h := int(cmd.Int("width")), int(cmd.Int("height"))
	if w <= 0 || h <= 0 || w > session.MaxSide || h > session.MaxSide {
		return fmt.Errorf("size must be within 1..%d, got %dx%d", session.MaxSide, w, h)
	}

	sessOpts, err := cfg.SessionOptions()
	if err != nil {
		return fmt.Errorf("theme: %w", err)
	}
	engineOpts := sessOpts.Engine
	if cmd.IsSet("seed") {
		seed := cmd.Int("seed")
		if seed < 0 {
			return fmt.Errorf("seed must be non-negative, got %d", seed)
		}
		engineOpts.Rand = graph.NewRand(uint64(seed))
	}

	backend, err := internal.OpenBackend(cfg, stderrLogger(cfg))
	if err != nil {
		return err
	}
	defer backend.Close()

	if backend.Importer != nil {
		if _, err := backend.Importer.Sync(ctx); err != nil {
			return fmt.Errorf("sync vault: %w", err)
		}
	}

	notes, err := backend.Notes.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list notes: %w", err)
	}

	data, err := canvas.Snapshot(notes, w, h, cfg.Graph.FontSize, engineOpts)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	out := cmd.String("out")
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	fmt.Printf("%s %d notes to %s\n", good.Sprint("rendered"), len(notes), out)
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := stderrLogger(cfg)
	slog.SetDefault(logger)

	sessOpts, err := cfg.SessionOptions()
	if err != nil {
		return fmt.Errorf("theme: %w", err)
	}

	backend, err := internal.OpenBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	if backend.Importer != nil {
		if _, err := backend.Importer.Sync(ctx); err != nil {
			logger.Warn("vault sync failed", slog.String("error", err.Error()))
		}
	}

	return mcpserver.New(backend.Notes, mcpserver.RenderOptions{
		FontSize: cfg.Graph.FontSize,
		Engine:   sessOpts.Engine,
	}).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:   "mindra",
		Usage:  "Note graph visualization with interactive render sessions",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (.yaml or .toml)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: run,
			},
			{
				Name:   "import",
				Usage:  "Sync the vault into the database once and exit",
				Action: runImport,
			},
			{
				Name:   "render",
				Usage:  "Render the whole note graph to a PNG file",
				Action: runRender,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output PNG path",
						Value:   "graph.png",
					},
					&cli.IntFlag{
						Name:  "width",
						Usage: "Image width in pixels",
						Value: 1024,
					},
					&cli.IntFlag{
						Name:  "height",
						Usage: "Image height in pixels",
						Value: 768,
					},
					&cli.IntFlag{
						Name:  "seed",
						Usage: "Layout seed for reproducible output",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools on stdin/stdout",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
