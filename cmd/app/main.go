package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/inkwell/internal"
	pkgconfig "github.com/starford/inkwell/pkg/config"
)

var version = "dev"

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.Root().String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

// parseIndex reads the record index argument; an absent argument means 0.
func parseIndex(arg string) (int, error) {
	if arg == "" {
		return 0, nil
	}
	idx, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("index must be an integer, got %q", arg)
	}
	return idx, nil
}

func render(ctx context.Context, cmd *cli.Command) error {
	idx, err := parseIndex(cmd.Args().First())
	if err != nil {
		return err
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunRender(ctx, idx, opts...); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

func simplify(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.RunSimplify(ctx, cmd.Args().First(), opts...); err != nil {
		return fmt.Errorf("simplify: %w", err)
	}
	return nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Serve(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:      "inkwell",
		Usage:     "Render Notion database records to HTML pages and simplify page block trees",
		Version:   version,
		ArgsUsage: "[index]",
		Action:    render,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (optional; defaults and environment are used when missing)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("INKWELL_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "render",
				Usage:     "Render the database record at index to an HTML page",
				ArgsUsage: "[index]",
				Action:    render,
			},
			{
				Name:      "simplify",
				Usage:     "Write the raw and simplified block tree of a page as JSON",
				ArgsUsage: "[page-id]",
				Action:    simplify,
			},
			{
				Name:   "serve",
				Usage:  "Serve rendered pages with search and live reload events",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
