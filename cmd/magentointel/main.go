package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/magentointel/internal/config"
	"github.com/standardbeagle/magentointel/internal/debug"
	"github.com/standardbeagle/magentointel/internal/engine"
	"github.com/standardbeagle/magentointel/internal/version"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr, os.Stdin).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer, stdin io.Reader) *cli.App {
	return &cli.App{
		Name:                   "magentointel",
		Usage:                  "Member completion and class navigation for Magento 1 PHP code",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Writer:                 stdout,
		ErrWriter:              stderr,
		Reader:                 stdin,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Directory holding .magentointel.kdl or .magentointel.toml",
				Value:   ".",
			},
			&cli.StringSliceFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Open folder to search for the Magento root (repeatable, overrides config)",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Tokenizer backend: php or treesitter (overrides config)",
			},
			&cli.StringFlag{
				Name:  "php",
				Usage: "PHP binary used by the php backend (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable the persistent token cache",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Write debug logs to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			debug.SetWarnOutput(c.App.ErrWriter)
			if c.Bool("debug") {
				debug.EnableDebug = "true"
				debug.SetDebugOutput(os.Stderr)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "complete",
				Aliases:   []string{"c"},
				Usage:     "List member completions at a cursor",
				ArgsUsage: "FILE OFFSET|LINE:COLUMN",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
					&cli.BoolFlag{
						Name:    "prefix",
						Aliases: []string{"p"},
						Usage:   "Rank against the member name typed before the cursor",
					},
					&cli.BoolFlag{
						Name:  "stdin",
						Usage: "Read the buffer from stdin instead of FILE",
					},
				},
				Action: completeCommand,
			},
			{
				Name:      "open",
				Aliases:   []string{"o"},
				Usage:     "Print the file declaring a class, or the class under a cursor",
				ArgsUsage: "CLASS | FILE OFFSET|LINE:COLUMN",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "relative",
						Usage: "Print the path relative to the Magento root",
					},
				},
				Action: openCommand,
			},
			{
				Name:      "tokens",
				Usage:     "Dump the normalized token stream of a file",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "json",
						Aliases: []string{"j"},
						Usage:   "Output as JSON",
					},
				},
				Action: tokensCommand,
			},
			{
				Name:   "mcp",
				Usage:  "Start MCP (Model Context Protocol) server with stdio transport",
				Action: mcpCommand,
			},
		},
	}
}

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	dir := c.String("config")
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", dir, err)
	}

	if roots := c.StringSlice("root"); len(roots) > 0 {
		cfg.Project.Roots = absRoots(roots)
	}
	if backend := c.String("backend"); backend != "" {
		cfg.Tokenizer.Backend = backend
	}
	if php := c.String("php"); php != "" {
		cfg.Tokenizer.PHPBinary = php
	}
	if c.Bool("no-cache") {
		cfg.Tokenizer.PersistentCache = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newEngine(c *cli.Context) (*engine.Engine, *config.Config, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, nil, err
	}
	eng, err := engine.NewFromConfig(cfg, nil)
	if err != nil {
		return nil, nil, err
	}
	return eng, cfg, nil
}
