package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SirZenith/hnfeed/cmd/browse"
	"github.com/SirZenith/hnfeed/cmd/cache"
	"github.com/SirZenith/hnfeed/cmd/config"
	"github.com/SirZenith/hnfeed/cmd/favicon"
	"github.com/SirZenith/hnfeed/cmd/item"
	"github.com/SirZenith/hnfeed/cmd/prefetch"
	"github.com/SirZenith/hnfeed/cmd/render"
	"github.com/SirZenith/hnfeed/cmd/stories"
	"github.com/SirZenith/hnfeed/common"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:           "hnfeed",
		Usage:          "Hacker News reader for terminal",
		Version:        "0.1.0",
		DefaultCommand: "browse",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path of config file (default: config.json under user config directory)",
			},
			&cli.StringFlag{
				Name:  "database",
				Usage: "path of cache database, overrides config",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "do not read or write cache database",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "one of debug, info, warn, error",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "write log to this file, reader always logs to a file",
			},
		},
		Before: setupLog,
		Commands: []*cli.Command{
			browse.Cmd(),
			stories.Cmd(),
			item.Cmd(),
			favicon.Cmd(),
			prefetch.Cmd(),
			render.Cmd(),
			cache.Cmd(),
			config.Cmd(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func setupLog(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level, err := log.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return ctx, err
	}
	log.SetLevel(level)

	path := cmd.String("log-file")
	if path == "" {
		return ctx, nil
	}

	if err := common.EnsureDir(filepath.Dir(path)); err != nil {
		return ctx, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return ctx, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	log.SetOutput(file)

	return ctx, nil
}
