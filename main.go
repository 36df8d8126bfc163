// workbench - a terminal client for a local document workspace.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jeranaias/workbench-tui/internal/cli"
	"github.com/jeranaias/workbench-tui/internal/config"
	"github.com/jeranaias/workbench-tui/internal/logging"
	"github.com/jeranaias/workbench-tui/internal/storage"
	"github.com/jeranaias/workbench-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.2.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage()
		return
	case cli.CmdVersion:
		cli.PrintVersion()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		cli.Fatalf("%v", err)
	}

	logger := newLogger(cfg, args)
	defer logger.Sync() //nolint:errcheck

	switch cmd {
	case cli.CmdTUI:
		runTUI(cfg, args, logger)
	case cli.CmdAsk:
		cli.HandleAsk(cfg, args, logger)
	case cli.CmdChat:
		cli.HandleChat(cfg, args, logger)
	case cli.CmdStatus:
		cli.HandleStatus(cfg, args, logger)
	case cli.CmdSessions:
		cli.HandleSessions(cfg, args, logger)
	case cli.CmdConfig:
		cli.HandleConfig(cfg, args)
	default:
		cli.PrintUsage()
		os.Exit(2)
	}
}

// newLogger opens the rotating file logger. Logging never goes to
// stdout: that belongs to the TUI and to piped command output.
func newLogger(cfg *config.Config, args cli.Args) *zap.Logger {
	path, err := cfg.LogPath()
	if err != nil {
		return zap.NewNop()
	}

	level := cfg.Log.Level
	if args.Verbose {
		level = "debug"
	}

	logger, err := logging.New(path, level)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func runTUI(cfg *config.Config, args cli.Args, logger *zap.Logger) {
	if !cli.IsTTY() {
		cli.Fatalf("the TUI needs an interactive terminal; try: workbench ask \"...\"")
	}

	client := cli.NewClient(cfg, logger)
	store, err := cli.NewStore(cfg, client, args, logger)
	if err != nil {
		cli.Fatalf("%v", err)
	}

	var archive *storage.Archive
	if cfg.Archive.Enabled {
		if path, err := cfg.ArchivePath(); err == nil {
			if a, err := storage.Open(path); err == nil {
				archive = a
				defer archive.Close()
				pruneArchive(cfg, archive, logger)
			} else {
				logger.Warn("archive unavailable", zap.Error(err))
			}
		}
	}

	// Reload settings while the TUI runs when the config file changes
	// on disk (editor saves, another workbench process).
	watcher, err := config.Watch(func(next *config.Config) {
		config.SetGlobal(next)
		logger.Info("configuration reloaded")
	}, func(err error) {
		logger.Warn("configuration reload failed", zap.Error(err))
	})
	if err == nil {
		defer watcher.Close()
	}

	if err := chat.Run(cfg, client, store, archive, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// pruneArchive applies the retention policy on startup.
func pruneArchive(cfg *config.Config, archive *storage.Archive, logger *zap.Logger) {
	if cfg.Archive.RetentionDays <= 0 {
		return
	}
	n, err := archive.Prune(cfg.Archive.RetentionDays)
	if err != nil {
		logger.Warn("archive prune failed", zap.Error(err))
		return
	}
	if n > 0 {
		logger.Info("pruned archived conversations", zap.Int("count", n))
	}
}
