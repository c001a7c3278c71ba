// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/pirafrank/vault-conductor/internal/config"
	"github.com/pirafrank/vault-conductor/internal/daemon"
	"github.com/pirafrank/vault-conductor/internal/logging"
	"github.com/pirafrank/vault-conductor/internal/runtime"
	"github.com/pirafrank/vault-conductor/internal/version"
)

// Root builds the vault-conductor command tree.
func Root() *Command {
	var (
		configPath  string
		foreground  bool
		verbosity   int
		showVersion bool
	)

	start := &Command{
		Name:    "start",
		Summary: "Start the SSH agent",
		Usage:   "vault-conductor start [--fg] [--config path] [-v...]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("start", pflag.ContinueOnError)
			fs.StringVar(&configPath, "config", "", "path to config.yaml (default: per-platform user config dir)")
			fs.BoolVar(&foreground, "fg", false, "run in the foreground instead of backgrounding")
			fs.CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeatable)")
			return fs
		},
		Run: func(args []string) error { return runStart(configPath, foreground, verbosity) },
	}

	stop := &Command{
		Name:    "stop",
		Summary: "Stop the running SSH agent",
		Usage:   "vault-conductor stop",
		Run:     func(args []string) error { return runStop() },
	}

	logs := &Command{
		Name:    "logs",
		Summary: "Page through the agent's log file",
		Usage:   "vault-conductor logs",
		Run:     func(args []string) error { return runLogs() },
	}

	versionCmd := &Command{
		Name:    "version",
		Summary: "Print version information",
		Usage:   "vault-conductor version",
		Run: func(args []string) error {
			fmt.Println(version.Info())
			return nil
		},
	}

	var root *Command
	root = &Command{
		Name:        "vault-conductor",
		Description: "vault-conductor runs an SSH agent that serves keys fetched from Bitwarden Secrets Manager.",
		Usage:       "vault-conductor <command> [flags]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("vault-conductor", pflag.ContinueOnError)
			fs.BoolVar(&showVersion, "version", false, "print version information and exit")
			return fs
		},
		Subcommands: []*Command{start, stop, logs, versionCmd},
		Run: func(args []string) error {
			if showVersion {
				fmt.Println(version.Info())
				return nil
			}
			root.PrintHelp(os.Stderr)
			return fmt.Errorf("subcommand required")
		},
	}
	return root
}

func runStart(configPath string, foreground bool, verbosity int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logPath, err := config.LogFilePath()
	if err != nil {
		return err
	}

	files, err := runtime.NewFileManager()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, logging.LevelForVerbosity(verbosity))

	supervisor := daemon.New(files, logger)
	if err := supervisor.Start(context.Background(), cfg, foreground, logPath); err != nil {
		return err
	}

	if foreground {
		color.New(color.FgGreen).Fprintln(os.Stderr, "agent stopped")
	} else {
		color.New(color.FgGreen).Fprintln(os.Stderr, "agent started")
	}
	return nil
}

func runStop() error {
	files, err := runtime.NewFileManager()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, slog.LevelInfo)

	supervisor := daemon.New(files, logger)
	if err := supervisor.Stop(context.Background()); err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintln(os.Stderr, "agent stopped")
	return nil
}

func runLogs() error {
	logPath, err := config.LogFilePath()
	if err != nil {
		return err
	}
	return daemon.OpenLogs(logPath)
}
