// Copyright 2026 The Vault Conductor Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli implements a small command-tree dispatcher for the
// vault-conductor binary's four subcommands: start, stop, logs, version.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command represents a CLI command or subcommand.
type Command struct {
	Name        string
	Summary     string
	Description string
	Usage       string

	// Flags returns a configured *pflag.FlagSet for this command. Called
	// lazily on first use. If nil, the command accepts no flags.
	Flags func() *pflag.FlagSet

	Subcommands []*Command

	// Run executes the command with the remaining args (after flag
	// parsing). Exactly one of Run or Subcommands should be set, unless
	// Run also serves as the fallback when no positional arg names a
	// subcommand (as the root command's does, for bare flags like
	// --version).
	Run func(args []string) error

	parent *Command
}

// Execute parses args and dispatches to the matching subcommand or Run
// function. This tree is flat — start/stop/logs/version have no
// subcommands of their own — so dispatch only ever recurses one level.
func (c *Command) Execute(args []string) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(os.Stderr)
		return nil
	}

	sub, unknown := c.matchSubcommand(args)
	if sub != nil {
		sub.parent = c
		return sub.Execute(args[1:])
	}
	if unknown != "" {
		return fmt.Errorf("unknown command %q\n\nRun '%s --help' for usage.", unknown, c.fullName())
	}

	if len(c.Subcommands) > 0 && c.Run == nil {
		c.PrintHelp(os.Stderr)
		if len(args) == 0 {
			return fmt.Errorf("subcommand required")
		}
		return fmt.Errorf("subcommand required (got flag %q)", args[0])
	}

	remaining := args
	if c.Flags != nil {
		flagSet := c.Flags()
		flagSet.SetOutput(io.Discard)
		if err := flagSet.Parse(args); err != nil {
			return fmt.Errorf("%s\n\nRun '%s --help' for usage.", err.Error(), c.fullName())
		}
		remaining = flagSet.Args()
	}

	if c.Run != nil {
		return c.Run(remaining)
	}

	c.PrintHelp(os.Stderr)
	return fmt.Errorf("no action defined for %q", c.fullName())
}

// matchSubcommand looks for a subcommand named by args[0]. It returns the
// match, or (nil, "") if args has no leading name to match at all (empty,
// or a flag), or (nil, args[0]) if args[0] named no subcommand.
func (c *Command) matchSubcommand(args []string) (match *Command, unknownName string) {
	if len(c.Subcommands) == 0 || len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return nil, ""
	}
	for _, sub := range c.Subcommands {
		if sub.Name == args[0] {
			return sub, ""
		}
	}
	return nil, args[0]
}

// PrintHelp writes structured help output to w.
func (c *Command) PrintHelp(w io.Writer) {
	name := c.fullName()

	if c.Description != "" {
		fmt.Fprintf(w, "%s\n\n", c.Description)
	} else if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	if c.Usage != "" {
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	} else if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", name)
	} else {
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", name)
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		tw.Flush()
	}

	if c.Flags != nil {
		flagSet := c.Flags()
		var flagHelp strings.Builder
		flagSet.SetOutput(&flagHelp)
		flagSet.PrintDefaults()
		if flagHelp.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())
		}
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", name)
	}
}

func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
