// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - argument parsing and command dispatch for the workbench CLI.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdStatus
	CmdSessions
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet     bool
	Verbose   bool
	JSON      bool
	Model     string
	Workspace string
	Mode      string

	// Command-specific
	Query      string
	File       string
	ConfigKey  string
	ConfigVal  string
	Subcommand string

	// Raw args remaining after flag parsing
	Raw []string
}

const usageText = `workbench - terminal client for a local document workspace

Workbench talks to a local retrieval backend: ask questions against
your own documents, stream the answers, and keep the citations.

Usage:
  workbench                    Start the TUI (default)
  workbench ask "question"     Ask a single question
  workbench chat               Interactive chat REPL
  workbench status, s          Show backend and engine status
  workbench sessions [query]   List or search saved sessions
  workbench config [key [val]] Show or change configuration
  workbench version            Show version
  workbench help               Show this help

Ask flags:
  -f, --file FILE     Include file content with the question
  -w, --workspace ID  Query a workspace instead of general chat
  --json              Emit the reply and sources as JSON

Session subcommands:
  workbench sessions                 List saved sessions
  workbench sessions <query>         Search saved sessions
  workbench sessions show <id>       Print a saved conversation
  workbench sessions delete <id>     Delete a saved conversation
  workbench sessions export <id>     Export a saved conversation
      --format md|json               Export format (default: md)

Global flags:
  -m, --model NAME    Use a specific model for this run
  -q, --quiet         Minimal output
  -v, --verbose       Verbose output

Environment:
  WORKBENCH_URL         Backend base URL
  WORKBENCH_MODEL       Default model
  WORKBENCH_LOG_LEVEL   Log level (debug|info|warn|error)

Config file: ~/.workbench/config.toml`

// PrintUsage writes the top-level usage text.
func PrintUsage() {
	fmt.Println(usageText)
}

// PrintVersion writes version details.
func PrintVersion() {
	fmt.Printf("workbench %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}

// Parse reads os.Args and returns the command to run plus its arguments.
func Parse() (Command, Args) {
	return parseArgs(os.Args[1:])
}

func parseArgs(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, args

	case "ask":
		parseAskArgs(&args, remaining)
		return CmdAsk, args

	case "chat":
		return CmdChat, args

	case "status", "s":
		return CmdStatus, args

	case "sessions", "session", "list":
		parseSessionArgs(&args, remaining)
		return CmdSessions, args

	case "config":
		if len(remaining) > 0 {
			args.ConfigKey = remaining[0]
		}
		if len(remaining) > 1 {
			args.ConfigVal = strings.Join(remaining[1:], " ")
		}
		return CmdConfig, args

	case "version", "--version", "-V":
		return CmdVersion, args

	case "help", "--help", "-h":
		return CmdHelp, args

	default:
		// Unknown words are treated as an implicit ask, so
		// `workbench "why does the contract auto-renew"` works.
		args.Query = strings.TrimSpace(cmd + " " + strings.Join(remaining, " "))
		return CmdAsk, args
	}
}

// parseGlobalFlags extracts flags valid for every command.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var args Args
	var remaining []string

	for i := 0; i < len(argv); i++ {
		a := argv[i]
		switch a {
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--json":
			args.JSON = true
		case "-m", "--model":
			if i+1 < len(argv) {
				i++
				args.Model = argv[i]
			}
		case "-w", "--workspace":
			if i+1 < len(argv) {
				i++
				args.Workspace = argv[i]
			}
		default:
			remaining = append(remaining, a)
		}
	}
	return remaining, args
}

func parseAskArgs(args *Args, remaining []string) {
	var queryParts []string
	for i := 0; i < len(remaining); i++ {
		a := remaining[i]
		switch a {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		default:
			queryParts = append(queryParts, a)
		}
	}
	args.Query = strings.TrimSpace(strings.Join(queryParts, " "))
}

func parseSessionArgs(args *Args, remaining []string) {
	if len(remaining) == 0 {
		return
	}
	switch remaining[0] {
	case "show", "delete", "export":
		args.Subcommand = remaining[0]
		rest := remaining[1:]
		for i := 0; i < len(rest); i++ {
			if rest[i] == "--format" && i+1 < len(rest) {
				i++
				args.ConfigVal = rest[i]
				continue
			}
			if args.Query == "" {
				args.Query = rest[i]
			}
		}
	default:
		args.Query = strings.Join(remaining, " ")
	}
}
