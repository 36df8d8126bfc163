// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import "testing"

func TestParseDefaultsToTUI(t *testing.T) {
	cmd, _ := parseArgs(nil)
	if cmd != CmdTUI {
		t.Errorf("no args should launch the TUI, got %v", cmd)
	}
}

func TestParseAsk(t *testing.T) {
	cmd, args := parseArgs([]string{"ask", "what", "is", "the", "notice", "period?"})
	if cmd != CmdAsk {
		t.Fatalf("Parse = %v, want CmdAsk", cmd)
	}
	if args.Query != "what is the notice period?" {
		t.Errorf("Query = %q", args.Query)
	}
}

func TestParseAskWithFlags(t *testing.T) {
	cmd, args := parseArgs([]string{"-w", "contracts", "--json", "ask", "--file", "notes.md", "question"})
	if cmd != CmdAsk {
		t.Fatalf("Parse = %v, want CmdAsk", cmd)
	}
	if args.Workspace != "contracts" {
		t.Errorf("Workspace = %q", args.Workspace)
	}
	if !args.JSON {
		t.Error("JSON flag not parsed")
	}
	if args.File != "notes.md" {
		t.Errorf("File = %q", args.File)
	}
	if args.Query != "question" {
		t.Errorf("Query = %q", args.Query)
	}
}

func TestParseImplicitAsk(t *testing.T) {
	cmd, args := parseArgs([]string{"why", "does", "it", "auto-renew"})
	if cmd != CmdAsk {
		t.Fatalf("bare words should become an ask, got %v", cmd)
	}
	if args.Query != "why does it auto-renew" {
		t.Errorf("Query = %q", args.Query)
	}
}

func TestParseStatusAlias(t *testing.T) {
	for _, in := range []string{"status", "s"} {
		cmd, _ := parseArgs([]string{in})
		if cmd != CmdStatus {
			t.Errorf("parse(%q) = %v, want CmdStatus", in, cmd)
		}
	}
}

func TestParseSessions(t *testing.T) {
	cmd, args := parseArgs([]string{"sessions", "renewal"})
	if cmd != CmdSessions {
		t.Fatalf("Parse = %v, want CmdSessions", cmd)
	}
	if args.Query != "renewal" {
		t.Errorf("Query = %q", args.Query)
	}

	_, args = parseArgs([]string{"sessions", "export", "abc123", "--format", "json"})
	if args.Subcommand != "export" || args.Query != "abc123" || args.ConfigVal != "json" {
		t.Errorf("export parse: sub=%q id=%q format=%q", args.Subcommand, args.Query, args.ConfigVal)
	}
}

func TestParseConfig(t *testing.T) {
	cmd, args := parseArgs([]string{"config", "chat.model", "llama3.1:8b"})
	if cmd != CmdConfig {
		t.Fatalf("Parse = %v, want CmdConfig", cmd)
	}
	if args.ConfigKey != "chat.model" || args.ConfigVal != "llama3.1:8b" {
		t.Errorf("key=%q val=%q", args.ConfigKey, args.ConfigVal)
	}
}

func TestParseGlobalFlags(t *testing.T) {
	cmd, args := parseArgs([]string{"--quiet", "-m", "qwen3:4b", "chat"})
	if cmd != CmdChat {
		t.Fatalf("Parse = %v, want CmdChat", cmd)
	}
	if !args.Quiet || args.Model != "qwen3:4b" {
		t.Errorf("quiet=%v model=%q", args.Quiet, args.Model)
	}
}

func TestParseVersionAndHelp(t *testing.T) {
	if cmd, _ := parseArgs([]string{"version"}); cmd != CmdVersion {
		t.Error("version not recognized")
	}
	if cmd, _ := parseArgs([]string{"help"}); cmd != CmdHelp {
		t.Error("help not recognized")
	}
}
