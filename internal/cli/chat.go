// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - interactive REPL command.
//
// A plain line-oriented chat for terminals where the full TUI is
// unwanted (ssh sessions, minimal environments). Input history and
// line editing come from liner; answers stream to stdout.
//
// Interactive commands:
//   /help, /h      Show available commands
//   /new, /n       Start a new conversation
//   /sources       Show citations for the last answer
//   /model [name]  Show or switch model
//   /status, /s    Show session settings
//   /quit, /q      Exit (also Ctrl+D)
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"github.com/jeranaias/workbench-tui/internal/api"
	"github.com/jeranaias/workbench-tui/internal/config"
	"github.com/jeranaias/workbench-tui/internal/model"
	"github.com/jeranaias/workbench-tui/internal/session"
)

// historyFileName keeps REPL input history under the config dir.
const historyFileName = "chat_history"

// chatREPL bundles the line editor with its history file.
type chatREPL struct {
	line        *liner.State
	historyFile string
}

func newChatREPL() *chatREPL {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}

	r := &chatREPL{
		line:        line,
		historyFile: filepath.Join(dir, historyFileName),
	}
	r.loadHistory()
	return r
}

func (r *chatREPL) loadHistory() {
	if f, err := os.Open(r.historyFile); err == nil {
		_, _ = r.line.ReadHistory(f)
		f.Close()
	}
}

func (r *chatREPL) saveHistory() {
	f, err := os.Create(r.historyFile)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = r.line.WriteHistory(f)
}

func (r *chatREPL) close() {
	r.saveHistory()
	r.line.Close()
}

// HandleChat runs the interactive REPL.
func HandleChat(cfg *config.Config, args Args, logger *zap.Logger) {
	if !IsTTY() {
		Fatalf("chat needs an interactive terminal, use ask for piped input")
	}

	client := NewClient(cfg, logger)
	store, err := NewStore(cfg, client, args, logger)
	if err != nil {
		Fatalf("%v", err)
	}

	repl := newChatREPL()
	defer repl.close()

	if !args.Quiet {
		fmt.Println(styled(headerStyle, "workbench chat"))
		fmt.Println(styled(infoStyle, "/help for commands, /quit or Ctrl+D to exit"))
		fmt.Println()
	}

	for {
		input, err := repl.line.Prompt(promptText())
		if err == liner.ErrPromptAborted {
			continue
		}
		if err == io.EOF {
			fmt.Println()
			return
		}
		if err != nil {
			Fatalf("%v", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		repl.line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			if quit := replCommand(store, input); quit {
				return
			}
			continue
		}

		streamTurn(cfg, store, input)
	}
}

func promptText() string {
	return styled(promptStyle, "> ")
}

// streamTurn sends one user turn and prints the streamed reply.
func streamTurn(cfg *config.Config, store *session.Store, input string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := store.Send(ctx, input, func(ev api.StreamEvent) {
		if ev.Kind == api.EventChunk {
			fmt.Print(ev.Content)
		}
	})
	fmt.Println()
	if err != nil {
		fmt.Println(styled(errorStyle, "error: "+err.Error()))
		return
	}

	if msgs := store.Messages(); len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		if last.Role == model.RoleAssistant && len(last.Sources) > 0 {
			agg := model.AggregateConfidence(last.Sources)
			fmt.Println(styled(mutedStyle,
				fmt.Sprintf("[%d sources, %s confidence, /sources for details]", len(last.Sources), agg)))
		}
	}
	fmt.Println()
}

// replCommand handles a slash command; returns true on quit.
func replCommand(store *session.Store, input string) bool {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h":
		fmt.Println(styled(infoStyle, `  /new, /n       start a new conversation
  /sources       citations for the last answer
  /model [name]  show or switch model
  /status, /s    session settings
  /quit, /q      exit`))

	case "/new", "/n", "/clear", "/c":
		if err := store.Deselect(); err != nil {
			fmt.Println(styled(errorStyle, err.Error()))
		} else {
			fmt.Println(styled(infoStyle, "new conversation"))
		}

	case "/sources":
		printLastSources(store)

	case "/model", "/m":
		if len(args) == 0 {
			name := store.Settings().Model
			if name == "" {
				name = "server default"
			}
			fmt.Println(styled(infoStyle, "model: "+name))
		} else {
			store.SetModel(args[0])
			fmt.Println(styled(infoStyle, "model: "+args[0]))
		}

	case "/status", "/s":
		st := store.Settings()
		fmt.Println(styled(infoStyle, fmt.Sprintf(
			"mode %s, model %s, strategy %s, %d messages",
			st.Mode, orLabel(st.Model, "server default"),
			orLabel(st.RetrievalStrategy, "server default"), len(store.Messages()))))

	default:
		fmt.Println(styled(warningStyle, "unknown command "+cmd+", /help for the list"))
	}
	return false
}

func printLastSources(store *session.Store) {
	msgs := store.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleAssistant {
			if len(msgs[i].Sources) == 0 {
				break
			}
			printSources(msgs[i].Sources)
			return
		}
	}
	fmt.Println(styled(mutedStyle, "no sources for the last answer"))
}

func orLabel(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
