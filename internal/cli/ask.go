// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - one-shot question command.
//
// Sends a single question to the backend and prints the reply. Piped
// output streams plain chunks as they arrive; on a TTY the full answer
// is rendered as markdown and the citations are printed under it.
//
// Examples:
//   workbench ask "what is the notice period?"
//   workbench ask -w contracts "who signed the NDA?"
//   workbench ask --json "summarize the renewal terms"
//   workbench ask "review this:" --file notes.md
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/workbench-tui/internal/api"
	"github.com/jeranaias/workbench-tui/internal/config"
	"github.com/jeranaias/workbench-tui/internal/model"
)

// MaxFileSize caps --file includes at 50KB.
const MaxFileSize = 50 * 1024

// markdownRenderer renders final answers on a TTY.
var markdownRenderer *glamour.TermRenderer

func init() {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err == nil {
		markdownRenderer = r
	}
}

func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	out, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return out
}

// askResult is the --json output shape.
type askResult struct {
	Answer     string         `json:"answer"`
	Confidence string         `json:"confidence,omitempty"`
	Sources    []model.Source `json:"sources,omitempty"`
}

// HandleAsk runs the ask command.
func HandleAsk(cfg *config.Config, args Args, logger *zap.Logger) {
	query := args.Query
	if args.File != "" {
		content, err := readIncludeFile(args.File)
		if err != nil {
			Fatalf("%v", err)
		}
		query = query + "\n\n" + content
	}
	if strings.TrimSpace(query) == "" {
		Fatalf("ask needs a question, e.g. workbench ask \"what changed in v2?\"")
	}

	client := NewClient(cfg, logger)
	store, err := NewStore(cfg, client, args, logger)
	if err != nil {
		Fatalf("%v", err)
	}

	// The client's header timeout bounds the wait for the initial
	// response; the stream itself is read to the terminal event.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var answer strings.Builder
	var sources []model.Source

	// Markdown needs the whole document, so TTY output is buffered and
	// rendered once the stream ends. Piped output streams chunks live.
	tty := IsStdoutTTY()
	live := !args.JSON && !tty

	err = store.Send(ctx, query, func(ev api.StreamEvent) {
		switch ev.Kind {
		case api.EventChunk:
			answer.WriteString(ev.Content)
			if live {
				fmt.Print(ev.Content)
			}
		case api.EventDone:
			sources = ev.Sources
		}
	})
	if err != nil {
		Fatalf("%v", err)
	}

	if args.JSON {
		printAskJSON(answer.String(), sources)
		return
	}
	if tty {
		fmt.Print(renderMarkdown(answer.String()))
		if !args.Quiet {
			printSources(sources)
		}
		return
	}
	fmt.Println()
}

func printAskJSON(answer string, sources []model.Source) {
	res := askResult{Answer: answer, Sources: sources}
	if len(sources) > 0 {
		res.Confidence = string(model.AggregateConfidence(sources))
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
}

// printSources writes the citation list under a rendered answer.
func printSources(sources []model.Source) {
	if len(sources) == 0 {
		return
	}
	agg := model.AggregateConfidence(sources)
	fmt.Println(styled(headerStyle, fmt.Sprintf("Sources (%d)", len(sources))) +
		"  " + styled(mutedStyle, "confidence: "+string(agg)))
	for i, src := range sources {
		loc := src.Filename
		if src.Page != nil {
			loc = fmt.Sprintf("%s, p. %d", src.Filename, *src.Page)
		}
		fmt.Printf("  %d. %s %s\n", i+1, loc,
			styled(mutedStyle, fmt.Sprintf("(score %.2f)", src.Score)))
	}
}

func readIncludeFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("%s is %d bytes, over the %dKB include limit", path, info.Size(), MaxFileSize/1024)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	return fmt.Sprintf("--- %s ---\n%s", path, string(data)), nil
}
