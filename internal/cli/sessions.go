// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions.go - saved-session management against the local archive.
package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jeranaias/workbench-tui/internal/config"
	"github.com/jeranaias/workbench-tui/internal/export"
	"github.com/jeranaias/workbench-tui/internal/model"
	"github.com/jeranaias/workbench-tui/internal/storage"
)

const sessionListLimit = 50

// HandleSessions lists, searches, shows, exports, or deletes archived
// conversations.
func HandleSessions(cfg *config.Config, args Args, logger *zap.Logger) {
	if !cfg.Archive.Enabled {
		Fatalf("the local archive is disabled (archive.enabled = false)")
	}

	path, err := cfg.ArchivePath()
	if err != nil {
		Fatalf("%v", err)
	}
	archive, err := storage.Open(path)
	if err != nil {
		Fatalf("cannot open archive: %v", err)
	}
	defer archive.Close()

	switch args.Subcommand {
	case "show":
		showSession(archive, args.Query)
	case "delete":
		deleteSession(archive, args.Query)
	case "export":
		exportSession(archive, args.Query, args.ConfigVal)
	default:
		listSessions(archive, args.Query)
	}
}

func listSessions(archive *storage.Archive, query string) {
	var (
		metas []storage.Meta
		err   error
	)
	if query != "" {
		metas, err = archive.Search(query)
	} else {
		metas, err = archive.List(sessionListLimit)
	}
	if err != nil {
		Fatalf("%v", err)
	}

	if len(metas) == 0 {
		fmt.Println(styled(mutedStyle, "no saved sessions"))
		return
	}

	for _, m := range metas {
		fmt.Printf("%s  %s  %s\n",
			styled(mutedStyle, m.ID),
			m.ArchivedAt.Format("2006-01-02 15:04"),
			styled(headerStyle, m.Title))
		fmt.Printf("    %s\n", styled(infoStyle,
			fmt.Sprintf("%d messages, %s mode", m.MessageCount, m.Mode)))
		if m.Preview != "" {
			fmt.Printf("    %s\n", styled(mutedStyle, m.Preview))
		}
	}
}

func showSession(archive *storage.Archive, id string) {
	if id == "" {
		Fatalf("usage: workbench sessions show <id>")
	}
	conv, msgs, err := archive.Load(id)
	if err != nil {
		Fatalf("%v", err)
	}

	fmt.Println(styled(headerStyle, conv.Title))
	fmt.Println()
	for _, msg := range msgs {
		label := "You"
		if msg.Role != model.RoleUser {
			label = string(msg.Role)
		}
		fmt.Println(styled(promptStyle, label+":"))
		fmt.Println(msg.Content)
		fmt.Println()
	}
}

func deleteSession(archive *storage.Archive, id string) {
	if id == "" {
		Fatalf("usage: workbench sessions delete <id>")
	}
	if err := archive.Delete(id); err != nil {
		Fatalf("%v", err)
	}
	fmt.Println(styled(infoStyle, "deleted "+id))
}

func exportSession(archive *storage.Archive, id, format string) {
	if id == "" {
		Fatalf("usage: workbench sessions export <id> [--format md|json]")
	}
	conv, msgs, err := archive.Load(id)
	if err != nil {
		Fatalf("%v", err)
	}

	opts := export.DefaultOptions()
	var exporter export.Exporter
	switch format {
	case "", "md", "markdown":
		exporter = export.NewMarkdownExporter(opts)
	case "json":
		exporter = export.NewJSONExporter(opts)
	default:
		Fatalf("unknown export format %q, want md or json", format)
	}

	path, err := export.ExportToFile(&conv, msgs, exporter, opts)
	if err != nil {
		Fatalf("%v", err)
	}
	fmt.Println(styled(infoStyle, "exported to "+path))
}
