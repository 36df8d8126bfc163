// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/workbench-tui/internal/model"
)

func sampleConversation() (*model.Conversation, []model.Message) {
	page := 7
	conv := &model.Conversation{
		ID:          "c1",
		WorkspaceID: "w1",
		Title:       "Contract review",
		Mode:        model.ModeWorkspace,
		CreatedAt:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	msgs := []model.Message{
		{ID: "u1", Role: model.RoleUser, Content: "What is the termination clause?"},
		{ID: "a1", Role: model.RoleAssistant, Content: "Either party may terminate with 30 days notice.",
			Sources: []model.Source{
				{Filename: "contract.pdf", ChunkText: "termination requires 30 days written notice",
					Page: &page, Score: 0.88, Confidence: model.ConfidenceHigh},
				{Filename: "addendum.pdf", Score: 0.61, Confidence: model.ConfidenceMedium},
			}},
	}
	return conv, msgs
}

func TestMarkdownExport(t *testing.T) {
	conv, msgs := sampleConversation()
	out, err := NewMarkdownExporter(nil).Export(conv, msgs)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"# Contract review",
		"### You",
		"### Assistant",
		"What is the termination clause?",
		"30 days notice",
		"**Sources** (confidence: high)",
		"contract.pdf, p. 7",
		"addendum.pdf",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownExportWithoutSources(t *testing.T) {
	conv, msgs := sampleConversation()
	opts := DefaultOptions()
	opts.IncludeSources = false

	out, err := NewMarkdownExporter(opts).Export(conv, msgs)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "**Sources**") {
		t.Error("sources section should be omitted")
	}
}

func TestMarkdownYAMLEscaping(t *testing.T) {
	conv, msgs := sampleConversation()
	conv.Title = "Line one\nInjection: malicious"

	out, err := NewMarkdownExporter(nil).Export(conv, msgs)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "title: Line one\nInjection") {
		t.Error("newline not escaped in YAML value")
	}
}

func TestJSONExportRoundTrips(t *testing.T) {
	conv, msgs := sampleConversation()
	out, err := NewJSONExporter(nil).Export(conv, msgs)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var doc struct {
		Title    string `json:"title"`
		Mode     string `json:"mode"`
		Messages []struct {
			Role       string         `json:"role"`
			Content    string         `json:"content"`
			Sources    []model.Source `json:"sources"`
			Confidence string         `json:"confidence"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc.Title != "Contract review" || doc.Mode != "workspace" {
		t.Errorf("header = %+v", doc)
	}
	if len(doc.Messages) != 2 {
		t.Fatalf("messages = %d", len(doc.Messages))
	}
	assistant := doc.Messages[1]
	if len(assistant.Sources) != 2 {
		t.Errorf("sources = %+v", assistant.Sources)
	}
	if assistant.Confidence != "high" {
		t.Errorf("aggregate confidence = %q", assistant.Confidence)
	}
	if doc.Messages[0].Confidence != "" {
		t.Error("user messages should carry no confidence")
	}
}

func TestExportRejectsEmpty(t *testing.T) {
	conv, _ := sampleConversation()
	if _, err := NewMarkdownExporter(nil).Export(nil, nil); err == nil {
		t.Error("nil conversation accepted")
	}
	if _, err := NewMarkdownExporter(nil).Export(conv, nil); err == nil {
		t.Error("empty history accepted")
	}
	if _, err := NewJSONExporter(nil).Export(conv, []model.Message{}); err == nil {
		t.Error("empty history accepted by JSON exporter")
	}
}

func TestExportToFile(t *testing.T) {
	conv, msgs := sampleConversation()
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()

	path, err := ExportMarkdown(conv, msgs, opts)
	if err != nil {
		t.Fatalf("ExportMarkdown: %v", err)
	}
	if !strings.HasSuffix(path, ".md") {
		t.Errorf("path = %q", path)
	}
	if !strings.Contains(path, "Contract_review") {
		t.Errorf("filename should derive from sanitized title: %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 {
		t.Error("empty export file")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"simple", "simple"},
		{"a/b\\c:d", "a-b-c-d"},
		{"with space", "with_space"},
		{"", "conversation"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
