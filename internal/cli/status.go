// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - backend and engine status command.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jeranaias/workbench-tui/internal/config"
)

// statusReport is the --json output shape.
type statusReport struct {
	Backend       string   `json:"backend"`
	Reachable     bool     `json:"reachable"`
	Error         string   `json:"error,omitempty"`
	EngineRunning bool     `json:"engine_running"`
	Models        []string `json:"models,omitempty"`
	Workspaces    int      `json:"workspaces"`
	Mode          string   `json:"mode"`
	Model         string   `json:"model,omitempty"`
	Strategy      string   `json:"strategy"`
}

// HandleStatus checks the backend, the inference engine, and reports
// the effective settings.
func HandleStatus(cfg *config.Config, args Args, logger *zap.Logger) {
	client := NewClient(cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout())
	defer cancel()

	report := statusReport{
		Backend:  cfg.Server.BaseURL,
		Mode:     cfg.Chat.Mode,
		Model:    cfg.Chat.Model,
		Strategy: cfg.Chat.RetrievalStrategy,
	}

	if err := client.Health(ctx); err != nil {
		report.Error = err.Error()
	} else {
		report.Reachable = true

		if es, err := client.EngineStatus(ctx); err == nil {
			report.EngineRunning = es.Running
			for _, m := range es.Models {
				report.Models = append(report.Models, m.Name)
			}
		}
		if ws, err := client.ListWorkspaces(ctx); err == nil {
			report.Workspaces = len(ws)
		}
	}

	if args.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
		if !report.Reachable {
			os.Exit(1)
		}
		return
	}

	fmt.Println(styled(headerStyle, "workbench status"))
	fmt.Printf("  backend     %s\n", report.Backend)
	if !report.Reachable {
		fmt.Printf("  reachable   %s\n", styled(errorStyle, "no ("+report.Error+")"))
		os.Exit(1)
	}
	fmt.Printf("  reachable   %s\n", styled(infoStyle, "yes"))

	engine := "stopped"
	if report.EngineRunning {
		engine = "running"
	}
	fmt.Printf("  engine      %s\n", engine)
	if len(report.Models) > 0 {
		fmt.Printf("  models      %d available\n", len(report.Models))
		if args.Verbose {
			for _, m := range report.Models {
				fmt.Printf("              %s\n", m)
			}
		}
	}
	fmt.Printf("  workspaces  %d\n", report.Workspaces)
	fmt.Printf("  mode        %s\n", report.Mode)
	if report.Model != "" {
		fmt.Printf("  model       %s\n", report.Model)
	}
	fmt.Printf("  strategy    %s\n", report.Strategy)
}
