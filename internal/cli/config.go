// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - configuration show/get/set command.
package cli

import (
	"fmt"

	"github.com/jeranaias/workbench-tui/internal/config"
)

// HandleConfig shows all keys, reads one key, or sets a key and saves.
func HandleConfig(cfg *config.Config, args Args) {
	switch {
	case args.ConfigKey == "" || args.ConfigKey == "show":
		showConfig(cfg)

	case args.ConfigVal == "":
		val, err := cfg.Get(args.ConfigKey)
		if err != nil {
			Fatalf("%v", err)
		}
		fmt.Printf("%v\n", val)

	default:
		if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
			Fatalf("%v", err)
		}
		if err := cfg.Validate(); err != nil {
			Fatalf("%v", err)
		}
		path, err := config.ConfigPath()
		if err != nil {
			Fatalf("%v", err)
		}
		if err := config.SaveTOML(cfg, path); err != nil {
			Fatalf("%v", err)
		}
		fmt.Printf("%s = %s\n", args.ConfigKey, args.ConfigVal)
	}
}

func showConfig(cfg *config.Config) {
	for _, key := range config.GetAllKeys() {
		val, err := cfg.Get(key)
		if err != nil {
			continue
		}
		fmt.Printf("%-28s %v\n", key, val)
	}
}
