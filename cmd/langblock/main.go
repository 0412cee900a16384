/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/castmetrics/langblock/internal/config"
	"github.com/castmetrics/langblock/internal/db"
	"github.com/castmetrics/langblock/internal/logging"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "langblock",
	Short: "Langblock - language block assignment engine",
	Long:  "Langblock classifies advertising spots against the programming grid so revenue can be attributed to audience-language segments.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

// initDatabase opens the store using the loaded config.
func initDatabase() (*gorm.DB, error) {
	return db.Connect(cfg)
}
