/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/castmetrics/langblock/internal/assign"
	"github.com/castmetrics/langblock/internal/engine"
	"github.com/castmetrics/langblock/internal/eventbus"
	"github.com/castmetrics/langblock/internal/language"
	"github.com/castmetrics/langblock/internal/refdata"
	"github.com/castmetrics/langblock/internal/runlock"
	"github.com/castmetrics/langblock/internal/telemetry"
)

const summaryRounding = time.Millisecond

// Assign flags
var (
	assignLimit     int
	assignBatchSize int
	assignMarketID  string
	assignDryRun    bool
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign language blocks to spots lacking a decision",
	Long: `Selects every spot without an assignment decision, runs it through the
precedence rule engine, and persists one decision per spot. Unresolved
spots are written flagged for manual review; a single spot's failure
never aborts the run.

The process exits non-zero only on systemic failure: unreadable
reference data, a lost run lock, or an engine invariant violation.

Examples:
  langblock assign --dry-run --limit 100
  langblock assign --market 7f0f...c2 --batch-size 1000
  langblock assign`,
	RunE: runAssign,
}

func init() {
	rootCmd.AddCommand(assignCmd)

	assignCmd.Flags().IntVar(&assignLimit, "limit", 0, "Cap the number of spots processed (0 = all pending)")
	assignCmd.Flags().IntVar(&assignBatchSize, "batch-size", 0, "Spots per commit group (default from config)")
	assignCmd.Flags().StringVar(&assignMarketID, "market", "", "Limit to a specific market (optional)")
	assignCmd.Flags().BoolVar(&assignDryRun, "dry-run", false, "Evaluate without writing")
}

func runAssign(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Single logical writer: take the lease before touching the store.
	if cfg.RunLockEnabled && !assignDryRun {
		lock := runlock.New(runlock.Config{
			RedisAddr:     cfg.RedisAddr,
			RedisPassword: cfg.RedisPassword,
			RedisDB:       cfg.RedisDB,
		}, logger)
		if err := lock.Acquire(ctx); err != nil {
			return fmt.Errorf("acquire run lock: %w", err)
		}
		defer lock.Release(context.Background())
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}

	families := language.Default()
	if cfg.FamilyTablePath != "" {
		families, err = language.LoadFile(cfg.FamilyTablePath)
		if err != nil {
			return fmt.Errorf("load family table: %w", err)
		}
	}

	rules := engine.DefaultRules()
	if cfg.RulesConfigPath != "" {
		rules, err = engine.LoadRules(cfg.RulesConfigPath)
		if err != nil {
			return fmt.Errorf("load rules config: %w", err)
		}
	}
	// Thresholds set explicitly in the environment outrank the rules
	// file; file values are otherwise left untouched.
	if cfg.ROSFromEnv.GeneralMinutes {
		rules.ROSGeneralMinutes = cfg.ROSGeneralMinutes
	}
	if cfg.ROSFromEnv.NonprofitMinutes {
		rules.ROSNonprofitMinutes = cfg.ROSNonprofitMinutes
	}
	if cfg.ROSFromEnv.LateStartHour {
		rules.LateStartHour = cfg.ROSLateStartHour
	}
	if cfg.ROSFromEnv.EarlyStartHour {
		rules.EarlyStartHour = cfg.ROSEarlyStartHour
	}
	if err := rules.Validate(); err != nil {
		return fmt.Errorf("rules config: %w", err)
	}

	// Reference data is loaded once and treated as immutable for the
	// run. A load failure is fatal for the whole batch.
	snapshot, err := refdata.Load(ctx, database, logger)
	if err != nil {
		return err
	}

	var publisher assign.DecisionPublisher
	if cfg.NATSEnabled && !assignDryRun {
		p, err := eventbus.Connect(cfg.NATSURL, logger)
		if err != nil {
			return fmt.Errorf("connect decision stream: %w", err)
		}
		defer p.Close()
		publisher = p
	}

	metrics := telemetry.NewMetrics()
	metrics.Serve(cfg.MetricsBind, logger)

	eng := engine.New(snapshot, families, rules, logger)
	writer := assign.NewWriter(database, eng, publisher, logger)
	runner := assign.NewRunner(database, writer, metrics, logger)

	batchSize := cfg.BatchSize
	if assignBatchSize > 0 {
		batchSize = assignBatchSize
	}

	summary, err := runner.Run(ctx, assign.RunOptions{
		Limit:     assignLimit,
		BatchSize: batchSize,
		MarketID:  assignMarketID,
		DryRun:    assignDryRun,
	})
	if err != nil {
		if summary != nil {
			printSummary(summary)
		}
		return fmt.Errorf("batch run: %w", err)
	}

	printSummary(summary)
	return nil
}

func printSummary(summary *assign.Summary) {
	fmt.Printf("\nAssignment run %s:\n", modeLabel(assignDryRun))
	fmt.Printf("  Evaluated: %d\n", summary.Evaluated)
	fmt.Printf("  Assigned:  %d\n", summary.Assigned)
	fmt.Printf("  Flagged:   %d\n", summary.Flagged)
	fmt.Printf("  Errors:    %d\n", summary.Errored)
	fmt.Printf("  Elapsed:   %s\n", summary.Elapsed.Round(summaryRounding))

	for _, failed := range summary.Errors {
		fmt.Fprintf(os.Stderr, "  error: spot %s: %v\n", failed.SpotID, failed.Err)
	}
}

func modeLabel(dryRun bool) string {
	if dryRun {
		return "complete (dry run)"
	}
	return "complete"
}
