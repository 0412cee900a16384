/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package assign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/castmetrics/langblock/internal/models"
	"github.com/castmetrics/langblock/internal/telemetry"
)

// RunOptions bounds a batch run.
type RunOptions struct {
	// Limit caps the work set; 0 means all spots missing a decision.
	Limit int
	// BatchSize is spots per commit group. Bounded transactions keep
	// long runs resumable; correctness does not depend on the size.
	BatchSize int
	// MarketID restricts the work set to one market when set.
	MarketID string
	// DryRun evaluates without writing.
	DryRun bool
}

// Summary aggregates a run's per-record outcomes.
type Summary struct {
	Evaluated int
	Assigned  int
	Errored   int
	Flagged   int
	Errors    []WriteResult // the failed records, for the caller's report
	Elapsed   time.Duration
}

// Runner drives a batch of spots through the writer in bounded commit
// groups. A single spot's failure is counted, never fatal; only
// invariant violations and systemic store failures abort the run.
type Runner struct {
	db      *gorm.DB
	writer  *Writer
	metrics *telemetry.Metrics
	logger  zerolog.Logger
}

// NewRunner creates a batch runner. metrics may be nil.
func NewRunner(database *gorm.DB, writer *Writer, metrics *telemetry.Metrics, logger zerolog.Logger) *Runner {
	return &Runner{
		db:      database,
		writer:  writer,
		metrics: metrics,
		logger:  logger.With().Str("component", "batch_runner").Logger(),
	}
}

// Run processes every spot currently missing a decision. The context is
// honored between commit groups, so an interrupt never leaves a partial
// group committed.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}

	started := time.Now()
	summary := &Summary{}

	spots, err := r.workSet(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("select work set: %w", err)
	}

	r.logger.Info().
		Int("spots", len(spots)).
		Int("batch_size", opts.BatchSize).
		Bool("dry_run", opts.DryRun).
		Str("run_id", r.writer.RunID()).
		Msg("batch run starting")

	for start := 0; start < len(spots); start += opts.BatchSize {
		if err := ctx.Err(); err != nil {
			summary.Elapsed = time.Since(started)
			r.logger.Warn().Int("processed", summary.Evaluated).Msg("batch run interrupted")
			return summary, err
		}

		end := start + opts.BatchSize
		if end > len(spots) {
			end = len(spots)
		}

		if err := r.runGroup(ctx, spots[start:end], opts.DryRun, summary); err != nil {
			summary.Elapsed = time.Since(started)
			return summary, err
		}
	}

	summary.Elapsed = time.Since(started)
	r.logger.Info().
		Int("assigned", summary.Assigned).
		Int("errored", summary.Errored).
		Int("flagged", summary.Flagged).
		Dur("elapsed", summary.Elapsed).
		Msg("batch run complete")

	return summary, nil
}

// runGroup commits one bounded group. Per-record persistence errors are
// collected; an invariant violation aborts the whole run. Each spot
// writes under its own savepoint: on postgres a failed statement poisons
// the enclosing transaction, so without the savepoint one bad row would
// fail every spot after it and roll back the whole group on commit.
func (r *Runner) runGroup(ctx context.Context, spots []models.Spot, dryRun bool, summary *Summary) error {
	groupStart := time.Now()

	process := func(tx *gorm.DB) error {
		for i := range spots {
			spot := &spots[i]

			var result WriteResult
			if dryRun {
				decision := r.writer.engine.Evaluate(spot)
				result = WriteResult{
					SpotID:            spot.ID,
					Status:            StatusAssigned,
					RequiresAttention: decision.RequiresAttention,
					Method:            decision.AssignmentMethod,
				}
			} else {
				werr := tx.Transaction(func(spotTx *gorm.DB) error {
					result = r.writer.AssignTx(ctx, spotTx, spot)
					if result.Status == StatusError {
						return result.Err
					}
					return nil
				})
				if werr != nil && result.Status != StatusError {
					// Savepoint machinery itself failed.
					result = WriteResult{SpotID: spot.ID, Status: StatusError, Err: werr}
				}
			}

			summary.Evaluated++
			if r.metrics != nil {
				r.metrics.SpotsEvaluated.Inc()
				r.metrics.RuleFired.WithLabelValues(string(result.Method)).Inc()
			}

			switch result.Status {
			case StatusAssigned:
				summary.Assigned++
				if r.metrics != nil {
					r.metrics.SpotsAssigned.Inc()
				}
				if result.RequiresAttention {
					summary.Flagged++
					if r.metrics != nil {
						r.metrics.SpotsFlagged.WithLabelValues(string(result.Method)).Inc()
					}
				}
			case StatusError:
				if errors.Is(result.Err, ErrInvariant) {
					// Defect in the engine: stop before writing more.
					return result.Err
				}
				summary.Errored++
				summary.Errors = append(summary.Errors, result)
				if r.metrics != nil {
					r.metrics.SpotsErrored.Inc()
				}
				r.logger.Error().Err(result.Err).Str("spot_id", result.SpotID).Msg("spot assignment failed")
			}
		}
		return nil
	}

	var err error
	if dryRun {
		err = process(nil)
	} else {
		err = r.db.WithContext(ctx).Transaction(process)
	}

	if r.metrics != nil {
		r.metrics.CommitDuration.Observe(time.Since(groupStart).Seconds())
	}
	return err
}

// workSet selects spots lacking a decision, oldest air dates first so
// partial runs make chronological progress.
func (r *Runner) workSet(ctx context.Context, opts RunOptions) ([]models.Spot, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Spot{}).
		Joins("LEFT JOIN spot_language_block_assignments a ON a.spot_id = spots.id").
		Where("a.id IS NULL").
		Preload("Customer").
		Preload("Agency").
		Order("spots.air_date, spots.id")

	if opts.MarketID != "" {
		q = q.Where("spots.market_id = ?", opts.MarketID)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var spots []models.Spot
	if err := q.Find(&spots).Error; err != nil {
		return nil, err
	}
	return spots, nil
}
