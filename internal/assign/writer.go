/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package assign persists rule engine decisions. The writer owns all
// writes to spot_language_block_assignments; everything else in the
// store is read-only reference data.
package assign

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/castmetrics/langblock/internal/engine"
	"github.com/castmetrics/langblock/internal/eventbus"
	"github.com/castmetrics/langblock/internal/models"
)

// ErrInvariant indicates the engine produced an internally inconsistent
// decision. This is a defect, not a data problem, and fails the batch.
var ErrInvariant = errors.New("assignment invariant violation")

// DecisionPublisher streams persisted decisions to the reporting layer.
type DecisionPublisher interface {
	Publish(marketID string, event eventbus.DecisionEvent) error
}

// Status of one spot's write.
type Status string

const (
	StatusAssigned Status = "assigned"
	StatusError    Status = "error"
)

// WriteResult is the per-spot outcome reported to the caller.
type WriteResult struct {
	SpotID            string
	Status            Status
	RequiresAttention bool
	Method            models.AssignmentMethod
	Err               error
}

// Writer evaluates and persists one decision per spot.
type Writer struct {
	db        *gorm.DB
	engine    *engine.Engine
	publisher DecisionPublisher // nil when streaming is disabled
	logger    zerolog.Logger
	runID     string
}

// NewWriter creates a writer for one batch run.
func NewWriter(database *gorm.DB, eng *engine.Engine, publisher DecisionPublisher, logger zerolog.Logger) *Writer {
	return &Writer{
		db:        database,
		engine:    eng,
		publisher: publisher,
		logger:    logger.With().Str("component", "assignment_writer").Logger(),
		runID:     uuid.NewString(),
	}
}

// RunID identifies this batch run on every row it writes.
func (w *Writer) RunID() string {
	return w.runID
}

// Assign evaluates a spot and upserts its decision row. Exactly one row
// exists per spot after any number of calls; a re-run replaces the prior
// decision. An ErrInvariant return means the engine is broken and the
// batch must stop.
func (w *Writer) Assign(ctx context.Context, spot *models.Spot) WriteResult {
	return w.assign(ctx, w.db, spot)
}

// AssignTx is Assign inside a caller-managed transaction; used by the
// runner's commit groups.
func (w *Writer) AssignTx(ctx context.Context, tx *gorm.DB, spot *models.Spot) WriteResult {
	return w.assign(ctx, tx, spot)
}

func (w *Writer) assign(ctx context.Context, tx *gorm.DB, spot *models.Spot) WriteResult {
	decision := w.engine.Evaluate(spot)
	row := w.toRow(decision)

	if err := row.Validate(); err != nil {
		// Fail loudly: writing a corrupt decision is worse than halting.
		return WriteResult{
			SpotID: spot.ID,
			Status: StatusError,
			Method: decision.AssignmentMethod,
			Err:    fmt.Errorf("%w: %v", ErrInvariant, err),
		}
	}

	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "spot_id"}},
			UpdateAll: true,
		}).
		Create(row).Error
	if err != nil {
		return WriteResult{
			SpotID: spot.ID,
			Status: StatusError,
			Method: decision.AssignmentMethod,
			Err:    fmt.Errorf("persist assignment for spot %s: %w", spot.ID, err),
		}
	}

	if w.publisher != nil {
		event := eventbus.DecisionEvent{
			SpotID:              row.SpotID,
			MarketID:            spot.MarketID,
			ScheduleID:          row.ScheduleID,
			BlockID:             row.BlockID,
			CampaignType:        row.CampaignType,
			AssignmentMethod:    row.AssignmentMethod,
			SpansMultipleBlocks: row.SpansMultipleBlocks,
			BlocksSpanned:       row.BlocksSpanned,
			RequiresAttention:   row.RequiresAttention,
			RunID:               w.runID,
		}
		if err := w.publisher.Publish(spot.MarketID, event); err != nil {
			// The table is the source of truth; a stream hiccup is not a
			// write failure.
			w.logger.Warn().Err(err).Str("spot_id", spot.ID).Msg("decision publish failed")
		}
	}

	return WriteResult{
		SpotID:            spot.ID,
		Status:            StatusAssigned,
		RequiresAttention: row.RequiresAttention,
		Method:            row.AssignmentMethod,
	}
}

func (w *Writer) toRow(d engine.Decision) *models.SpotLanguageBlockAssignment {
	return &models.SpotLanguageBlockAssignment{
		ID:                  uuid.NewString(),
		SpotID:              d.SpotID,
		ScheduleID:          d.ScheduleID,
		BlockID:             d.BlockID,
		CustomerIntent:      d.CustomerIntent,
		CampaignType:        d.CampaignType,
		AssignmentMethod:    d.AssignmentMethod,
		SpansMultipleBlocks: d.SpansMultipleBlocks,
		BlocksSpanned:       models.BlockIDList(d.BlocksSpanned),
		PrimaryLanguage:     d.PrimaryLanguage,
		Confidence:          d.Confidence,
		RequiresAttention:   d.RequiresAttention,
		AttentionReason:     d.AttentionReason,
		RunID:               w.runID,
	}
}
