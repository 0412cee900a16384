/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package refdata loads the scheduling reference data (programming
// schedules, market assignments, language blocks) into an immutable
// in-memory snapshot for the duration of a batch run. All lookups are
// served from the snapshot; the database is not touched again after
// Load returns.
package refdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/castmetrics/langblock/internal/airtime"
	"github.com/castmetrics/langblock/internal/models"
)

// ErrReferenceData indicates the reference tables could not be loaded.
// This is fatal for a batch run.
var ErrReferenceData = errors.New("reference data unavailable")

// Block is a language block with its window pre-converted to minutes.
type Block struct {
	ID           string
	ScheduleID   string
	DayOfWeek    string
	Name         string
	LanguageCode string
	StartMinutes int
	EndMinutes   int
}

type scheduleDayKey struct {
	scheduleID string
	day        string
}

type resolveKey struct {
	marketID string
	date     string // yyyy-mm-dd
}

type resolveResult struct {
	scheduleID string
	ok         bool
}

// Snapshot is the immutable reference data for one batch run. Schedule
// resolution is memoized per (market, date); the memo map is the only
// mutable state and is guarded for concurrent evaluators.
type Snapshot struct {
	logger zerolog.Logger

	activeSchedules     map[string]bool
	assignmentsByMarket map[string][]models.ScheduleMarketAssignment
	blocksByScheduleDay map[scheduleDayKey][]Block

	mu          sync.RWMutex
	resolveMemo map[resolveKey]resolveResult
}

// Load reads the reference tables and builds a snapshot. Any query
// failure wraps ErrReferenceData.
func Load(ctx context.Context, database *gorm.DB, logger zerolog.Logger) (*Snapshot, error) {
	var schedules []models.ProgrammingSchedule
	if err := database.WithContext(ctx).Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("%w: load schedules: %v", ErrReferenceData, err)
	}

	var assignments []models.ScheduleMarketAssignment
	if err := database.WithContext(ctx).Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("%w: load market assignments: %v", ErrReferenceData, err)
	}

	var blocks []models.LanguageBlock
	if err := database.WithContext(ctx).Where("active = ?", true).Find(&blocks).Error; err != nil {
		return nil, fmt.Errorf("%w: load language blocks: %v", ErrReferenceData, err)
	}

	snap := New(schedules, assignments, blocks, logger)
	logger.Info().
		Int("schedules", len(schedules)).
		Int("market_assignments", len(assignments)).
		Int("blocks", len(blocks)).
		Msg("reference data snapshot loaded")

	return snap, nil
}

// New builds a snapshot from already-fetched rows. Inactive blocks are
// dropped; inactive schedules are kept but never resolve.
func New(
	schedules []models.ProgrammingSchedule,
	assignments []models.ScheduleMarketAssignment,
	blocks []models.LanguageBlock,
	logger zerolog.Logger,
) *Snapshot {
	snap := &Snapshot{
		logger:              logger.With().Str("component", "refdata").Logger(),
		activeSchedules:     make(map[string]bool, len(schedules)),
		assignmentsByMarket: make(map[string][]models.ScheduleMarketAssignment),
		blocksByScheduleDay: make(map[scheduleDayKey][]Block),
		resolveMemo:         make(map[resolveKey]resolveResult),
	}

	for _, s := range schedules {
		snap.activeSchedules[s.ID] = s.Active
	}

	for _, a := range assignments {
		snap.assignmentsByMarket[a.MarketID] = append(snap.assignmentsByMarket[a.MarketID], a)
	}

	for _, b := range blocks {
		if !b.Active {
			continue
		}
		key := scheduleDayKey{b.ScheduleID, models.NormalizeDayOfWeek(b.DayOfWeek)}
		snap.blocksByScheduleDay[key] = append(snap.blocksByScheduleDay[key], Block{
			ID:           b.ID,
			ScheduleID:   b.ScheduleID,
			DayOfWeek:    models.NormalizeDayOfWeek(b.DayOfWeek),
			Name:         b.Name,
			LanguageCode: b.LanguageCode,
			StartMinutes: airtime.ToMinutes(b.TimeStart),
			EndMinutes:   airtime.ToMinutes(b.TimeEnd),
		})
	}

	// Stable ordering keeps blocks_spanned lists deterministic across runs.
	for key := range snap.blocksByScheduleDay {
		list := snap.blocksByScheduleDay[key]
		sort.Slice(list, func(i, j int) bool {
			if list[i].StartMinutes != list[j].StartMinutes {
				return list[i].StartMinutes < list[j].StartMinutes
			}
			return list[i].ID < list[j].ID
		})
		snap.blocksByScheduleDay[key] = list
		snap.warnSameLanguageOverlap(key, list)
	}

	return snap
}

// warnSameLanguageOverlap surfaces grid anomalies: two blocks of the
// same language overlapping on one schedule/day. Adjacent blocks of
// different languages touching at boundaries are expected and ignored.
func (s *Snapshot) warnSameLanguageOverlap(key scheduleDayKey, list []Block) {
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			if list[i].LanguageCode != list[j].LanguageCode {
				continue
			}
			if airtime.Overlaps(list[i].StartMinutes, list[i].EndMinutes, list[j].StartMinutes, list[j].EndMinutes) {
				s.logger.Warn().
					Str("schedule_id", key.scheduleID).
					Str("day", key.day).
					Str("language", list[i].LanguageCode).
					Str("block_a", list[i].ID).
					Str("block_b", list[j].ID).
					Msg("overlapping same-language blocks in grid")
			}
		}
	}
}

// ResolveSchedule returns the schedule in force for a market on a date.
// Candidates are assignments whose effective range contains the date and
// whose schedule is active; the highest assignment_priority wins, then
// the most recent effective_from. Overlapping candidates are logged as a
// collision anomaly, never an error. Results are memoized per
// (market, date).
func (s *Snapshot) ResolveSchedule(marketID string, date time.Time) (string, bool) {
	key := resolveKey{marketID, date.Format("2006-01-02")}

	s.mu.RLock()
	if cached, ok := s.resolveMemo[key]; ok {
		s.mu.RUnlock()
		return cached.scheduleID, cached.ok
	}
	s.mu.RUnlock()

	result := s.resolve(marketID, date)

	s.mu.Lock()
	s.resolveMemo[key] = result
	s.mu.Unlock()

	return result.scheduleID, result.ok
}

func (s *Snapshot) resolve(marketID string, date time.Time) resolveResult {
	day := truncateToDay(date)

	candidates := make([]models.ScheduleMarketAssignment, 0, 2)
	for _, a := range s.assignmentsByMarket[marketID] {
		if truncateToDay(a.EffectiveFrom).After(day) {
			continue
		}
		if a.EffectiveTo != nil && truncateToDay(*a.EffectiveTo).Before(day) {
			continue
		}
		if !s.activeSchedules[a.ScheduleID] {
			continue
		}
		candidates = append(candidates, a)
	}

	if len(candidates) == 0 {
		return resolveResult{}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].AssignmentPriority != candidates[j].AssignmentPriority {
			return candidates[i].AssignmentPriority > candidates[j].AssignmentPriority
		}
		return candidates[i].EffectiveFrom.After(candidates[j].EffectiveFrom)
	})

	if len(candidates) > 1 {
		// Overlapping assignments are a data anomaly worth surfacing,
		// but the priority order still yields a deterministic winner.
		s.logger.Warn().
			Str("market_id", marketID).
			Str("date", day.Format("2006-01-02")).
			Str("winner_assignment_id", candidates[0].ID).
			Str("shadowed_assignment_id", candidates[1].ID).
			Int("candidates", len(candidates)).
			Msg("overlapping schedule market assignments")
	}

	return resolveResult{scheduleID: candidates[0].ScheduleID, ok: true}
}

// FindBlocks returns the active blocks for a schedule and day whose
// windows overlap [timeIn, timeOut). An empty result is a normal grid
// gap, not a fault. A zero-length window with an indeterminate raw time
// still matches blocks containing its start minute.
func (s *Snapshot) FindBlocks(scheduleID, dayOfWeek, timeIn, timeOut string) []Block {
	key := scheduleDayKey{scheduleID, models.NormalizeDayOfWeek(dayOfWeek)}
	dayBlocks := s.blocksByScheduleDay[key]
	if len(dayBlocks) == 0 {
		return nil
	}

	in := airtime.ToMinutes(timeIn)
	var out int
	if airtime.IsNextDay(timeOut) {
		out = airtime.MinutesPerDay // normalized wrap; the window runs to midnight and beyond
	} else {
		out = airtime.ToMinutes(timeOut)
	}

	// A spot with equal in/out times is treated as a one-minute probe so
	// containment checks still find its block.
	if out == in {
		out = in + 1
	}

	matched := make([]Block, 0, 2)
	for _, b := range dayBlocks {
		if airtime.Overlaps(b.StartMinutes, b.EndMinutes, in, out) {
			matched = append(matched, b)
		}
	}
	return matched
}

// BlockContains reports whether a spot window sits fully inside a block.
func BlockContains(b Block, timeIn, timeOut string) bool {
	in := airtime.ToMinutes(timeIn)
	var out int
	if airtime.IsNextDay(timeOut) {
		out = airtime.MinutesPerDay
	} else {
		out = airtime.ToMinutes(timeOut)
	}
	if out == in {
		out = in + 1
	}
	return airtime.Contains(b.StartMinutes, b.EndMinutes, in, out)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
