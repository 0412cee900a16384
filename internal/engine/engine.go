/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package engine classifies spots against the programming grid. Rules
// are an explicit ordered list evaluated first-match-wins; the order is
// the business precedence, not a scoring system. Evaluation never fails
// a spot: the worst outcome is an unresolved decision flagged for
// manual review.
package engine

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/castmetrics/langblock/internal/airtime"
	"github.com/castmetrics/langblock/internal/language"
	"github.com/castmetrics/langblock/internal/models"
	"github.com/castmetrics/langblock/internal/refdata"
)

// Confidence scores per assignment method.
const (
	confidenceDirectResponse = 1.0
	confidenceROS            = 0.95
	confidencePaidProgram    = 0.95
	confidenceSector         = 0.9
	confidenceSingleBlock    = 1.0
	confidencePartialBlock   = 0.7
	confidenceSameFamily     = 0.9
	confidenceMultiLanguage  = 0.85
)

// Decision is the engine's verdict for one spot.
type Decision struct {
	SpotID     string
	ScheduleID *string
	BlockID    *string

	CampaignType        models.CampaignType
	CustomerIntent      models.CustomerIntent
	AssignmentMethod    models.AssignmentMethod
	SpansMultipleBlocks bool
	BlocksSpanned       []string
	PrimaryLanguage     string

	Confidence        float64
	RequiresAttention bool
	AttentionReason   string
}

// Rule is one step of the precedence chain. Match returns nil when the
// rule does not apply.
type Rule struct {
	Name  models.AssignmentMethod
	Match func(ev *evaluation) *Decision
}

// Engine evaluates spots against the reference snapshot. Stateless past
// construction; safe for concurrent use.
type Engine struct {
	snapshot *refdata.Snapshot
	families *language.Families
	rules    RulesConfig
	chain    []Rule
	logger   zerolog.Logger
}

// evaluation carries one spot's derived values through the rule chain.
type evaluation struct {
	spot       *models.Spot
	duration   int
	agencyName string
	sector     models.SectorCode
}

// New builds an engine with the standard rule order.
func New(snapshot *refdata.Snapshot, families *language.Families, rules RulesConfig, logger zerolog.Logger) *Engine {
	e := &Engine{
		snapshot: snapshot,
		families: families,
		rules:    rules,
		logger:   logger.With().Str("component", "rule_engine").Logger(),
	}

	// The order of this slice is the business precedence. Direct
	// response must outrank every duration and pattern rule; block
	// matching is always the fallback.
	e.chain = []Rule{
		{Name: models.MethodDirectResponse, Match: e.matchDirectResponse},
		{Name: models.MethodROSDuration, Match: e.matchROSByDuration},
		{Name: models.MethodROSPattern, Match: e.matchROSByPattern},
		{Name: models.MethodPaidProgram, Match: e.matchPaidProgramming},
		{Name: models.MethodSectorOverride, Match: e.matchSectorOverride},
		{Name: models.MethodBlockMatch, Match: e.matchBlocks},
	}

	return e
}

// RuleOrder exposes the evaluation order for diagnostics and tests.
func (e *Engine) RuleOrder() []models.AssignmentMethod {
	order := make([]models.AssignmentMethod, len(e.chain))
	for i, r := range e.chain {
		order[i] = r.Name
	}
	return order
}

// Evaluate classifies one spot. The first matching rule wins and
// short-circuits the rest of the chain.
func (e *Engine) Evaluate(spot *models.Spot) Decision {
	// An absent air time parses to the zero sentinel, which is
	// indistinguishable from midnight: every duration and block lookup
	// built on it would be silently wrong. Defer such spots to review
	// before any rule runs.
	if strings.TrimSpace(spot.TimeIn) == "" || strings.TrimSpace(spot.TimeOut) == "" {
		return e.unresolved(spot, nil, "spot air times missing")
	}

	ev := &evaluation{
		spot:     spot,
		duration: airtime.Duration(spot.TimeIn, spot.TimeOut),
	}
	if spot.Agency != nil {
		ev.agencyName = spot.Agency.Name
	}
	if spot.Customer != nil {
		ev.sector = spot.Customer.Sector
	}

	for _, rule := range e.chain {
		if d := rule.Match(ev); d != nil {
			e.logger.Debug().
				Str("spot_id", spot.ID).
				Str("method", string(d.AssignmentMethod)).
				Str("campaign_type", string(d.CampaignType)).
				Msg("spot classified")
			if spot.LanguageHint != "" && d.PrimaryLanguage != "" && !LanguageHintMatches(spot, *d) {
				e.logger.Debug().
					Str("spot_id", spot.ID).
					Str("hint", spot.LanguageHint).
					Str("primary_language", d.PrimaryLanguage).
					Msg("language hint disagrees with decision")
			}
			return *d
		}
	}

	// The block-match fallback always returns a decision, so the chain
	// cannot fall through; this is unreachable by construction.
	return e.unresolved(spot, nil, "no rule produced a decision")
}

// Rule 1: direct response. Brokered DR inventory runs wherever there is
// remnant time, so the advertiser has no language intent.
func (e *Engine) matchDirectResponse(ev *evaluation) *Decision {
	if !e.rules.matchesBroker(ev.agencyName, ev.spot.BillCode) {
		return nil
	}
	return &Decision{
		SpotID:              ev.spot.ID,
		CampaignType:        models.CampaignDirectResponse,
		CustomerIntent:      models.IntentIndifferent,
		AssignmentMethod:    models.MethodDirectResponse,
		SpansMultipleBlocks: true,
		BlocksSpanned:       e.spannedBlockIDs(ev),
		Confidence:          confidenceDirectResponse,
	}
}

// Rule 2: run-of-schedule by duration.
func (e *Engine) matchROSByDuration(ev *evaluation) *Decision {
	if ev.duration <= e.rules.ROSGeneralMinutes {
		return nil
	}
	d := e.rosDecision(ev, models.MethodROSDuration)
	return &d
}

// Rule 3: run-of-schedule by canonical time pattern.
func (e *Engine) matchROSByPattern(ev *evaluation) *Decision {
	if !e.matchesTimePattern(ev.spot.TimeIn, ev.spot.TimeOut) {
		return nil
	}
	d := e.rosDecision(ev, models.MethodROSPattern)
	return &d
}

func (e *Engine) matchesTimePattern(timeIn, timeOut string) bool {
	in := airtime.ToMinutes(timeIn)

	for _, p := range e.rules.AllDayPatterns {
		if in == airtime.ToMinutes(p.TimeIn) && sameEndTime(timeOut, p.TimeOut) {
			return true
		}
	}

	// Late-night starts that cross midnight, and very early starts that
	// run into the next day, are broad-rotation buys in practice.
	crossesMidnight := airtime.IsNextDay(timeOut) || airtime.ToMinutes(timeOut) < in
	if !crossesMidnight {
		return false
	}
	if in >= e.rules.LateStartHour*60 {
		return true
	}
	if in < e.rules.EarlyStartHour*60 && airtime.IsNextDay(timeOut) {
		return true
	}
	return false
}

// sameEndTime compares end times by minute value; whether the rollover
// is marked explicitly or implied by ordering does not matter here.
func sameEndTime(actual, pattern string) bool {
	return airtime.ToMinutes(actual) == airtime.ToMinutes(pattern)
}

// Rule 4: paid programming.
func (e *Engine) matchPaidProgramming(ev *evaluation) *Decision {
	if !e.rules.matchesPaidProgramming(ev.spot.RevenueType) {
		return nil
	}
	return &Decision{
		SpotID:              ev.spot.ID,
		CampaignType:        models.CampaignPaidProgramming,
		CustomerIntent:      models.IntentTimeTargeted,
		AssignmentMethod:    models.MethodPaidProgram,
		SpansMultipleBlocks: true,
		BlocksSpanned:       e.spannedBlockIDs(ev),
		Confidence:          confidencePaidProgram,
	}
}

// Rule 5: sector overrides. Government, political, and general-media
// buys run broadly by contract; nonprofit buys only count as ROS past
// the higher duration bar.
func (e *Engine) matchSectorOverride(ev *evaluation) *Decision {
	switch ev.sector {
	case models.SectorGovernment, models.SectorPolitical, models.SectorMedia:
		d := e.rosDecision(ev, models.MethodSectorOverride)
		d.Confidence = confidenceSector
		return &d
	case models.SectorNonprofit:
		if ev.duration > e.rules.ROSNonprofitMinutes {
			d := e.rosDecision(ev, models.MethodSectorOverride)
			d.Confidence = confidenceSector
			return &d
		}
	}
	return nil
}

// Rule 6: block match fallback.
func (e *Engine) matchBlocks(ev *evaluation) *Decision {
	spot := ev.spot

	scheduleID, ok := e.snapshot.ResolveSchedule(spot.MarketID, spot.AirDate)
	if !ok {
		d := e.unresolved(spot, nil, "no schedule assigned to market for air date")
		return &d
	}

	blocks := e.snapshot.FindBlocks(scheduleID, spot.DayOfWeek, spot.TimeIn, spot.TimeOut)
	if len(blocks) == 0 {
		d := e.unresolved(spot, &scheduleID, "no matching block")
		return &d
	}

	if len(blocks) == 1 {
		b := blocks[0]
		d := Decision{
			SpotID:           spot.ID,
			ScheduleID:       &scheduleID,
			BlockID:          &b.ID,
			CampaignType:     models.CampaignLanguageSpecific,
			CustomerIntent:   models.IntentLanguageTargeted,
			AssignmentMethod: models.MethodBlockMatch,
			PrimaryLanguage:  language.Normalize(b.LanguageCode),
			Confidence:       confidenceSingleBlock,
		}
		if !refdata.BlockContains(b, spot.TimeIn, spot.TimeOut) {
			// Spot leaks past the block edge into a grid gap; keep the
			// block but surface it for review.
			d.Confidence = confidencePartialBlock
			d.RequiresAttention = true
			d.AttentionReason = "spot window extends past block boundary"
		}
		return &d
	}

	// Multiple blocks: whether this is still a single-audience buy
	// depends on the language families involved, not on the block count.
	codes := make([]string, 0, len(blocks))
	ids := make([]string, 0, len(blocks))
	for _, b := range blocks {
		codes = append(codes, b.LanguageCode)
		ids = append(ids, b.ID)
	}
	cls := e.families.Classify(codes)

	d := Decision{
		SpotID:              spot.ID,
		ScheduleID:          &scheduleID,
		AssignmentMethod:    models.MethodMultiBlock,
		SpansMultipleBlocks: true,
		BlocksSpanned:       ids,
		PrimaryLanguage:     cls.Primary,
	}

	if cls.IsSingleAudience() {
		d.CampaignType = models.CampaignLanguageSpecific
		d.CustomerIntent = models.IntentLanguageTargeted
		d.Confidence = confidenceSameFamily
		if cls.Kind == language.SameLanguage {
			d.Confidence = confidenceSingleBlock
		}
	} else {
		d.CampaignType = models.CampaignMultiLanguage
		d.CustomerIntent = models.IntentIndifferent
		d.Confidence = confidenceMultiLanguage
	}

	return &d
}

// rosDecision builds the shared run-of-schedule result.
func (e *Engine) rosDecision(ev *evaluation, method models.AssignmentMethod) Decision {
	return Decision{
		SpotID:              ev.spot.ID,
		CampaignType:        models.CampaignROS,
		CustomerIntent:      models.IntentIndifferent,
		AssignmentMethod:    method,
		SpansMultipleBlocks: true,
		BlocksSpanned:       e.spannedBlockIDs(ev),
		Confidence:          confidenceROS,
	}
}

// spannedBlockIDs lists the blocks a broad-rotation spot actually
// crossed, when the grid is known. A broad spot with no resolvable grid
// still gets the day's placeholder so the multi-block invariant holds.
func (e *Engine) spannedBlockIDs(ev *evaluation) []string {
	spot := ev.spot
	scheduleID, ok := e.snapshot.ResolveSchedule(spot.MarketID, spot.AirDate)
	if ok {
		blocks := e.snapshot.FindBlocks(scheduleID, spot.DayOfWeek, spot.TimeIn, spot.TimeOut)
		if len(blocks) > 0 {
			ids := make([]string, 0, len(blocks))
			for _, b := range blocks {
				ids = append(ids, b.ID)
			}
			return ids
		}
	}
	return []string{allBlocksMarker}
}

// allBlocksMarker stands in for "every block of the day" when a broad
// spot cannot be mapped to a concrete grid.
const allBlocksMarker = "ALL"

func (e *Engine) unresolved(spot *models.Spot, scheduleID *string, reason string) Decision {
	return Decision{
		SpotID:            spot.ID,
		ScheduleID:        scheduleID,
		CustomerIntent:    models.IntentUnknown,
		AssignmentMethod:  models.MethodUnresolved,
		Confidence:        0,
		RequiresAttention: true,
		AttentionReason:   reason,
	}
}

// LanguageHintMatches reports whether the spot's freeform language hint
// agrees with the decided primary language, used by diagnostics.
func LanguageHintMatches(spot *models.Spot, d Decision) bool {
	hint := language.Normalize(spot.LanguageHint)
	if hint == "" || d.PrimaryLanguage == "" {
		return false
	}
	return strings.HasPrefix(d.PrimaryLanguage, hint) || strings.HasPrefix(hint, d.PrimaryLanguage)
}
