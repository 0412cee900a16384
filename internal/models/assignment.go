/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// CampaignType is the engine's top-level classification of a spot's
// audience-targeting intent.
type CampaignType string

const (
	CampaignLanguageSpecific CampaignType = "language_specific"
	CampaignMultiLanguage    CampaignType = "multi_language"
	CampaignRoadblock        CampaignType = "roadblock"
	CampaignDirectResponse   CampaignType = "direct_response"
	CampaignPaidProgramming  CampaignType = "paid_programming"
	CampaignROS              CampaignType = "ros"
)

// CustomerIntent records whether the advertiser targeted a language
// audience at all.
type CustomerIntent string

const (
	IntentIndifferent      CustomerIntent = "indifferent"
	IntentLanguageTargeted CustomerIntent = "language_targeted"
	IntentTimeTargeted     CustomerIntent = "time_targeted"
	IntentUnknown          CustomerIntent = "unknown"
)

// AssignmentMethod identifies which precedence rule produced a decision.
type AssignmentMethod string

const (
	MethodDirectResponse AssignmentMethod = "direct_response"
	MethodROSDuration    AssignmentMethod = "ros_duration"
	MethodROSPattern     AssignmentMethod = "ros_time_pattern"
	MethodPaidProgram    AssignmentMethod = "paid_programming"
	MethodSectorOverride AssignmentMethod = "sector_override"
	MethodBlockMatch     AssignmentMethod = "block_match"
	MethodMultiBlock     AssignmentMethod = "multi_block_family"
	MethodUnresolved     AssignmentMethod = "unresolved"
)

// BlockIDList is an ordered list of language block ids stored as a JSON
// array. The value is schema-checked on scan; the column is never parsed
// as code or free text.
type BlockIDList []string

// Value implements driver.Valuer.
func (l BlockIDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshal block id list: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *BlockIDList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("block id list: unsupported column type %T", value)
	}

	if len(data) == 0 {
		*l = nil
		return nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("block id list: %w", err)
	}
	*l = ids
	return nil
}

// SpotLanguageBlockAssignment is the engine's output: exactly one row
// per spot. Re-running a spot replaces its row, it never appends.
type SpotLanguageBlockAssignment struct {
	ID         string  `gorm:"type:uuid;primaryKey"`
	SpotID     string  `gorm:"type:uuid;uniqueIndex"`
	ScheduleID *string `gorm:"type:uuid;index"` // nil when no schedule resolved
	BlockID    *string `gorm:"type:uuid;index"` // nil for multi-block and unresolved spots

	CustomerIntent      CustomerIntent   `gorm:"type:varchar(32)"`
	CampaignType        CampaignType     `gorm:"type:varchar(32);index"`
	AssignmentMethod    AssignmentMethod `gorm:"type:varchar(32);index"`
	SpansMultipleBlocks bool
	BlocksSpanned       BlockIDList `gorm:"type:text"`
	PrimaryLanguage     string      `gorm:"type:varchar(16)"`

	Confidence        float64
	RequiresAttention bool   `gorm:"index"`
	AttentionReason   string `gorm:"type:text"`

	RunID     string `gorm:"type:uuid;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides for GORM.
func (SpotLanguageBlockAssignment) TableName() string {
	return "spot_language_block_assignments"
}

// Validate enforces the write-time invariants. A violation here is a
// defect in the rule engine, not bad input data.
func (a *SpotLanguageBlockAssignment) Validate() error {
	if a.SpotID == "" {
		return fmt.Errorf("assignment missing spot id")
	}
	if a.SpansMultipleBlocks && len(a.BlocksSpanned) == 0 {
		return fmt.Errorf("spot %s: spans_multiple_blocks set with empty blocks_spanned", a.SpotID)
	}
	if !a.SpansMultipleBlocks && len(a.BlocksSpanned) > 0 {
		return fmt.Errorf("spot %s: blocks_spanned populated without spans_multiple_blocks", a.SpotID)
	}
	if a.SpansMultipleBlocks && a.BlockID != nil {
		return fmt.Errorf("spot %s: multi-block assignment carries a single block id", a.SpotID)
	}
	return nil
}

// IsResolved reports whether the engine reached a classification rather
// than deferring the spot to manual review.
func (a *SpotLanguageBlockAssignment) IsResolved() bool {
	return a.AssignmentMethod != MethodUnresolved
}
