/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package engine

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TimePattern is one canonical start/end pair treated as run-of-schedule
// regardless of duration.
type TimePattern struct {
	TimeIn  string `yaml:"time_in"`
	TimeOut string `yaml:"time_out"`
}

// RulesConfig carries the tunable parameters of the precedence rules.
// The late/early start cutoffs and the pattern list were patched
// repeatedly in the legacy scripts; they are configuration here so
// product can adjust them without a release.
type RulesConfig struct {
	Version int `yaml:"version"`

	// Direct response broker identities. A spot whose agency name
	// contains any of AgencyContains (case-insensitive) or whose bill
	// code starts with any of BillCodePrefixes is brokered DR inventory.
	AgencyContains   []string `yaml:"agency_contains"`
	BillCodePrefixes []string `yaml:"bill_code_prefixes"`

	// ROS thresholds, minutes.
	ROSGeneralMinutes   int `yaml:"ros_general_minutes"`
	ROSNonprofitMinutes int `yaml:"ros_nonprofit_minutes"`

	// ROS time-pattern parameters.
	LateStartHour  int           `yaml:"late_start_hour"`  // starts at/after this hour crossing midnight
	EarlyStartHour int           `yaml:"early_start_hour"` // starts before this hour running to next day
	AllDayPatterns []TimePattern `yaml:"all_day_patterns"`

	// Revenue types that mean paid programming.
	PaidProgrammingTypes []string `yaml:"paid_programming_types"`
}

// DefaultRules returns the production rule parameters.
func DefaultRules() RulesConfig {
	return RulesConfig{
		Version:          1,
		AgencyContains:   []string{"icon media", "icon international"},
		BillCodePrefixes: []string{"IT-", "DR-"},

		ROSGeneralMinutes:   360,
		ROSNonprofitMinutes: 720,

		LateStartHour:  19,
		EarlyStartHour: 6,
		AllDayPatterns: []TimePattern{
			{TimeIn: "06:00:00", TimeOut: "23:59:00"},
			{TimeIn: "00:00:00", TimeOut: "23:59:00"},
			{TimeIn: "05:00:00", TimeOut: "01:00:00"},
			{TimeIn: "06:00:00", TimeOut: "02:00:00"},
		},

		PaidProgrammingTypes: []string{"paid programming", "infomercial"},
	}
}

// LoadRules reads a rules config file, filling unset numeric fields from
// the defaults.
func LoadRules(path string) (RulesConfig, error) {
	cfg := DefaultRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read rules config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse rules config: %w", err)
	}

	def := DefaultRules()
	if cfg.ROSGeneralMinutes <= 0 {
		cfg.ROSGeneralMinutes = def.ROSGeneralMinutes
	}
	if cfg.ROSNonprofitMinutes <= 0 {
		cfg.ROSNonprofitMinutes = def.ROSNonprofitMinutes
	}
	if cfg.LateStartHour <= 0 {
		cfg.LateStartHour = def.LateStartHour
	}
	if cfg.EarlyStartHour <= 0 {
		cfg.EarlyStartHour = def.EarlyStartHour
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("rules config: %w", err)
	}

	return cfg, nil
}

// Validate checks cross-field consistency. Callers that override fields
// after loading re-run it on the final values.
func (rc RulesConfig) Validate() error {
	if rc.ROSGeneralMinutes <= 0 || rc.ROSNonprofitMinutes <= 0 {
		return fmt.Errorf("ros thresholds must be positive")
	}
	if rc.ROSNonprofitMinutes < rc.ROSGeneralMinutes {
		return fmt.Errorf("nonprofit threshold %d below general threshold %d",
			rc.ROSNonprofitMinutes, rc.ROSGeneralMinutes)
	}
	return nil
}

func (rc RulesConfig) matchesBroker(agencyName, billCode string) bool {
	agency := strings.ToLower(strings.TrimSpace(agencyName))
	for _, needle := range rc.AgencyContains {
		if needle != "" && strings.Contains(agency, strings.ToLower(needle)) {
			return true
		}
	}
	code := strings.ToUpper(strings.TrimSpace(billCode))
	for _, prefix := range rc.BillCodePrefixes {
		if prefix != "" && strings.HasPrefix(code, strings.ToUpper(prefix)) {
			return true
		}
	}
	return false
}

func (rc RulesConfig) matchesPaidProgramming(revenueType string) bool {
	rt := strings.ToLower(strings.TrimSpace(revenueType))
	if rt == "" {
		return false
	}
	for _, t := range rc.PaidProgrammingTypes {
		if rt == strings.ToLower(t) {
			return true
		}
	}
	return false
}
