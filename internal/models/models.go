/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"strings"
	"time"
)

// Market is a sales market (city/region) spots are sold in.
type Market struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"uniqueIndex"`
	Code      string `gorm:"type:varchar(16);index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SectorCode classifies an advertiser's business sector.
type SectorCode string

const (
	SectorGovernment SectorCode = "GOV"
	SectorPolitical  SectorCode = "POLITICAL"
	SectorMedia      SectorCode = "MEDIA"
	SectorNonprofit  SectorCode = "NPO"
	SectorOther      SectorCode = "OTHER"
)

// Customer is an advertiser. Owned by the admin/import layer; read-only
// to the assignment engine.
type Customer struct {
	ID        string     `gorm:"type:uuid;primaryKey"`
	Name      string     `gorm:"index"`
	Sector    SectorCode `gorm:"type:varchar(16);index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Agency is a buying agency placing spots on behalf of customers.
type Agency struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Spot is one aired (or booked) advertising unit from the traffic log.
// Created by the import pipeline; the engine never mutates it.
type Spot struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	MarketID     string    `gorm:"type:uuid;index"`
	AirDate      time.Time `gorm:"index"`
	DayOfWeek    string    `gorm:"type:varchar(16)"`
	TimeIn       string    `gorm:"type:varchar(16)"` // HH:MM:SS
	TimeOut      string    `gorm:"type:varchar(16)"` // HH:MM:SS, may carry a next-day marker
	LanguageHint string    `gorm:"type:varchar(16)"` // freeform code from the traffic export
	RevenueType  string    `gorm:"type:varchar(32);index"`
	BillCode     string    `gorm:"type:varchar(64);index"`
	CustomerID   string    `gorm:"type:uuid;index"`
	AgencyID     string    `gorm:"type:uuid;index"`
	GrossRate    float64
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Customer *Customer `gorm:"foreignKey:CustomerID"`
	Agency   *Agency   `gorm:"foreignKey:AgencyID"`
}

// ProgrammingSchedule is a named, versioned grid of language blocks.
type ProgrammingSchedule struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	Name          string `gorm:"index"`
	Version       int
	ScheduleType  string     `gorm:"type:varchar(32)"`
	EffectiveFrom time.Time  `gorm:"index"`
	EffectiveTo   *time.Time // nil = open-ended
	Active        bool       `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ScheduleMarketAssignment binds a schedule to a market for a date
// range. Higher AssignmentPriority wins when ranges overlap; the overlap
// itself is an anomaly the resolver logs, not a modeled state.
type ScheduleMarketAssignment struct {
	ID                 string `gorm:"type:uuid;primaryKey"`
	ScheduleID         string `gorm:"type:uuid;index:idx_market_range"`
	MarketID           string `gorm:"type:uuid;index:idx_market_range"`
	EffectiveFrom      time.Time
	EffectiveTo        *time.Time
	AssignmentPriority int `gorm:"type:int"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LanguageBlock is one slot in a schedule's daily grid.
type LanguageBlock struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	ScheduleID   string `gorm:"type:uuid;index:idx_schedule_day"`
	DayOfWeek    string `gorm:"type:varchar(16);index:idx_schedule_day"`
	Name         string
	LanguageCode string `gorm:"type:varchar(16);index"`
	TimeStart    string `gorm:"type:varchar(16)"` // HH:MM:SS, may wrap past midnight
	TimeEnd      string `gorm:"type:varchar(16)"`
	Active       bool   `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeDayOfWeek folds the day spellings seen across traffic exports
// ("Mon", "monday", "MONDAY") onto full lowercase names.
func NormalizeDayOfWeek(day string) string {
	d := strings.ToLower(strings.TrimSpace(day))
	short := map[string]string{
		"mon": "monday", "tue": "tuesday", "tues": "tuesday",
		"wed": "wednesday", "thu": "thursday", "thur": "thursday",
		"thurs": "thursday", "fri": "friday", "sat": "saturday",
		"sun": "sunday",
	}
	if full, ok := short[d]; ok {
		return full
	}
	return d
}
