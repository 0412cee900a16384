/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package refdata

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/castmetrics/langblock/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func testSnapshot() *Snapshot {
	schedules := []models.ProgrammingSchedule{
		{ID: "sched-1", Name: "Winter Grid", Active: true, EffectiveFrom: date(2024, 1, 1)},
		{ID: "sched-2", Name: "Summer Grid", Active: true, EffectiveFrom: date(2024, 6, 1)},
		{ID: "sched-dead", Name: "Retired Grid", Active: false, EffectiveFrom: date(2020, 1, 1)},
	}

	assignments := []models.ScheduleMarketAssignment{
		{ID: "asn-1", ScheduleID: "sched-1", MarketID: "mkt-1", EffectiveFrom: date(2024, 1, 1), EffectiveTo: datePtr(2024, 5, 31), AssignmentPriority: 1},
		// Overlaps asn-1 in May at higher priority.
		{ID: "asn-2", ScheduleID: "sched-2", MarketID: "mkt-1", EffectiveFrom: date(2024, 5, 1), AssignmentPriority: 2},
		// Inactive schedule should never resolve.
		{ID: "asn-3", ScheduleID: "sched-dead", MarketID: "mkt-2", EffectiveFrom: date(2020, 1, 1), AssignmentPriority: 5},
	}

	blocks := []models.LanguageBlock{
		{ID: "blk-man", ScheduleID: "sched-1", DayOfWeek: "monday", LanguageCode: "mandarin", TimeStart: "06:00:00", TimeEnd: "09:00:00", Active: true},
		{ID: "blk-can", ScheduleID: "sched-1", DayOfWeek: "monday", LanguageCode: "cantonese", TimeStart: "09:00:00", TimeEnd: "12:00:00", Active: true},
		{ID: "blk-hin", ScheduleID: "sched-1", DayOfWeek: "monday", LanguageCode: "hindi", TimeStart: "12:00:00", TimeEnd: "15:00:00", Active: true},
		// Overnight block wrapping midnight.
		{ID: "blk-owl", ScheduleID: "sched-1", DayOfWeek: "monday", LanguageCode: "tagalog", TimeStart: "23:00:00", TimeEnd: "02:00:00", Active: true},
		// Inactive block must be invisible.
		{ID: "blk-off", ScheduleID: "sched-1", DayOfWeek: "monday", LanguageCode: "hindi", TimeStart: "15:00:00", TimeEnd: "18:00:00", Active: false},
	}

	return New(schedules, assignments, blocks, zerolog.Nop())
}

func TestResolveSchedule(t *testing.T) {
	snap := testSnapshot()

	tests := []struct {
		name     string
		marketID string
		date     time.Time
		wantID   string
		wantOK   bool
	}{
		{"inside first range", "mkt-1", date(2024, 2, 15), "sched-1", true},
		{"overlap resolves by priority", "mkt-1", date(2024, 5, 15), "sched-2", true},
		{"open-ended range", "mkt-1", date(2025, 3, 1), "sched-2", true},
		{"before any assignment", "mkt-1", date(2023, 12, 31), "", false},
		{"unconfigured market", "mkt-404", date(2024, 2, 15), "", false},
		{"inactive schedule never resolves", "mkt-2", date(2024, 2, 15), "", false},
		{"range boundary start", "mkt-1", date(2024, 1, 1), "sched-1", true},
		{"range boundary end", "mkt-1", date(2024, 5, 31), "sched-2", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID, ok := snap.ResolveSchedule(tt.marketID, tt.date)
			if ok != tt.wantOK || gotID != tt.wantID {
				t.Errorf("ResolveSchedule(%s, %s) = (%q, %v), want (%q, %v)",
					tt.marketID, tt.date.Format("2006-01-02"), gotID, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestResolveScheduleMemoized(t *testing.T) {
	snap := testSnapshot()

	first, ok1 := snap.ResolveSchedule("mkt-1", date(2024, 5, 15))
	second, ok2 := snap.ResolveSchedule("mkt-1", date(2024, 5, 15))
	if first != second || ok1 != ok2 {
		t.Errorf("memoized resolve diverged: (%q,%v) then (%q,%v)", first, ok1, second, ok2)
	}
}

func TestFindBlocks(t *testing.T) {
	snap := testSnapshot()

	tests := []struct {
		name    string
		day     string
		timeIn  string
		timeOut string
		wantIDs []string
	}{
		{"inside one block", "monday", "07:00:00", "07:30:00", []string{"blk-man"}},
		{"spans two blocks", "monday", "08:30:00", "09:30:00", []string{"blk-man", "blk-can"}},
		{"spans three blocks", "monday", "08:00:00", "13:00:00", []string{"blk-man", "blk-can", "blk-hin"}},
		{"block boundary is half open", "monday", "09:00:00", "09:30:00", []string{"blk-can"}},
		{"grid gap", "monday", "18:00:00", "19:00:00", nil},
		{"overnight block before midnight", "monday", "23:30:00", "23:45:00", []string{"blk-owl"}},
		{"overnight block after midnight", "monday", "00:30:00", "01:00:00", []string{"blk-owl"}},
		{"spot wraps into overnight block", "monday", "23:30:00", "01:00:00", []string{"blk-owl"}},
		{"day normalization", "Mon", "07:00:00", "07:30:00", []string{"blk-man"}},
		{"inactive block ignored", "monday", "16:00:00", "17:00:00", nil},
		{"unknown schedule day", "sunday", "07:00:00", "07:30:00", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := snap.FindBlocks("sched-1", tt.day, tt.timeIn, tt.timeOut)
			gotIDs := make([]string, 0, len(got))
			for _, b := range got {
				gotIDs = append(gotIDs, b.ID)
			}
			if len(gotIDs) != len(tt.wantIDs) {
				t.Fatalf("FindBlocks(%s %s-%s) = %v, want %v", tt.day, tt.timeIn, tt.timeOut, gotIDs, tt.wantIDs)
			}
			for i := range tt.wantIDs {
				if gotIDs[i] != tt.wantIDs[i] {
					t.Errorf("FindBlocks(%s %s-%s) = %v, want %v", tt.day, tt.timeIn, tt.timeOut, gotIDs, tt.wantIDs)
					break
				}
			}
		})
	}
}

func TestBlockContains(t *testing.T) {
	block := Block{ID: "blk", StartMinutes: 360, EndMinutes: 540} // 06:00-09:00
	owl := Block{ID: "owl", StartMinutes: 1380, EndMinutes: 120}  // 23:00-02:00

	tests := []struct {
		name    string
		block   Block
		timeIn  string
		timeOut string
		want    bool
	}{
		{"fully inside", block, "07:00:00", "08:00:00", true},
		{"exact window", block, "06:00:00", "09:00:00", true},
		{"spills out", block, "08:30:00", "09:30:00", false},
		{"overnight holds late spot", owl, "23:30:00", "23:45:00", true},
		{"overnight holds early spot", owl, "00:30:00", "01:30:00", true},
		{"overnight rejects daytime", owl, "10:00:00", "11:00:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BlockContains(tt.block, tt.timeIn, tt.timeOut); got != tt.want {
				t.Errorf("BlockContains(%s, %s-%s) = %v, want %v", tt.block.ID, tt.timeIn, tt.timeOut, got, tt.want)
			}
		})
	}
}
