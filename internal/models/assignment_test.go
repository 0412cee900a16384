/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "testing"

func TestAssignmentValidate(t *testing.T) {
	blockID := "blk-1"

	tests := []struct {
		name    string
		row     SpotLanguageBlockAssignment
		wantErr bool
	}{
		{
			name: "single block ok",
			row: SpotLanguageBlockAssignment{
				SpotID:  "spot-1",
				BlockID: &blockID,
			},
		},
		{
			name: "multi block ok",
			row: SpotLanguageBlockAssignment{
				SpotID:              "spot-1",
				SpansMultipleBlocks: true,
				BlocksSpanned:       BlockIDList{"blk-1", "blk-2"},
			},
		},
		{
			name: "spans without list",
			row: SpotLanguageBlockAssignment{
				SpotID:              "spot-1",
				SpansMultipleBlocks: true,
			},
			wantErr: true,
		},
		{
			name: "list without spans",
			row: SpotLanguageBlockAssignment{
				SpotID:        "spot-1",
				BlocksSpanned: BlockIDList{"blk-1"},
			},
			wantErr: true,
		},
		{
			name: "multi block with single id",
			row: SpotLanguageBlockAssignment{
				SpotID:              "spot-1",
				SpansMultipleBlocks: true,
				BlocksSpanned:       BlockIDList{"blk-1", "blk-2"},
				BlockID:             &blockID,
			},
			wantErr: true,
		},
		{
			name:    "missing spot id",
			row:     SpotLanguageBlockAssignment{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.row.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBlockIDListRoundTrip(t *testing.T) {
	list := BlockIDList{"blk-1", "blk-2", "blk-3"}

	value, err := list.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	var scanned BlockIDList
	if err := scanned.Scan(value); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	if len(scanned) != 3 || scanned[0] != "blk-1" || scanned[2] != "blk-3" {
		t.Errorf("round trip = %v, want %v", scanned, list)
	}
}

func TestBlockIDListScanRejectsGarbage(t *testing.T) {
	var list BlockIDList
	if err := list.Scan("[u'blk-1', u'blk-2']"); err == nil {
		t.Fatal("Scan accepted a non-JSON legacy literal")
	}
}

func TestBlockIDListNilValue(t *testing.T) {
	var list BlockIDList
	value, err := list.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}
	if value != "[]" {
		t.Errorf("nil list Value() = %v, want []", value)
	}
}

func TestNormalizeDayOfWeek(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mon", "monday"},
		{"MONDAY", "monday"},
		{" thu ", "thursday"},
		{"Sat", "saturday"},
		{"friday", "friday"},
	}
	for _, tt := range tests {
		if got := NormalizeDayOfWeek(tt.in); got != tt.want {
			t.Errorf("NormalizeDayOfWeek(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
