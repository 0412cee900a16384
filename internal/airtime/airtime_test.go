/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package airtime

import "testing"

func TestToMinutes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"midnight", "00:00:00", 0},
		{"six am", "06:00:00", 360},
		{"end of day", "23:59:00", 1439},
		{"seconds truncated", "10:30:45", 630},
		{"no seconds field", "07:15", 435},
		{"marker stripped", "01:00:00+1", 60},
		{"empty string sentinel", "", 0},
		{"garbage sentinel", "noon", 0},
		{"hour out of range", "25:00:00", 0},
		{"minute out of range", "10:75:00", 0},
		{"padded input", " 09:05:00 ", 545},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToMinutes(tt.input); got != tt.want {
				t.Errorf("ToMinutes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsNextDay(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"02:00:00+1", true},
		{"02:00:00 (1)", true},
		{"02:00:00 1d", true},
		{"02:00:00 1", true},
		{"02:00:00", false},
		{"23:59:00", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsNextDay(tt.input); got != tt.want {
			t.Errorf("IsNextDay(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name    string
		timeIn  string
		timeOut string
		want    int
	}{
		// Explicit overnight marker: duration runs to midnight only.
		{"late night with marker", "23:30:00", "06:00:00+1", 30},
		{"evening with marker", "19:00:00", "02:00:00 (1)", 300},
		{"same day simple", "06:00:00", "07:00:00", 60},
		{"same day zero length", "12:00:00", "12:00:00", 0},
		{"implicit rollover", "22:00:00", "02:00:00", 240},
		{"implicit rollover short", "23:45:00", "00:15:00", 30},
		{"all day", "06:00:00", "23:59:00", 1079},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(tt.timeIn, tt.timeOut); got != tt.want {
				t.Errorf("Duration(%q, %q) = %d, want %d", tt.timeIn, tt.timeOut, got, tt.want)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a    [2]int
		b    [2]int
		want bool
	}{
		{"plain overlap", [2]int{360, 480}, [2]int{420, 540}, true},
		{"touching edges", [2]int{360, 480}, [2]int{480, 540}, false},
		{"disjoint", [2]int{360, 480}, [2]int{600, 660}, false},
		{"contained", [2]int{360, 720}, [2]int{400, 500}, true},
		{"block wraps, spot before midnight", [2]int{1320, 120}, [2]int{1380, 1410}, true},
		{"block wraps, spot after midnight", [2]int{1320, 120}, [2]int{60, 90}, true},
		{"block wraps, spot in gap", [2]int{1320, 120}, [2]int{360, 420}, false},
		{"spot wraps into block", [2]int{0, 360}, [2]int{1410, 60}, true},
		{"both wrap", [2]int{1380, 120}, [2]int{1410, 30}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(tt.a[0], tt.a[1], tt.b[0], tt.b[1])
			if got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name  string
		outer [2]int
		inner [2]int
		want  bool
	}{
		{"fully inside", [2]int{360, 720}, [2]int{400, 500}, true},
		{"exact match", [2]int{360, 720}, [2]int{360, 720}, true},
		{"spills right", [2]int{360, 720}, [2]int{700, 760}, false},
		{"wrapping outer holds early spot", [2]int{1320, 360}, [2]int{60, 120}, true},
		{"wrapping outer holds late spot", [2]int{1320, 360}, [2]int{1380, 1430}, true},
		{"wrapping outer rejects daytime", [2]int{1320, 360}, [2]int{600, 660}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Contains(tt.outer[0], tt.outer[1], tt.inner[0], tt.inner[1])
			if got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.outer, tt.inner, got, tt.want)
			}
		})
	}
}
