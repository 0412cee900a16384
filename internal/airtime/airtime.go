/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package airtime converts broadcast time-of-day strings into minute
// offsets and durations. Traffic logs express times as HH:MM:SS with an
// optional next-day marker on the end time; all arithmetic here is done
// in whole minutes since midnight.
package airtime

import (
	"strconv"
	"strings"
)

// MinutesPerDay is the number of minutes in one broadcast day.
const MinutesPerDay = 1440

// nextDaySuffixes are the textual overnight markers seen in traffic
// exports. Matching is done on the trimmed, lowercased end-time string.
var nextDaySuffixes = []string{"1d", "+1", "(1)", " 1"}

// ToMinutes converts an HH:MM:SS (or HH:MM) string to minutes since
// midnight, in the range 0-1439. Malformed input returns 0: upstream
// data is known to contain gaps, and callers must treat 0 as
// indeterminate when the raw string was absent. Seconds are truncated.
func ToMinutes(timeOfDay string) int {
	s := strings.TrimSpace(timeOfDay)
	if s == "" {
		return 0
	}
	s = stripNextDayMarker(s)

	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0
	}

	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0
	}

	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0
	}

	return hours*60 + minutes
}

// IsNextDay reports whether the end-time string carries an explicit
// overnight marker, meaning the spot ends on the following broadcast day.
func IsNextDay(timeOut string) bool {
	s := strings.ToLower(strings.TrimSpace(timeOut))
	if s == "" {
		return false
	}
	for _, suffix := range nextDaySuffixes {
		if strings.HasSuffix(s, suffix) && len(s) > len(suffix) {
			return true
		}
	}
	return false
}

func stripNextDayMarker(s string) string {
	lower := strings.ToLower(s)
	for _, suffix := range nextDaySuffixes {
		if strings.HasSuffix(lower, suffix) && len(s) > len(suffix) {
			return strings.TrimSpace(s[:len(s)-len(suffix)])
		}
	}
	return s
}

// Duration returns the length of a spot in minutes. Three cases, in
// order:
//
//  1. timeOut carries an explicit next-day marker: the spot runs from
//     timeIn to midnight, so duration = 1440 - ToMinutes(timeIn).
//  2. timeOut >= timeIn numerically: same-day spot, plain difference.
//  3. timeOut < timeIn with no marker: implicit midnight rollover,
//     duration = (1440 - in) + out.
//
// Case 1 must be checked before the numeric comparison; a marked end
// time like "01:00:00+1" would otherwise be misread as a short same-day
// window.
func Duration(timeIn, timeOut string) int {
	in := ToMinutes(timeIn)

	if IsNextDay(timeOut) {
		return MinutesPerDay - in
	}

	out := ToMinutes(timeOut)
	if out >= in {
		return out - in
	}
	return (MinutesPerDay - in) + out
}

// Normalize48 maps a window onto a common 48-hour numbering so that
// wrapped (past-midnight) windows can be compared with plain integer
// arithmetic. A window whose end is at or before its start is treated as
// wrapping into the next day.
func Normalize48(start, end int) (int, int) {
	if end <= start {
		end += MinutesPerDay
	}
	return start, end
}

// Overlaps reports whether two half-open windows [aStart, aEnd) and
// [bStart, bEnd) share any minute, honoring midnight wraps in either
// window. When one window wraps, its counterpart is also tested shifted
// a day forward so that, e.g., a 22:00-02:00 block still meets a
// 01:00-01:30 spot.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	aWraps := aEnd <= aStart
	bWraps := bEnd <= bStart

	as, ae := Normalize48(aStart, aEnd)
	bs, be := Normalize48(bStart, bEnd)

	if intersects(as, ae, bs, be) {
		return true
	}
	if aWraps && !bWraps && intersects(as, ae, bs+MinutesPerDay, be+MinutesPerDay) {
		return true
	}
	if bWraps && !aWraps && intersects(as+MinutesPerDay, ae+MinutesPerDay, bs, be) {
		return true
	}
	return false
}

func intersects(aStart, aEnd, bStart, bEnd int) bool {
	return max(aStart, bStart) < min(aEnd, bEnd)
}

// Contains reports whether window [inner) lies fully inside window
// [outer), with the same wrap handling as Overlaps.
func Contains(outerStart, outerEnd, innerStart, innerEnd int) bool {
	outerWraps := outerEnd <= outerStart
	innerWraps := innerEnd <= innerStart

	os, oe := Normalize48(outerStart, outerEnd)
	is, ie := Normalize48(innerStart, innerEnd)

	if os <= is && ie <= oe {
		return true
	}
	if outerWraps && !innerWraps && os <= is+MinutesPerDay && ie+MinutesPerDay <= oe {
		return true
	}
	return false
}
