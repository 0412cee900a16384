/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package language

import "testing"

func TestDefaultTableIsValid(t *testing.T) {
	f := Default()
	if f.FamilyCount() == 0 {
		t.Fatal("default table has no families")
	}
}

func TestClassify(t *testing.T) {
	f := Default()

	tests := []struct {
		name    string
		codes   []string
		want    Kind
		family  string
		primary string
	}{
		{
			name:    "single language",
			codes:   []string{"mandarin"},
			want:    SameLanguage,
			primary: "mandarin",
		},
		{
			name:    "duplicates collapse to single",
			codes:   []string{"Hindi", "hindi", " HINDI "},
			want:    SameLanguage,
			primary: "hindi",
		},
		{
			name:    "dialects of one family",
			codes:   []string{"mandarin", "cantonese"},
			want:    SameFamily,
			family:  "chinese",
			primary: "cantonese",
		},
		{
			name:    "family match is case insensitive",
			codes:   []string{"Mandarin", "CANTONESE"},
			want:    SameFamily,
			family:  "chinese",
			primary: "cantonese",
		},
		{
			name:  "cross family",
			codes: []string{"mandarin", "hindi"},
			want:  DifferentFamilies,
		},
		{
			name:  "unknown code breaks family",
			codes: []string{"mandarin", "klingon"},
			want:  DifferentFamilies,
		},
		{
			name:  "empty set",
			codes: nil,
			want:  DifferentFamilies,
		},
		{
			name:    "short codes map into family",
			codes:   []string{"m", "c"},
			want:    SameFamily,
			family:  "chinese",
			primary: "c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Classify(tt.codes)
			if got.Kind != tt.want {
				t.Fatalf("Classify(%v).Kind = %s, want %s", tt.codes, got.Kind, tt.want)
			}
			if tt.family != "" && got.Family != tt.family {
				t.Errorf("Family = %q, want %q", got.Family, tt.family)
			}
			if tt.primary != "" && got.Primary != tt.primary {
				t.Errorf("Primary = %q, want %q", got.Primary, tt.primary)
			}
		})
	}
}

func TestParseRejectsDuplicateMembership(t *testing.T) {
	data := []byte(`
version: 2
families:
  a: [one, two]
  b: [two, three]
`)
	if _, err := Parse(data); err == nil {
		t.Fatal("Parse accepted a language present in two families")
	}
}

func TestParseRejectsEmptyTable(t *testing.T) {
	if _, err := Parse([]byte("version: 1\nfamilies: {}\n")); err == nil {
		t.Fatal("Parse accepted an empty table")
	}
}

func TestParseCustomTable(t *testing.T) {
	data := []byte(`
version: 3
families:
  slavic: [russian, ukrainian]
`)
	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if f.Version() != 3 {
		t.Errorf("Version = %d, want 3", f.Version())
	}

	got := f.Classify([]string{"russian", "ukrainian"})
	if got.Kind != SameFamily || got.Family != "slavic" {
		t.Errorf("Classify = %+v, want slavic SameFamily", got)
	}
}
