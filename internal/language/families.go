/*
Copyright (C) 2026 Castmetrics

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package language classifies sets of language identifiers against a
// configured table of language families. Families group codes that are
// linguistically or commercially equivalent for block-spanning purposes
// (dialect variants, transliteration differences); the table is
// versioned configuration, not code, because groupings change as new
// languages are added to the grid.
package language

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind enumerates classification outcomes for a block set.
type Kind string

const (
	SameLanguage      Kind = "same_language"
	SameFamily        Kind = "same_family"
	DifferentFamilies Kind = "different_families"
)

// Classification is the result of classifying a set of language codes.
type Classification struct {
	Kind   Kind
	Family string // set when Kind == SameFamily
	// Primary is the code to record as the spot's language: the single
	// code for SameLanguage, the first (sorted) member code otherwise.
	Primary string
}

// IsSingleAudience reports whether the set still addresses one audience.
func (c Classification) IsSingleAudience() bool {
	return c.Kind == SameLanguage || c.Kind == SameFamily
}

// Families holds the loaded family table. Immutable after load; safe for
// concurrent readers.
type Families struct {
	version  int
	families map[string][]string // family name -> member codes
	memberOf map[string]string   // code -> family name
}

// tableFile is the YAML shape of a family table.
type tableFile struct {
	Version  int                 `yaml:"version"`
	Families map[string][]string `yaml:"families"`
}

// defaultTable covers the groupings in production use today. A file
// passed to LoadFile replaces it wholesale.
var defaultTable = tableFile{
	Version: 1,
	Families: map[string][]string{
		"chinese":     {"mandarin", "cantonese", "m", "c"},
		"south_asian": {"hindi", "punjabi", "urdu", "h", "p"},
		"filipino":    {"tagalog", "filipino", "t"},
	},
}

// Default returns the built-in family table.
func Default() *Families {
	f, err := build(defaultTable)
	if err != nil {
		// The built-in table is validated by tests; a bad default is a
		// build defect.
		panic(err)
	}
	return f
}

// LoadFile parses and validates a family table from a YAML file.
func LoadFile(path string) (*Families, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read family table: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a family table from YAML bytes.
func Parse(data []byte) (*Families, error) {
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse family table: %w", err)
	}
	if len(tf.Families) == 0 {
		return nil, fmt.Errorf("family table defines no families")
	}
	return build(tf)
}

func build(tf tableFile) (*Families, error) {
	f := &Families{
		version:  tf.Version,
		families: make(map[string][]string, len(tf.Families)),
		memberOf: make(map[string]string),
	}

	for name, members := range tf.Families {
		if len(members) == 0 {
			return nil, fmt.Errorf("family %q has no members", name)
		}
		normalized := make([]string, 0, len(members))
		for _, m := range members {
			code := Normalize(m)
			if code == "" {
				return nil, fmt.Errorf("family %q contains an empty language code", name)
			}
			if prev, ok := f.memberOf[code]; ok {
				return nil, fmt.Errorf("language %q appears in families %q and %q", code, prev, name)
			}
			f.memberOf[code] = name
			normalized = append(normalized, code)
		}
		sort.Strings(normalized)
		f.families[name] = normalized
	}

	return f, nil
}

// Version returns the table's declared version.
func (f *Families) Version() int {
	return f.version
}

// FamilyCount returns the number of configured families.
func (f *Families) FamilyCount() int {
	return len(f.families)
}

// Normalize folds a raw language identifier onto the table's keying:
// trimmed, lowercased.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Classify inspects the distinct language identifiers across a set of
// blocks. One distinct code is SameLanguage. Several codes that are all
// members of one family are SameFamily. Anything else is
// DifferentFamilies, a genuinely cross-audience buy.
func (f *Families) Classify(codes []string) Classification {
	distinct := make(map[string]struct{}, len(codes))
	ordered := make([]string, 0, len(codes))
	for _, c := range codes {
		code := Normalize(c)
		if code == "" {
			continue
		}
		if _, seen := distinct[code]; !seen {
			distinct[code] = struct{}{}
			ordered = append(ordered, code)
		}
	}
	sort.Strings(ordered)

	if len(ordered) == 0 {
		return Classification{Kind: DifferentFamilies}
	}
	if len(ordered) == 1 {
		return Classification{Kind: SameLanguage, Primary: ordered[0]}
	}

	family, ok := f.commonFamily(ordered)
	if !ok {
		return Classification{Kind: DifferentFamilies, Primary: ordered[0]}
	}
	return Classification{Kind: SameFamily, Family: family, Primary: ordered[0]}
}

// commonFamily returns the single family containing every code, if one
// exists.
func (f *Families) commonFamily(codes []string) (string, bool) {
	var family string
	for i, code := range codes {
		fam, ok := f.memberOf[code]
		if !ok {
			return "", false
		}
		if i == 0 {
			family = fam
			continue
		}
		if fam != family {
			return "", false
		}
	}
	return family, true
}
