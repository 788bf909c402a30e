// Package subject parses MIT subject numbers out of free text and tests them
// against a flagged set.
//
// Since Fall 2022 EECS subjects use 4-digit numbers (6.yyyy). Catalog pages
// often show the superseded number in brackets ("6.1220J[6.046]") and collapse
// sibling subjects with slash notation ("6.1000/A/B").
package subject

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Canonical is a normalized subject number such as "6.100A". It is compared by
// exact string equality.
type Canonical = string

var bracketRegex = regexp.MustCompile(`\[.*?\]`)

// Parse turns a raw subject token into its canonical subject numbers.
//
//	"6.1220J[6.046]"       -> ["6.1220J"]
//	"6.1000/A/B[6.0001+2]" -> ["6.1000", "6.100A", "6.100B"]
//	"6.UAR"                -> ["6.UAR"]
//
// Empty or whitespace-only input yields no subjects.
func Parse(raw string) []Canonical {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	stripped := strings.TrimSpace(bracketRegex.ReplaceAllString(raw, ""))
	if stripped == "" {
		return nil
	}
	if strings.Contains(stripped, "/") {
		return Expand(stripped)
	}
	return []Canonical{stripped}
}

// Expand expands slash notation, every segment after the first replaces the
// final character of the base: "6.3450/A" -> ["6.3450", "6.345A"]. The
// replacement always drops exactly one character, whatever the suffix length.
// Empty segments are dropped.
func Expand(part string) []Canonical {
	segments := strings.Split(part, "/")
	if len(segments) == 1 {
		if part == "" {
			return nil
		}
		return []Canonical{part}
	}

	base := strings.TrimSpace(segments[0])
	_, lastSize := utf8.DecodeLastRuneInString(base)
	prefix := base[:len(base)-lastSize]

	var subjects []Canonical
	if base != "" {
		subjects = append(subjects, base)
	}
	for _, suffix := range segments[1:] {
		suffix = strings.TrimSpace(suffix)
		if suffix == "" {
			continue
		}
		subjects = append(subjects, prefix+suffix)
	}
	return subjects
}
