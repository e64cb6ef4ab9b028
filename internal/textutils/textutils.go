// Package textutils holds the line and case helpers shared by the template
// matcher, the field extractor and the correction dictionary.
package textutils

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	lower      = cases.Lower(language.Und)
	fold       = cases.Fold()
	whitespace = regexp.MustCompile(`[ \t]+`)
)

// Lines splits text on \n or \r\n and trims each line. Empty lines are kept
// so line positions stay meaningful.
func Lines(text string) []string {
	if text == "" {
		return nil
	}
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, len(raw))
	for i, l := range raw {
		out[i] = strings.TrimSpace(l)
	}
	return out
}

// NonEmptyLines is Lines without blank entries.
func NonEmptyLines(text string) []string {
	var out []string
	for _, l := range Lines(text) {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Lower lowercases s with Unicode-aware rules and composes it to NFC so
// keys typed on different devices compare equal.
func Lower(s string) string {
	return lower.String(norm.NFC.String(s))
}

// ContainsFold reports whether substr appears in s ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(fold.String(s), fold.String(substr))
}

// ContainsAnyFold reports whether any of substrs appears in s ignoring case.
func ContainsAnyFold(s string, substrs []string) bool {
	folded := fold.String(s)
	for _, sub := range substrs {
		if strings.Contains(folded, fold.String(sub)) {
			return true
		}
	}
	return false
}

// IsUpper reports whether s has at least one letter and no lowercase letter.
func IsUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter && s == strings.ToUpper(s)
}

// HasDigitRun reports whether s contains n or more consecutive ASCII digits.
func HasDigitRun(s string, n int) bool {
	run := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			run++
			if run >= n {
				return true
			}
			continue
		}
		run = 0
	}
	return false
}

// CollapseSpaces trims s and squeezes runs of spaces and tabs.
func CollapseSpaces(s string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}
