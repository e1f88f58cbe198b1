package textutil

import (
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
)

var strictPolicy = bluemonday.StrictPolicy()

// Sanitize strips markup and control characters from free text and truncates it to limit runes.
// A non-positive limit disables truncation.
func Sanitize(input string, limit int) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	cleaned := strictPolicy.Sanitize(input)
	var builder strings.Builder
	count := 0
	for _, r := range cleaned {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		if limit > 0 && count >= limit {
			break
		}
		builder.WriteRune(r)
		count++
	}
	return strings.TrimSpace(builder.String())
}

// Fold returns the Unicode case-folded form of s for case-insensitive comparisons.
func Fold(s string) string {
	// cases.Caser is stateful; build one per call.
	return cases.Fold().String(s)
}

// ContainsFold reports whether needle occurs in any of the haystacks, ignoring case.
func ContainsFold(needle string, haystacks ...string) bool {
	needle = Fold(strings.TrimSpace(needle))
	if needle == "" {
		return true
	}
	for _, haystack := range haystacks {
		if haystack == "" {
			continue
		}
		if strings.Contains(Fold(haystack), needle) {
			return true
		}
	}
	return false
}

// EqualFold compares two strings after trimming and Unicode case folding.
func EqualFold(a, b string) bool {
	return Fold(strings.TrimSpace(a)) == Fold(strings.TrimSpace(b))
}

// Digits keeps only the decimal digits of s, so "+1 (555) 010-2000" becomes "15550102000".
func Digits(s string) string {
	var builder strings.Builder
	for _, r := range s {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// NormalizeList trims and lower-cases entries, dropping blanks and duplicates.
func NormalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		normalized := Fold(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		result = append(result, normalized)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
