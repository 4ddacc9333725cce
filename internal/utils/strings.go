package utils

import (
	"strings"
	"unicode"
)

// ParseCSV splits a comma-separated string and returns trimmed non-empty values.
// Returns nil for empty/whitespace-only input.
// Used for the --only domain filter and for comma-separated settings.
func ParseCSV(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	for _, v := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return nil
	}

	return result
}

// Truncate returns at most max runes of s. Multi-byte characters are never split.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// SplitAt splits s after max runes, returning the head and the remainder.
func SplitAt(s string, max int) (string, string) {
	runes := []rune(s)
	if len(runes) <= max {
		return s, ""
	}
	return string(runes[:max]), string(runes[max:])
}

// TitleFromID turns a snake_case identifier into a title ("carver_trend_n10" -> "Carver Trend N10").
// Like Python's str.title, every letter that does not follow another letter is
// upper-cased, so "breakout_v2x" becomes "Breakout V2X".
func TitleFromID(id string) string {
	var b strings.Builder
	afterLetter := false
	for _, r := range strings.ReplaceAll(id, "_", " ") {
		if afterLetter {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
		afterLetter = unicode.IsLetter(r)
	}
	return b.String()
}
