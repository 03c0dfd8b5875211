package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var separatorRegex = regexp.MustCompile(`[\s_\-.]+`)

// NormalizeName lowercases a name and strips whitespace and separators,
// `User_ID`, `user-id` and `userId` all become `userid`.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.TrimSpace(name)
	name = separatorRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// Clamp cuts `text` to at most `limit` runes.
func Clamp(text string, limit int) (string, bool) {
	if utf8.RuneCountInString(text) <= limit {
		return text, false
	}
	runes := 0
	for i := range text {
		if runes == limit {
			return text[:i], true
		}
		runes++
	}
	return text, false
}
