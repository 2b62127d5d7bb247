package persona

import "strings"

// joinedLower flattens headlines into one lowercase string for keyword
// scanning.
func joinedLower(headlines []string) string {
	return strings.ToLower(strings.Join(headlines, " "))
}

// containsAny reports whether text contains at least one keyword.
func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// countMatches counts how many keywords occur in text. Each keyword
// counts at most once regardless of repetition.
func countMatches(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}
