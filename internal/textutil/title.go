package textutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const maxTitleRunes = 80

// DisplayTitle cleans a remote media title for logs and tables. Runs of
// whitespace collapse to one space, control characters are dropped, and
// titles written entirely in upper or lower case are title-cased. Long
// titles are truncated with an ellipsis. Empty input yields fallback.
func DisplayTitle(raw, fallback string) string {
	var b strings.Builder
	prevSpace := false
	hasUpper, hasLower := false, false
	for _, r := range raw {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
		case unicode.IsControl(r):
		default:
			hasUpper = hasUpper || unicode.IsUpper(r)
			hasLower = hasLower || unicode.IsLower(r)
			b.WriteRune(r)
			prevSpace = false
		}
	}
	title := strings.TrimSpace(b.String())
	if title == "" {
		return fallback
	}
	if hasUpper != hasLower {
		title = cases.Title(language.Und).String(title)
	}
	if utf8.RuneCountInString(title) > maxTitleRunes {
		runes := []rune(title)
		title = strings.TrimSpace(string(runes[:maxTitleRunes-1])) + "…"
	}
	return title
}
