package chat

import (
	"regexp"
	"strings"
)

var (
	boldRe        = regexp.MustCompile(`\*\*([^*]*)\*\*`)
	asteriskRe    = regexp.MustCompile(`\*`)
	numberedRe    = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+`)
	bulletCrampRe = regexp.MustCompile(`(?m)^([^\n-].*)\n(- )`)
	newlinesRe    = regexp.MustCompile(`\n{3,}`)
)

// FormatResponse normalizes model output into the plain style the widget
// renders: no markdown emphasis, dash bullets with a blank line before
// the first one, at most one blank line anywhere. The passes run in a
// fixed order and the whole function is idempotent.
func FormatResponse(text string) string {
	text = boldRe.ReplaceAllString(text, "$1")
	text = asteriskRe.ReplaceAllString(text, "")
	text = numberedRe.ReplaceAllString(text, "- ")
	text = bulletCrampRe.ReplaceAllString(text, "$1\n\n$2")
	text = newlinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
