package extract

import (
	"regexp"
	"strings"
)

var (
	excessNewlines  = regexp.MustCompile(`\n{3,}`)
	horizontalSpace = regexp.MustCompile(`[ \t]+`)
	spaceBeforeNL   = regexp.MustCompile(` +\n`)
)

// Clean normalizes extracted text: 3+ newlines become 2, runs of spaces and tabs become
// one space, spaces before a newline are dropped, NUL bytes are removed and the result is trimmed.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\x00", "")
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = spaceBeforeNL.ReplaceAllString(text, "\n")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
