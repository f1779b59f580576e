package intake

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const maxAnswerLen = 200

var htmlPolicy = bluemonday.StrictPolicy()

// Sanitize strips markup and control noise from a chat message and bounds
// its length. The result may be empty.
func Sanitize(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = html.UnescapeString(htmlPolicy.Sanitize(input))
	input = strings.TrimSpace(input)

	if utf8.RuneCountInString(input) > maxAnswerLen {
		input = string([]rune(input)[:maxAnswerLen])
	}
	return input
}
