package format

import "regexp"

var mdSpecials = regexp.MustCompile("([_*\\[`])")

// EscapeMarkdown escapes the characters Telegram's legacy Markdown parser
// treats as entity markers, so free-form user text renders literally.
func EscapeMarkdown(text string) string {
	return mdSpecials.ReplaceAllString(text, `\$1`)
}
