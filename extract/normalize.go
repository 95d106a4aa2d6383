package extract

import (
	"strings"
	"unicode"
)

// Normalize collapses whitespace runs to single spaces, drops control
// characters, and trims the result. Extracted and OCRed text both pass
// through here so the two sources compare on equal footing downstream.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsControl(r):
			// skip
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
