// Package sanitize normalizes raw feed and submission text before any
// downstream analysis.
package sanitize

import "strings"

// Clean removes http(s) URLs and non-ASCII code points, then trims
// surrounding whitespace. Pure; no failure mode.
func Clean(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	i := 0
	for i < len(text) {
		if rest := text[i:]; strings.HasPrefix(rest, "http://") || strings.HasPrefix(rest, "https://") {
			end := strings.IndexFunc(rest, isSpace)
			if end == -1 {
				break
			}
			i += end
			continue
		}
		// Non-ASCII bytes (emoji, smart quotes) are dropped wholesale.
		if text[i] < 0x80 {
			b.WriteByte(text[i])
		}
		i++
	}

	return strings.TrimSpace(b.String())
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
