package scrape

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeContent canonicalizes scraped markdown before it is measured,
// truncated, or embedded in a prompt: NFC composition, uniform line endings,
// at most one blank line in a row, stripped zero-width characters, trimmed
// edges. Length checks downstream assume this has run.
func NormalizeContent(text string) string {
	if text == "" {
		return ""
	}

	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	// Zero-width and BOM characters confuse both length accounting and the
	// generation model's view of word boundaries.
	text = strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\ufeff':
			return -1
		}
		return r
	}, text)

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if strings.TrimSpace(trimmed) == "" {
			blanks++
			if blanks > 1 {
				continue
			}
			out = append(out, "")
			continue
		}
		blanks = 0
		out = append(out, trimmed)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Truncate cuts text to at most max bytes without splitting a UTF-8 rune.
// A zero or negative max disables truncation.
func Truncate(text string, max int) (string, bool) {
	if max <= 0 || len(text) <= max {
		return text, false
	}
	cut := max
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	return text[:cut], true
}

func isRuneStart(b byte) bool {
	return b&0xc0 != 0x80
}
