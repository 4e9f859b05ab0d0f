package analysis

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/rival-intel/internal/model"
)

const defaultCategory = "General"

// draftEntry accumulates one weakness while scanning. Fields stay raw until
// finalization so drop/normalize decisions see exactly what the model wrote.
type draftEntry struct {
	title       string
	description string
	severity    string
	category    string
}

func (d *draftEntry) setField(field, value string) {
	switch field {
	case markerTitle:
		d.title = value
	case markerDescription:
		d.description = value
	case markerSeverity:
		d.severity = value
	case markerCategory:
		d.category = value
	}
}

// ParseWeaknesses extracts weakness entries from raw model output.
//
// The scanner works line by line and is deliberately forgiving: markers match
// case-insensitively, markdown decoration (headings, bullets, bold, block
// quotes) is stripped before matching, a title may ride on the entry line
// itself, and description text may continue across lines until the next
// marker or blank line. Lines outside any entry are ignored as commentary.
//
// Entries missing a title or description are dropped with a warning. An
// unrecognized or missing severity becomes "low"; a missing category becomes
// "General". Entry order follows the order of appearance in the output.
//
// Zero surviving entries is an error unless the output carries the
// no-findings sentinel, which parses as a successful empty result.
func ParseWeaknesses(raw string) ([]model.Weakness, error) {
	var (
		drafts      []draftEntry
		cur         *draftEntry
		inDesc      bool
		sawSentinel bool
	)
	flush := func() {
		if cur != nil {
			drafts = append(drafts, *cur)
			cur = nil
		}
		inDesc = false
	}

	for _, line := range strings.Split(raw, "\n") {
		s := stripDecor(strings.TrimSuffix(line, "\r"))
		if s == "" {
			inDesc = false
			continue
		}
		if isSentinel(s) {
			sawSentinel = true
			flush()
			continue
		}
		if rest, ok := matchEntry(s); ok {
			flush()
			cur = &draftEntry{}
			if rest == "" {
				continue
			}
			// "WEAKNESS 1: TITLE: Slow API" or "WEAKNESS 1: Slow API".
			if f, v, ok := matchField(rest); ok {
				cur.setField(f, v)
				inDesc = f == markerDescription
			} else {
				cur.title = rest
			}
			continue
		}
		if f, v, ok := matchField(s); ok {
			// A TITLE starts a new entry when none is open, or when the open
			// one is already titled (numbered lists often skip the WEAKNESS
			// heading entirely). Any other stray field outside an entry is
			// commentary and is skipped.
			if f == markerTitle && cur != nil && cur.title != "" {
				flush()
			}
			if cur == nil {
				if f != markerTitle {
					continue
				}
				cur = &draftEntry{}
			}
			cur.setField(f, v)
			inDesc = f == markerDescription
			continue
		}
		if cur == nil {
			continue
		}
		switch {
		case inDesc:
			if cur.description == "" {
				cur.description = s
			} else {
				cur.description += " " + s
			}
		case cur.title != "" && cur.description == "":
			// Unmarked prose right after a titled entry reads as its
			// description even when the DESCRIPTION marker was skipped.
			cur.description = s
			inDesc = true
		}
	}
	flush()

	weaknesses := make([]model.Weakness, 0, len(drafts))
	for i, d := range drafts {
		title := strings.TrimSpace(d.title)
		desc := strings.TrimSpace(d.description)
		if title == "" || desc == "" {
			zap.L().Warn("parse: dropping incomplete weakness entry",
				zap.Int("entry", i+1),
				zap.Bool("has_title", title != ""),
				zap.Bool("has_description", desc != ""))
			continue
		}
		weaknesses = append(weaknesses, model.Weakness{
			Title:       title,
			Description: desc,
			Severity:    normalizeSeverity(d.severity),
			Category:    normalizeCategory(d.category),
		})
	}
	if len(weaknesses) == 0 && !sawSentinel {
		return nil, &UnparseableResponseError{
			RawLength: len(raw),
			Preview:   preview(raw, 160),
		}
	}
	return weaknesses, nil
}

// stripDecor removes markdown decoration so markers match regardless of how
// the model dressed them up: "### WEAKNESS 1:", "- **TITLE:** x", "> SEVERITY: high".
func stripDecor(line string) string {
	s := strings.TrimSpace(line)
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	for {
		t := strings.TrimLeft(s, " \t#>")
		t = trimListMarker(t)
		if t == s {
			return strings.TrimSpace(s)
		}
		s = t
	}
}

// trimListMarker strips one leading bullet, or an ordered-list prefix when a
// known marker follows it ("2. TITLE: ..." but not "2. Their docs are stale").
func trimListMarker(s string) string {
	for _, b := range []string{"- ", "* ", "+ ", "• "} {
		if strings.HasPrefix(s, b) {
			return strings.TrimSpace(s[len(b):])
		}
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		rest := strings.TrimSpace(s[i+1:])
		if _, ok := matchEntry(rest); ok {
			return rest
		}
		if _, _, ok := matchField(rest); ok {
			return rest
		}
	}
	return s
}

// matchEntry reports whether the line opens a weakness entry and returns any
// trailing text after the heading. A bare keyword needs a colon so that prose
// beginning with "Weaknesses" never opens an entry by accident.
func matchEntry(s string) (rest string, ok bool) {
	if len(s) < len(markerEntry) || !strings.EqualFold(s[:len(markerEntry)], markerEntry) {
		return "", false
	}
	r := strings.TrimLeft(s[len(markerEntry):], " \t")
	r = strings.TrimLeft(r, "#")
	i := 0
	for i < len(r) && r[i] >= '0' && r[i] <= '9' {
		i++
	}
	digits := i > 0
	r = strings.TrimLeft(r[i:], " \t")
	switch {
	case strings.HasPrefix(r, ":"):
		return strings.TrimSpace(r[1:]), true
	case digits && (strings.HasPrefix(r, ".") || strings.HasPrefix(r, "-")):
		return strings.TrimSpace(r[1:]), true
	case digits && r == "":
		return "", true
	}
	return "", false
}

// matchField matches one of the per-entry field markers followed by ":" or
// "-" and returns the canonical marker name with the inline value.
func matchField(s string) (field, value string, ok bool) {
	for _, f := range [...]string{markerTitle, markerDescription, markerSeverity, markerCategory} {
		if len(s) < len(f) || !strings.EqualFold(s[:len(f)], f) {
			continue
		}
		r := strings.TrimLeft(s[len(f):], " \t")
		if strings.HasPrefix(r, ":") || strings.HasPrefix(r, "-") {
			return f, strings.TrimSpace(r[1:]), true
		}
	}
	return "", "", false
}

func isSentinel(s string) bool {
	s = strings.TrimSpace(strings.TrimRight(s, ".!"))
	return strings.EqualFold(s, noWeaknessesSentinel)
}

func normalizeSeverity(raw string) model.Severity {
	s := strings.TrimRight(strings.ToLower(strings.TrimSpace(raw)), ".,;:!")
	if sev := model.Severity(s); sev.Valid() {
		return sev
	}
	if s != "" {
		zap.L().Debug("parse: unrecognized severity, defaulting to low", zap.String("severity", raw))
	}
	return model.SeverityLow
}

func normalizeCategory(raw string) string {
	if c := strings.TrimSpace(raw); c != "" {
		return c
	}
	return defaultCategory
}

func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}
