// Package segment splits one generated reply into ordered chat bubbles.
package segment

import "strings"

// Delimiter is the reserved token the generator places between bubbles.
const Delimiter = "|||"

type Segmenter struct {
	prefixes []string
}

// New returns a Segmenter that strips the given "name:" prefixes from the start of each unit.
func New(prefixes ...string) *Segmenter {
	var clean []string
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return &Segmenter{prefixes: clean}
}

// Split returns the trimmed, non-empty units of raw in original order.
// The result may be empty; it is never nil-vs-empty sensitive for callers.
func (s *Segmenter) Split(raw string) []string {
	units := splitNonBlank(raw, Delimiter)

	// The generator ignored the delimiter; fall back to line breaks.
	if len(units) == 1 {
		units = splitNonBlank(units[0], "\n")
	}

	out := make([]string, 0, len(units))
	for _, u := range units {
		if u = s.stripPrefixes(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func (s *Segmenter) stripPrefixes(unit string) string {
	for {
		stripped := false
		for _, p := range s.prefixes {
			if len(unit) >= len(p) && strings.EqualFold(unit[:len(p)], p) {
				unit = strings.TrimSpace(unit[len(p):])
				stripped = true
			}
		}
		if !stripped {
			return unit
		}
	}
}

func splitNonBlank(text, sep string) []string {
	var out []string
	for _, part := range strings.Split(text, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Sanitize removes the delimiter so stored history never replays control tokens.
func Sanitize(text string) string {
	return strings.ReplaceAll(text, Delimiter, " ")
}
