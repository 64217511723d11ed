package render

import "strings"

// RichLine is one rendered line of free-form text. Bullet lines come from a
// leading "-" or "*" marker; everything else is a plain paragraph line.
type RichLine struct {
	Text   string `json:"text"`
	Bullet bool   `json:"bullet"`
}

// RichText splits free-form text (payment terms, preparation notes, item
// descriptions) into display lines. Blank lines are preserved as empty
// paragraph lines so spacing survives the round trip.
func RichText(s string) []RichLine {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	raw := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	lines := make([]RichLine, 0, len(raw))
	for _, line := range raw {
		trimmed := strings.TrimSpace(line)
		if rest, ok := bulletText(trimmed); ok {
			lines = append(lines, RichLine{Text: rest, Bullet: true})
			continue
		}
		lines = append(lines, RichLine{Text: trimmed})
	}
	return lines
}

func bulletText(line string) (string, bool) {
	for _, marker := range []string{"- ", "* "} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(line[len(marker):]), true
		}
	}
	return "", false
}
