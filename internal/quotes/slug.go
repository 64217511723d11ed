package quotes

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateSlug builds the public identifier from the client name, event title
// and a random suffix. Slugs are generated once and never change; the internal
// id is never exposed to clients.
func GenerateSlug(clientName, eventTitle string) string {
	parts := []string{slugify(clientName), slugify(eventTitle), uuid.NewString()[:8]}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "-")
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
