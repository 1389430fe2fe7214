package signals

import (
	"fmt"
	"time"
)

// Summary renders a one-line description of the payload for text surfaces.
func Summary(s Signal) string {
	switch p := s.Payload.(type) {
	case Text:
		return p.Body
	case Emoji:
		return p.Glyph
	case Audio:
		return fmt.Sprintf("audio %ds", int(p.Duration/time.Second))
	case Image:
		return "image " + p.URI
	case Flash:
		return fmt.Sprintf("flash %d%%", int(p.Intensity*100))
	case Mix:
		return fmt.Sprintf("mix of %d", len(p.Parts))
	default:
		return "(empty)"
	}
}

// Badge is the short lifecycle label shown next to a signal.
func Badge(s Signal, now time.Time, window time.Duration) string {
	if s.Category == WishNet {
		return "wishnet"
	}
	if s.IsExpiring(now, window) {
		return "fading"
	}
	return "ephemeral"
}

// Countdown formats the remaining lifetime, or "∞" when the signal has no TTL.
func Countdown(s Signal, now time.Time) string {
	left, ok := s.Remaining(now)
	if !ok {
		return "∞"
	}
	if left < 0 {
		left = 0
	}
	return left.Truncate(time.Second).String()
}
