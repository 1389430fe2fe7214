package compose

import (
	"fmt"

	"quantum-social/internal/signals"
)

var (
	seedTexts  = []string{"Hello from the stars", "Anyone awake?", "Sending good vibes", "Look up tonight"}
	seedEmojis = []string{"✨", "🌙", "💫", "🔭"}
	seedImages = []string{"https://picsum.photos/seed/nebula/400", "https://picsum.photos/seed/aurora/400"}
)

// Seed publishes n demo signals cycling text, emoji, image and mix. A mix is
// built from the two most recent seeded signals.
func (c *Composer) Seed(n int) ([]signals.Signal, error) {
	out := make([]signals.Signal, 0, n)
	for i := 0; i < n; i++ {
		var (
			sig signals.Signal
			err error
		)
		switch i % 4 {
		case 0:
			sig, err = c.Text(seedTexts[(i/4)%len(seedTexts)])
		case 1:
			sig, err = c.Emoji(seedEmojis[(i/4)%len(seedEmojis)])
		case 2:
			sig, err = c.Image(seedImages[(i/4)%len(seedImages)])
		case 3:
			sig, err = c.Mix(out[len(out)-2].ID, out[len(out)-1].ID)
		}
		if err != nil {
			return out, fmt.Errorf("seed %d: %w", i, err)
		}
		out = append(out, sig)
	}
	return out, nil
}
