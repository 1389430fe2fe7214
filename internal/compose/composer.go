package compose

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"quantum-social/internal/signals"
)

// Target is the part of the store a composer writes to.
type Target interface {
	Publish(signals.Signal)
	Lookup(id string) (signals.Signal, bool)
}

// ErrUnknownPart is returned when a mix references a signal that is not live.
var ErrUnknownPart = errors.New("mix part is not live")

// Composer builds signals with the defaults of their kind, validates them and
// publishes them. Every method returns the signal as published.
type Composer struct {
	target Target
	now    func() time.Time
	log    *zap.Logger
}

func New(target Target, now func() time.Time, logger *zap.Logger) *Composer {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{target: target, now: now, log: logger}
}

func (c *Composer) Text(body string) (signals.Signal, error) {
	return c.publish(signals.Text{Body: strings.TrimSpace(body)})
}

func (c *Composer) Emoji(glyph string) (signals.Signal, error) {
	return c.publish(signals.Emoji{Glyph: strings.TrimSpace(glyph)})
}

func (c *Composer) Audio(path string, duration time.Duration) (signals.Signal, error) {
	return c.publish(signals.Audio{FilePath: strings.TrimSpace(path), Duration: duration})
}

func (c *Composer) Image(uri string) (signals.Signal, error) {
	return c.publish(signals.Image{URI: strings.TrimSpace(uri)})
}

// Flash publishes a screen flash. A zero duration takes the default.
func (c *Composer) Flash(intensity float64, duration time.Duration) (signals.Signal, error) {
	return c.publish(signals.Flash{Intensity: intensity, Duration: duration})
}

// Mix bundles the live signals named by ids into one WishNet signal. The
// parts are copied, so they survive their originals expiring.
func (c *Composer) Mix(ids ...string) (signals.Signal, error) {
	if len(ids) == 0 {
		return signals.Signal{}, fmt.Errorf("compose mix: %w", signals.ErrEmptyMix)
	}
	if len(ids) > signals.MaxMixParts {
		return signals.Signal{}, fmt.Errorf("compose mix: %w: got %d", signals.ErrTooManyMixParts, len(ids))
	}
	parts := make([]signals.Signal, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		part, ok := c.target.Lookup(id)
		if !ok {
			return signals.Signal{}, fmt.Errorf("compose mix: %w: %s", ErrUnknownPart, id)
		}
		parts = append(parts, part)
	}
	return c.publish(signals.Mix{Parts: parts})
}

func (c *Composer) publish(payload signals.Payload) (signals.Signal, error) {
	if err := signals.Validate(payload); err != nil {
		return signals.Signal{}, fmt.Errorf("compose %s: %w", payload.Kind(), err)
	}
	sig := signals.New(payload, c.now())
	c.target.Publish(sig)
	c.log.Debug("signal composed",
		zap.String("id", sig.ID),
		zap.String("kind", string(sig.Kind())),
		zap.Duration("ttl", sig.TTL))
	return sig, nil
}
