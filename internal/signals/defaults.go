package signals

import (
	"time"

	"github.com/google/uuid"
)

// Construction-time defaults per payload kind. The store never applies them.
const (
	TextTTL  = 30 * time.Second
	EmojiTTL = 30 * time.Second
	AudioTTL = 60 * time.Second
	ImageTTL = 60 * time.Second
	FlashTTL = 15 * time.Second
	MixTTL   = 24 * time.Hour

	DefaultFlashDuration = 300 * time.Millisecond
)

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

// New builds a signal for payload with the defaults of its kind, created at now.
func New(payload Payload, now time.Time) Signal {
	sig := Signal{
		ID:           NewID(),
		CreatedAt:    now,
		Category:     Ephemeral,
		ExpireOnRead: true,
		Payload:      payload,
	}
	switch p := payload.(type) {
	case Text:
		sig = sig.WithTTL(TextTTL)
	case Emoji:
		sig = sig.WithTTL(EmojiTTL)
	case Audio:
		sig = sig.WithTTL(AudioTTL)
	case Image:
		sig = sig.WithTTL(ImageTTL)
	case Flash:
		if p.Duration == 0 {
			p.Duration = DefaultFlashDuration
			sig.Payload = p
		}
		sig = sig.WithTTL(FlashTTL)
	case Mix:
		sig.Category = WishNet
		sig.ExpireOnRead = false
		sig = sig.WithTTL(MixTTL)
		sig = sig.Clone()
	}
	return sig
}
