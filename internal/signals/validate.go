package signals

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rivo/uniseg"
)

const (
	MaxTextLength    = 200
	MaxAudioDuration = 15 * time.Second
	MaxMixParts      = 10
)

var (
	ErrEmptyText       = errors.New("text is empty")
	ErrTextTooLong     = errors.New("text exceeds 200 characters")
	ErrNotSingleEmoji  = errors.New("emoji must be a single glyph")
	ErrEmptyAudioPath  = errors.New("audio file path is empty")
	ErrAudioDuration   = errors.New("audio duration out of range")
	ErrEmptyImageURI   = errors.New("image uri is empty")
	ErrIntensityRange  = errors.New("flash intensity must be within 0..1")
	ErrEmptyMix        = errors.New("mix needs at least one part")
	ErrTooManyMixParts = errors.New("mix holds at most 10 parts")
	ErrMissingPayload  = errors.New("signal has no payload")
)

// Validate checks the producer-side limits for a payload. Character counts
// are user-perceived characters, so a flag emoji counts once.
func Validate(p Payload) error {
	switch v := p.(type) {
	case nil:
		return ErrMissingPayload
	case Text:
		body := strings.TrimSpace(v.Body)
		if body == "" {
			return ErrEmptyText
		}
		if n := uniseg.GraphemeClusterCount(body); n > MaxTextLength {
			return fmt.Errorf("%w: got %d", ErrTextTooLong, n)
		}
	case Emoji:
		glyph := strings.TrimSpace(v.Glyph)
		if uniseg.GraphemeClusterCount(glyph) != 1 {
			return ErrNotSingleEmoji
		}
	case Audio:
		if strings.TrimSpace(v.FilePath) == "" {
			return ErrEmptyAudioPath
		}
		if v.Duration <= 0 || v.Duration > MaxAudioDuration {
			return fmt.Errorf("%w: %s", ErrAudioDuration, v.Duration)
		}
	case Image:
		if strings.TrimSpace(v.URI) == "" {
			return ErrEmptyImageURI
		}
	case Flash:
		if v.Intensity < 0 || v.Intensity > 1 {
			return fmt.Errorf("%w: %.2f", ErrIntensityRange, v.Intensity)
		}
	case Mix:
		if len(v.Parts) == 0 {
			return ErrEmptyMix
		}
		if len(v.Parts) > MaxMixParts {
			return fmt.Errorf("%w: got %d", ErrTooManyMixParts, len(v.Parts))
		}
	}
	return nil
}
