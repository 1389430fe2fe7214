package signals

import "time"

// Kind names a payload variant.
type Kind string

const (
	KindText  Kind = "text"
	KindEmoji Kind = "emoji"
	KindAudio Kind = "audio"
	KindImage Kind = "image"
	KindFlash Kind = "flash"
	KindMix   Kind = "mix"
)

// Kinds lists every payload kind in display order.
var Kinds = []Kind{KindText, KindEmoji, KindAudio, KindImage, KindFlash, KindMix}

// Payload is implemented only by the variant types in this package.
type Payload interface {
	Kind() Kind
	payload()
}

// Text is a short message.
type Text struct {
	Body string `json:"body"`
}

// Emoji carries a single glyph.
type Emoji struct {
	Glyph string `json:"glyph"`
}

// Audio references a recorded clip on local storage.
type Audio struct {
	FilePath string        `json:"file_path"`
	Duration time.Duration `json:"-"`
}

// Image references a picked picture.
type Image struct {
	URI string `json:"uri"`
}

// Flash is a light pulse of the given intensity (0..1).
type Flash struct {
	Intensity float64       `json:"intensity"`
	Duration  time.Duration `json:"-"`
}

// Mix bundles copies of other signals.
type Mix struct {
	Parts []Signal `json:"parts"`
}

func (Text) Kind() Kind  { return KindText }
func (Emoji) Kind() Kind { return KindEmoji }
func (Audio) Kind() Kind { return KindAudio }
func (Image) Kind() Kind { return KindImage }
func (Flash) Kind() Kind { return KindFlash }
func (Mix) Kind() Kind   { return KindMix }

func (Text) payload()  {}
func (Emoji) payload() {}
func (Audio) payload() {}
func (Image) payload() {}
func (Flash) payload() {}
func (Mix) payload()   {}
