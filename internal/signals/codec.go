package signals

import (
	"encoding/json"
	"fmt"
	"time"
)

type wireSignal struct {
	ID           string          `json:"id"`
	CreatedAt    int64           `json:"created_at"`
	Category     Category        `json:"category"`
	ExpireOnRead bool            `json:"expire_on_read"`
	TTLMillis    *int64          `json:"ttl_ms,omitempty"`
	Kind         Kind            `json:"kind"`
	Payload      json.RawMessage `json:"payload"`
}

type wireAudio struct {
	FilePath   string `json:"file_path"`
	DurationMS int64  `json:"duration_ms"`
}

type wireFlash struct {
	Intensity  float64 `json:"intensity"`
	DurationMS int64   `json:"duration_ms"`
}

// MarshalJSON encodes the signal with a kind tag so the payload can be decoded back.
func (s Signal) MarshalJSON() ([]byte, error) {
	w := wireSignal{
		ID:           s.ID,
		CreatedAt:    s.CreatedAt.UnixMilli(),
		Category:     s.Category,
		ExpireOnRead: s.ExpireOnRead,
		Kind:         s.Kind(),
	}
	if s.HasTTL {
		ms := s.TTL.Milliseconds()
		w.TTLMillis = &ms
	}
	var body any
	switch p := s.Payload.(type) {
	case nil:
		body = struct{}{}
	case Audio:
		body = wireAudio{FilePath: p.FilePath, DurationMS: p.Duration.Milliseconds()}
	case Flash:
		body = wireFlash{Intensity: p.Intensity, DurationMS: p.Duration.Milliseconds()}
	default:
		body = p
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", w.Kind, err)
	}
	w.Payload = raw
	return json.Marshal(w)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (s *Signal) UnmarshalJSON(data []byte) error {
	var w wireSignal
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	payload, err := decodePayload(w.Kind, w.Payload)
	if err != nil {
		return err
	}
	*s = Signal{
		ID:           w.ID,
		CreatedAt:    time.UnixMilli(w.CreatedAt),
		Category:     w.Category,
		ExpireOnRead: w.ExpireOnRead,
		Payload:      payload,
	}
	if w.TTLMillis != nil {
		s.TTL = time.Duration(*w.TTLMillis) * time.Millisecond
		s.HasTTL = true
	}
	return nil
}

func decodePayload(kind Kind, raw json.RawMessage) (Payload, error) {
	switch kind {
	case "":
		return nil, nil
	case KindText:
		var p Text
		err := json.Unmarshal(raw, &p)
		return p, err
	case KindEmoji:
		var p Emoji
		err := json.Unmarshal(raw, &p)
		return p, err
	case KindImage:
		var p Image
		err := json.Unmarshal(raw, &p)
		return p, err
	case KindAudio:
		var w wireAudio
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return Audio{FilePath: w.FilePath, Duration: time.Duration(w.DurationMS) * time.Millisecond}, nil
	case KindFlash:
		var w wireFlash
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return Flash{Intensity: w.Intensity, Duration: time.Duration(w.DurationMS) * time.Millisecond}, nil
	case KindMix:
		var p Mix
		err := json.Unmarshal(raw, &p)
		return p, err
	default:
		return nil, fmt.Errorf("unknown signal kind %q", kind)
	}
}
