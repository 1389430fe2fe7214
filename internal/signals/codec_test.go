package signals

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSignalJSONKeepsPayloadVariant(t *testing.T) {
	created := time.UnixMilli(1_700_000_000_123)
	audio := Signal{ID: "a", CreatedAt: created, Category: Ephemeral, ExpireOnRead: true, TTL: time.Minute, HasTTL: true,
		Payload: Audio{FilePath: "rec.m4a", Duration: 2500 * time.Millisecond}}
	mix := Signal{ID: "m", CreatedAt: created, Category: WishNet, TTL: 24 * time.Hour, HasTTL: true,
		Payload: Mix{Parts: []Signal{audio}}}

	data, err := json.Marshal(mix)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"kind":"mix"`) {
		t.Fatalf("kind tag missing: %s", data)
	}

	var decoded Signal
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ID != "m" || decoded.Category != WishNet || decoded.TTL != 24*time.Hour {
		t.Fatalf("unexpected header: %+v", decoded)
	}
	parts := decoded.Payload.(Mix).Parts
	if len(parts) != 1 {
		t.Fatalf("expected one part, got %d", len(parts))
	}
	got, ok := parts[0].Payload.(Audio)
	if !ok || got.Duration != 2500*time.Millisecond || got.FilePath != "rec.m4a" {
		t.Fatalf("audio part lost: %+v", parts[0].Payload)
	}
	if !parts[0].CreatedAt.Equal(created) {
		t.Fatalf("createdAt = %v", parts[0].CreatedAt)
	}
}

func TestSignalJSONOmitsAbsentTTL(t *testing.T) {
	data, err := json.Marshal(Signal{ID: "x", Payload: Text{Body: "hi"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "ttl_ms") {
		t.Fatalf("ttl should be omitted: %s", data)
	}
	var decoded Signal
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.HasTTL || decoded.TTL != 0 {
		t.Fatalf("ttl = %s has=%t", decoded.TTL, decoded.HasTTL)
	}
}

func TestSignalJSONKeepsZeroTTL(t *testing.T) {
	t0 := time.UnixMilli(1_700_000_000_000)
	data, err := json.Marshal(Signal{ID: "z", CreatedAt: t0, Payload: Text{Body: "gone"}}.WithTTL(0))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"ttl_ms":0`) {
		t.Fatalf("zero ttl must be encoded: %s", data)
	}
	var decoded Signal
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.HasTTL || decoded.TTL != 0 || !decoded.IsExpired(t0) {
		t.Fatalf("zero ttl lost in round trip: %+v", decoded)
	}
}

func TestSignalJSONRejectsUnknownKind(t *testing.T) {
	var s Signal
	if err := json.Unmarshal([]byte(`{"id":"x","kind":"hologram","payload":{}}`), &s); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
