package snapshot

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestBusMessageRoundTrip(t *testing.T) {
	payload, err := encodeMessage("instance-a", `W/"abc"`)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	m, err := decodeMessage(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Instance != "instance-a" || m.ETag != `W/"abc"` {
		t.Errorf("unexpected message %+v", m)
	}
}

func TestDecodeMessage_Rejects(t *testing.T) {
	for _, payload := range []string{"", "{", `{"instance":"a"}`, `{"etag":"x"}`} {
		if _, err := decodeMessage(payload); err == nil {
			t.Errorf("decodeMessage(%q) should fail", payload)
		}
	}
}

func TestNewRedisBus_InvalidURL(t *testing.T) {
	_, err := NewRedisBus(context.Background(), "not-a-redis-url", zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for invalid URL")
	}
}
