package dedupe

import (
	"context"
	"strings"
	"testing"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

func TestKey(t *testing.T) {
	a := api.RawMessage{SenderID: "HDFCBK", Body: "Rs 500 debited", TimestampMs: 1736035200000}
	b := a
	b.TimestampMs++

	if Key(a) != Key(a) {
		t.Error("key is not stable")
	}
	if Key(a) == Key(b) {
		t.Error("messages with different timestamps share a key")
	}
	if !strings.HasPrefix(Key(a), "sig:") {
		t.Errorf("signature key: got %q", Key(a))
	}

	withID := a
	withID.ID = "m-1"
	if got := Key(withID); got != "id:m-1" {
		t.Errorf("id key: got %q, want id:m-1", got)
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	var m Memory

	seen, err := m.Seen(ctx, "a")
	if err != nil || seen {
		t.Fatalf("unmarked key: got %v, %v", seen, err)
	}

	if err := m.Mark(ctx, "a", "b"); err != nil {
		t.Fatalf("Mark: %v", err)
	}

	for _, k := range []string{"a", "b"} {
		if seen, _ := m.Seen(ctx, k); !seen {
			t.Errorf("key %q: expected seen", k)
		}
	}
	if m.Len() != 2 {
		t.Errorf("len: got %d, want 2", m.Len())
	}
}
