package json

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

func expense(id string) *api.Expense {
	return &api.Expense{
		Candidate: api.Candidate{
			Amount:          decimal.RequireFromString("150"),
			Description:     "DOMINOS PIZZA via Paytm",
			CategoryID:      "cat-food",
			TransactionDate: "2025-01-06",
			PaymentMethod:   api.PaymentDigitalWallet,
		},
		ID:        id,
		OwnerID:   "alice",
		MessageID: "m-" + id,
	}
}

func TestWriter_WriteAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.json")

	w, err := New(Config{FilePath: path}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	in := make(chan *api.Expense, 2)
	ackChan := make(chan string, 2)
	in <- expense("e1")
	in <- expense("e2")
	close(in)

	if err := w.Write(context.Background(), in, ackChan); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if w.Count() != 2 {
		t.Errorf("count: got %d, want 2", w.Count())
	}
	if len(ackChan) != 2 {
		t.Errorf("acks: got %d, want 2", len(ackChan))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw[0]["amount"] != "150" {
		t.Errorf("amount: got %v, want \"150\"", raw[0]["amount"])
	}
	if _, ok := raw[0]["MessageID"]; ok {
		t.Error("message id must not be serialized")
	}

	reloaded, err := New(Config{FilePath: path}, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if err := reloaded.Save(context.Background(), []*api.Expense{expense("e3")}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if reloaded.Count() != 3 {
		t.Errorf("count after reload: got %d, want 3", reloaded.Count())
	}
}

func TestNew_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(Config{FilePath: path}, nil); err == nil {
		t.Error("expected error for corrupt file")
	}
}
