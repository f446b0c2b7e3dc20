package sheets

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"google.golang.org/api/googleapi"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

func TestRows(t *testing.T) {
	expenses := []*api.Expense{
		{
			Candidate: api.Candidate{
				Amount:          decimal.RequireFromString("89"),
				Description:     "Amazon Pay for shopping",
				CategoryID:      "cat-shopping",
				TransactionDate: "2025-01-07",
				PaymentMethod:   api.PaymentDigitalWallet,
			},
			ID:           "e1",
			OwnerID:      "alice",
			CategoryName: "Shopping",
		},
		{
			Candidate: api.Candidate{Amount: decimal.NewFromInt(5), CategoryID: "cat-misc"},
			ID:        "e2",
		},
	}

	rows := Rows(expenses)
	if len(rows) != 2 {
		t.Fatalf("rows: got %d, want 2", len(rows))
	}
	if len(rows[0]) != len(Header) {
		t.Errorf("columns: got %d, want %d", len(rows[0]), len(Header))
	}
	if rows[0][2] != "89.00" {
		t.Errorf("amount: got %v, want 89.00", rows[0][2])
	}
	if rows[0][3] != "Shopping" {
		t.Errorf("category: got %v, want Shopping", rows[0][3])
	}
	if rows[1][3] != "cat-misc" {
		t.Errorf("category fallback: got %v, want cat-misc", rows[1][3])
	}
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"429", &googleapi.Error{Code: http.StatusTooManyRequests}, true},
		{"wrapped 429", fmt.Errorf("append: %w", &googleapi.Error{Code: http.StatusTooManyRequests}), true},
		{"500", &googleapi.Error{Code: http.StatusInternalServerError}, false},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRateLimited(tt.err); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
