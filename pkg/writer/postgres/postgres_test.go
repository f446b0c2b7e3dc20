package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/ArionMiles/smsexpensor/pkg/api"
	"github.com/ArionMiles/smsexpensor/pkg/catalog"
)

func TestConfig_ConnString(t *testing.T) {
	got := Config{Host: "db", Database: "smsexpensor", User: "u", Password: "p"}.ConnString()
	want := "host=db port=5432 user=u password=p dbname=smsexpensor sslmode=disable"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNew_ConnectionFailure(t *testing.T) {
	cfg := Config{
		Host:     "nonexistent-host.invalid",
		Database: "smsexpensor",
		User:     "smsexpensor",
		Password: "password",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := New(ctx, cfg, slog.New(slog.NewTextHandler(os.Stdout, nil))); err == nil {
		t.Error("expected error when connecting to nonexistent host, got nil")
	}
}

// startPostgres runs a disposable PostgreSQL container and returns a writer connected to it.
func startPostgres(t *testing.T) *Writer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("smsexpensor"),
		tcpostgres.WithUsername("smsexpensor"),
		tcpostgres.WithPassword("password"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("failed to get port: %v", err)
	}

	w, err := New(ctx, Config{
		Host:          host,
		Port:          port.Int(),
		Database:      "smsexpensor",
		User:          "smsexpensor",
		Password:      "password",
		BatchSize:     5,
		FlushInterval: time.Second,
	}, slog.New(slog.NewTextHandler(os.Stdout, nil)))
	if err != nil {
		t.Fatalf("failed to create writer: %v", err)
	}
	t.Cleanup(w.Close)
	return w
}

func newExpense(messageID, amount string) *api.Expense {
	return &api.Expense{
		Candidate: api.Candidate{
			Amount:          decimal.RequireFromString(amount),
			Description:     "RELIANCE PETROL PUMP",
			CategoryID:      "cat-fuel",
			TransactionDate: "2025-01-05",
			PaymentMethod:   api.PaymentDigitalWallet,
		},
		ID:           uuid.NewString(),
		OwnerID:      "alice",
		CategoryName: "Fuel",
		Source:       "smsbackup",
		MessageID:    messageID,
	}
}

func TestWrite_BatchAndAcks(t *testing.T) {
	w := startPostgres(t)

	in := make(chan *api.Expense, 10)
	ackChan := make(chan string, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Write(ctx, in, ackChan)
	}()

	const n = 7
	for i := range n {
		in <- newExpense("msg-"+string(rune('a'+i)), "100.50")
	}
	close(in)

	if err := <-errChan; err != nil {
		t.Fatalf("writer returned error: %v", err)
	}
	if len(ackChan) != n {
		t.Errorf("acks: got %d, want %d", len(ackChan), n)
	}

	var count int
	var totalText string
	if err := w.Pool().QueryRow(ctx, `SELECT COUNT(*), SUM(amount)::text FROM expenses`).Scan(&count, &totalText); err != nil {
		t.Fatalf("querying expenses: %v", err)
	}
	total := decimal.RequireFromString(totalText)
	if count != n {
		t.Errorf("rows: got %d, want %d", count, n)
	}
	if !total.Equal(decimal.RequireFromString("703.50")) {
		t.Errorf("total: got %s, want 703.50", total)
	}
}

func TestSave_UpsertsOnMessageID(t *testing.T) {
	w := startPostgres(t)
	ctx := context.Background()

	first := newExpense("msg-1", "100")
	originalID := first.ID
	if err := w.Save(ctx, []*api.Expense{first}); err != nil {
		t.Fatalf("first save: %v", err)
	}

	again := newExpense("msg-1", "250")
	if err := w.Save(ctx, []*api.Expense{again, newExpense("", "10"), newExpense("", "20")}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if again.ID != originalID {
		t.Errorf("upserted id: got %s, want %s", again.ID, originalID)
	}

	var count int
	var amount string
	if err := w.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM expenses`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if err := w.Pool().QueryRow(ctx, `SELECT amount::text FROM expenses WHERE message_id = 'msg-1'`).Scan(&amount); err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("rows: got %d, want 3", count)
	}
	if amount != "250" {
		t.Errorf("amount: got %s, want 250", amount)
	}
}

func TestSave_KeepsOwnersApart(t *testing.T) {
	w := startPostgres(t)
	ctx := context.Background()

	alice := newExpense("id:1", "100")
	bob := newExpense("id:1", "999")
	bob.OwnerID = "bob"

	if err := w.Save(ctx, []*api.Expense{alice}); err != nil {
		t.Fatalf("save alice: %v", err)
	}
	if err := w.Save(ctx, []*api.Expense{bob}); err != nil {
		t.Fatalf("save bob: %v", err)
	}
	if alice.ID == bob.ID {
		t.Errorf("owners share expense id %s", alice.ID)
	}

	for _, tt := range []struct {
		owner, want string
	}{
		{"alice", "100"},
		{"bob", "999"},
	} {
		var amount string
		err := w.Pool().QueryRow(ctx,
			`SELECT amount::text FROM expenses WHERE owner_id = $1 AND message_id = 'id:1'`, tt.owner,
		).Scan(&amount)
		if err != nil {
			t.Fatalf("%s: %v", tt.owner, err)
		}
		if amount != tt.want {
			t.Errorf("%s amount: got %s, want %s", tt.owner, amount, tt.want)
		}
	}
}

func TestSave_LargeAmount(t *testing.T) {
	w := startPostgres(t)
	ctx := context.Background()

	const huge = "1000000000000000000.75"
	if err := w.Save(ctx, []*api.Expense{newExpense("id:big", huge), newExpense("id:small", "10")}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var amount string
	if err := w.Pool().QueryRow(ctx, `SELECT amount::text FROM expenses WHERE message_id = 'id:big'`).Scan(&amount); err != nil {
		t.Fatal(err)
	}
	if amount != huge {
		t.Errorf("amount: got %s, want %s", amount, huge)
	}
}

func TestCategories_RoundTrip(t *testing.T) {
	w := startPostgres(t)
	ctx := context.Background()

	cats := []api.Category{
		{ID: "cat-fuel", Name: "Fuel"},
		{ID: "cat-food", Name: "Food"},
		{ID: "cat-misc", Name: "Misc"},
	}
	if err := w.ReplaceCategories(ctx, "alice", cats); err != nil {
		t.Fatalf("ReplaceCategories: %v", err)
	}

	provider := catalog.NewPostgres(w.Pool())
	got, err := provider.Categories(ctx, "alice")
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(got) != len(cats) {
		t.Fatalf("len: got %d, want %d", len(got), len(cats))
	}
	for i := range cats {
		if got[i] != cats[i] {
			t.Errorf("category %d: got %+v, want %+v", i, got[i], cats[i])
		}
	}

	if _, err := provider.Categories(ctx, "bob"); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("unknown owner: got %v, want ErrNotFound", err)
	}
}
