// Package postgres stores expenses and category catalogs in PostgreSQL.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArionMiles/smsexpensor/pkg/api"
	"github.com/ArionMiles/smsexpensor/pkg/writer/buffered"
)

//go:embed 001_create_expenses.sql
var migrationSQL string

// Config holds the PostgreSQL writer configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// BatchSize is the number of expenses to buffer before writing.
	BatchSize int
	// FlushInterval is the time between automatic flushes.
	FlushInterval time.Duration

	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int
}

// ConnString builds a keyword/value connection string, applying defaults.
func (c Config) ConnString() string {
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Writer writes expenses to a PostgreSQL database.
type Writer struct {
	pool     *pgxpool.Pool
	logger   *slog.Logger
	buffered *buffered.Writer
}

// New connects to PostgreSQL and runs the embedded migration.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 10
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		"host", cfg.Host,
		"port", poolConfig.ConnConfig.Port,
		"database", cfg.Database,
	)

	w := &Writer{pool: pool, logger: logger}

	if _, err := pool.Exec(ctx, migrationSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations completed successfully")

	w.buffered = buffered.New(w.Save, buffered.Config{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
	}, logger.With("component", "postgres_buffer"))

	return w, nil
}

// Pool exposes the connection pool, used by the PostgreSQL category catalog.
func (w *Writer) Pool() *pgxpool.Pool {
	return w.pool
}

// Write consumes expenses from the channel and writes them in batches.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Expense, ackChan chan<- string) error {
	return w.buffered.Write(ctx, in, ackChan)
}

// Save writes a batch in one database transaction. Expenses carrying a
// message ID are upserted on owner and message ID, so re-processing a message
// updates the owner's row and never touches another owner's.
func (w *Writer) Save(ctx context.Context, expenses []*api.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, e := range expenses {
		batch.Queue(`
			INSERT INTO expenses (
				id, owner_id, message_id, amount, description, category_id, category_name,
				transaction_date, payment_method, source, recurring_enabled
			) VALUES ($1::text::uuid, $2, NULLIF($3, ''), $4::text::numeric, $5, $6, $7, $8::text::date, $9, $10, $11)
			ON CONFLICT (owner_id, message_id) DO UPDATE SET
				amount = EXCLUDED.amount,
				description = EXCLUDED.description,
				category_id = EXCLUDED.category_id,
				category_name = EXCLUDED.category_name,
				transaction_date = EXCLUDED.transaction_date,
				payment_method = EXCLUDED.payment_method,
				updated_at = NOW()
			RETURNING id::text
		`,
			e.ID,
			e.OwnerID,
			e.MessageID,
			e.Amount.String(),
			e.Description,
			e.CategoryID,
			e.CategoryName,
			e.TransactionDate,
			string(e.PaymentMethod),
			e.Source,
			e.RecurringEnabled,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i, e := range expenses {
		// On conflict the stored row keeps its original ID.
		if err := results.QueryRow().Scan(&e.ID); err != nil {
			results.Close()
			return fmt.Errorf("inserting expense %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("closing batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	w.logger.Info("wrote expense batch", "count", len(expenses))
	return nil
}

// ReplaceCategories stores the catalog of an owner, replacing any previous one.
func (w *Writer) ReplaceCategories(ctx context.Context, ownerID string, categories []api.Category) error {
	return pgx.BeginFunc(ctx, w.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM categories WHERE owner_id = $1`, ownerID); err != nil {
			return fmt.Errorf("deleting categories: %w", err)
		}

		rows := make([][]any, 0, len(categories))
		for i, c := range categories {
			rows = append(rows, []any{ownerID, c.ID, c.Name, i})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"categories"},
			[]string{"owner_id", "id", "name", "position"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("copying categories: %w", err)
		}
		return nil
	})
}

// Close closes the database connection pool.
func (w *Writer) Close() {
	if w.pool != nil {
		w.pool.Close()
		w.logger.Info("closed PostgreSQL connection pool")
	}
}
