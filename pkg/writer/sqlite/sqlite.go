// Package sqlite stores expenses and category catalogs in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ArionMiles/smsexpensor/pkg/api"
	"github.com/ArionMiles/smsexpensor/pkg/catalog"
	"github.com/ArionMiles/smsexpensor/pkg/writer/buffered"
)

const schema = `
CREATE TABLE IF NOT EXISTS categories (
	owner_id TEXT    NOT NULL,
	id       TEXT    NOT NULL,
	name     TEXT    NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (owner_id, id)
);

CREATE TABLE IF NOT EXISTS expenses (
	id                TEXT PRIMARY KEY,
	owner_id          TEXT    NOT NULL,
	message_id        TEXT,
	amount            TEXT    NOT NULL,
	description       TEXT    NOT NULL,
	category_id       TEXT    NOT NULL DEFAULT '',
	category_name     TEXT    NOT NULL DEFAULT '',
	transaction_date  TEXT    NOT NULL,
	payment_method    TEXT    NOT NULL,
	source            TEXT    NOT NULL DEFAULT '',
	recurring_enabled INTEGER NOT NULL DEFAULT 0,
	created_at        TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at        TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_expenses_owner_date ON expenses (owner_id, transaction_date);
CREATE UNIQUE INDEX IF NOT EXISTS idx_expenses_owner_message ON expenses (owner_id, message_id);
`

// Config holds configuration for the SQLite writer.
type Config struct {
	// Path is the database file. ":memory:" keeps everything in memory.
	Path string
	// BatchSize is the number of expenses to buffer before writing.
	BatchSize int
	// FlushInterval is the interval between automatic flushes.
	FlushInterval time.Duration
}

// Writer writes expenses to SQLite.
type Writer struct {
	db       *sql.DB
	logger   *slog.Logger
	buffered *buffered.Writer
}

// New opens (or creates) the database and ensures the schema exists.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite allows a single writer; an in-memory database also exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := &Writer{db: db, logger: logger}
	w.buffered = buffered.New(w.Save, buffered.Config{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
	}, logger.With("component", "sqlite_buffer"))

	logger.Info("sqlite writer initialized", "path", cfg.Path)
	return w, nil
}

// Write consumes expenses from the channel and writes them in batches.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Expense, ackChan chan<- string) error {
	return w.buffered.Write(ctx, in, ackChan)
}

// Save writes a batch in one transaction, upserting on owner and message ID.
func (w *Writer) Save(ctx context.Context, expenses []*api.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO expenses (
			id, owner_id, message_id, amount, description, category_id, category_name,
			transaction_date, payment_method, source, recurring_enabled
		) VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, message_id) DO UPDATE SET
			amount = excluded.amount,
			description = excluded.description,
			category_id = excluded.category_id,
			category_name = excluded.category_name,
			transaction_date = excluded.transaction_date,
			payment_method = excluded.payment_method,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range expenses {
		err := stmt.QueryRowContext(ctx,
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
		).Scan(&e.ID)
		if err != nil {
			return fmt.Errorf("insert expense %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	w.logger.Debug("wrote expenses to sqlite", "count", len(expenses))
	return nil
}

// Count returns the number of stored expenses of an owner.
func (w *Writer) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	if err := w.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses WHERE owner_id = ?`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

// ReplaceCategories stores the catalog of an owner, replacing any previous one.
func (w *Writer) ReplaceCategories(ctx context.Context, ownerID string, categories []api.Category) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("delete categories: %w", err)
	}
	for i, c := range categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (owner_id, id, name, position) VALUES (?, ?, ?, ?)`,
			ownerID, c.ID, c.Name, i,
		); err != nil {
			return fmt.Errorf("insert category %q: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// Categories implements catalog.Provider.
func (w *Writer) Categories(ctx context.Context, ownerID string) ([]api.Category, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT id, name FROM categories
		WHERE owner_id = ?
		ORDER BY position, name
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []api.Category
	for rows.Next() {
		var c api.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("owner %q: %w", ownerID, catalog.ErrNotFound)
	}
	return out, nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
