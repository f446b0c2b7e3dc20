// Package csv implements a Writer that appends expenses to a CSV file.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/ArionMiles/smsexpensor/pkg/api"
	"github.com/ArionMiles/smsexpensor/pkg/writer/buffered"
)

// Header is the first row of a new file.
var Header = []string{
	"ID", "Date", "Amount", "Description", "Category ID", "Category", "Payment Method", "Owner", "Source", "Recurring",
}

// Writer writes expenses to a CSV file with buffered batching.
type Writer struct {
	filePath string
	file     *os.File
	writer   *csv.Writer
	mu       sync.Mutex
	buffered *buffered.Writer
	logger   *slog.Logger
}

// Config holds configuration for the CSV writer.
type Config struct {
	// FilePath is the path to the CSV output file.
	FilePath string
	// BatchSize is the number of expenses to buffer before writing.
	BatchSize int
	// FlushInterval is the interval between automatic flushes.
	FlushInterval time.Duration
}

// New opens (or creates) the CSV file and writes the header to an empty file.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening csv file: %w", err)
	}

	w := &Writer{
		filePath: cfg.FilePath,
		file:     file,
		writer:   csv.NewWriter(file),
		logger:   logger,
	}

	stat, err := file.Stat()
	if err != nil {
		if closeErr := file.Close(); closeErr != nil {
			return nil, fmt.Errorf("stat csv file: %w (close error: %w)", err, closeErr)
		}
		return nil, fmt.Errorf("stat csv file: %w", err)
	}

	if stat.Size() == 0 {
		if err := w.writeRecords([][]string{Header}); err != nil {
			if closeErr := file.Close(); closeErr != nil {
				return nil, fmt.Errorf("writing header: %w (close error: %w)", err, closeErr)
			}
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}

	w.buffered = buffered.New(w.Save, buffered.Config{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
	}, logger.With("component", "csv_buffer"))

	logger.Info("csv writer initialized", "file", cfg.FilePath)
	return w, nil
}

// Write consumes expenses from the input channel and writes them to CSV.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Expense, ackChan chan<- string) error {
	return w.buffered.Write(ctx, in, ackChan)
}

// Save appends a batch of expenses to the file.
func (w *Writer) Save(_ context.Context, expenses []*api.Expense) error {
	records := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		records = append(records, Record(e))
	}

	if err := w.writeRecords(records); err != nil {
		return err
	}

	w.logger.Debug("wrote expenses to csv", "count", len(expenses))
	return nil
}

// Record renders an expense as a CSV row in Header order.
func Record(e *api.Expense) []string {
	return []string{
		e.ID,
		e.TransactionDate,
		e.Amount.StringFixed(2),
		e.Description,
		e.CategoryID,
		e.CategoryName,
		string(e.PaymentMethod),
		e.OwnerID,
		e.Source,
		strconv.FormatBool(e.RecurringEnabled),
	}
}

func (w *Writer) writeRecords(records [][]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.writer.WriteAll(records); err != nil {
		return fmt.Errorf("writing csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the CSV file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Flush()
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing csv file: %w", err)
	}

	w.logger.Info("csv writer closed", "file", w.filePath)
	return nil
}
