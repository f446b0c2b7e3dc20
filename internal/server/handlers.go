package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ArionMiles/smsexpensor/internal/server/middleware"
	"github.com/ArionMiles/smsexpensor/pkg/api"
	"github.com/ArionMiles/smsexpensor/pkg/catalog"
	"github.com/ArionMiles/smsexpensor/pkg/dedupe"
	"github.com/ArionMiles/smsexpensor/pkg/parser"
)

// maxBodyBytes bounds the size of a parse request.
const maxBodyBytes = 4 << 20

// sourceName is recorded on expenses created through the endpoint.
const sourceName = "api"

// handleParse handles POST /api/v1/sms/parse
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := middleware.OwnerFrom(ctx)
	logger := s.logger.With("owner", owner, "request_id", middleware.RequestIDFrom(ctx))

	var req api.ParseRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Messages == nil {
		middleware.WriteError(w, http.StatusBadRequest, "messages is required")
		return
	}

	categories := req.Categories
	if categories == nil {
		var err error
		categories, err = s.catalog.Categories(ctx, owner)
		if err != nil && !errors.Is(err, catalog.ErrNotFound) {
			logger.Error("failed to fetch categories", "error", err)
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to fetch categories")
			return
		}
	}

	result, err := s.parser.ParseBatch(req.Messages, categories)
	if err != nil {
		if errors.Is(err, parser.ErrInvalidBatch) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("failed to parse messages", "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	expenses := make([]*api.Expense, 0, len(result.Entries))
	for _, entry := range result.Entries {
		expense := api.NewExpense(entry.Candidate, owner)
		expense.CategoryName = parser.CategoryName(categories, entry.Candidate.CategoryID)
		expense.Source = sourceName
		expense.MessageID = dedupe.Key(entry.Message)
		expenses = append(expenses, expense)
	}

	logger.Info("parsed expenses from SMS",
		"processed", result.Considered,
		"parsed", result.Parsed,
	)

	inserted := 0
	if s.saver != nil && len(expenses) > 0 {
		if err := s.saver.Save(ctx, expenses); err != nil {
			logger.Error("failed to save expenses", "count", len(expenses), "error", err)
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to save expenses")
			return
		}
		inserted = len(expenses)
	}

	middleware.WriteJSON(w, http.StatusOK, api.ParseResponse{
		Success:           true,
		ProcessedMessages: result.Considered,
		ParsedExpenses:    result.Parsed,
		InsertedExpenses:  inserted,
		Expenses:          expenses,
	})
}
