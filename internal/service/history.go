package service

import (
	"context"
	"strings"
	"time"

	"checkout/internal/domain"
	"checkout/internal/repository"
)

// HistoryPerPage is the page size of the server-side history listing.
const HistoryPerPage = 10

// HistoryService lists a customer's transactions from the server-side store.
type HistoryService struct {
	history repository.HistoryRepository
}

// NewHistoryService creates a new HistoryService. history may be nil when
// no database is configured.
func NewHistoryService(history repository.HistoryRepository) *HistoryService {
	return &HistoryService{history: history}
}

// Enabled reports whether a server-side store is configured.
func (s *HistoryService) Enabled() bool {
	return s.history != nil
}

// HistoryRequest selects a page of a customer's history.
type HistoryRequest struct {
	Identifier string
	Type       string
	Page       int
}

// HistoryResult is one page of a customer's history.
type HistoryResult struct {
	History     []domain.TransactionRecord `json:"history"`
	Page        int                        `json:"page"`
	PerPage     int                        `json:"perPage"`
	TotalCount  int                        `json:"totalCount"`
	TotalPages  int                        `json:"totalPages"`
	HasNext     bool                       `json:"hasNext"`
	HasPrevious bool                       `json:"hasPrevious"`
}

// List returns one page of the customer's transactions, newest first.
func (s *HistoryService) List(ctx context.Context, req HistoryRequest) (*HistoryResult, error) {
	if s.history == nil {
		return nil, ErrDatabaseUnavailable
	}

	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		return nil, ErrMissingIdentifier
	}
	if req.Type != domain.CustomerTypeUser && req.Type != domain.CustomerTypeGroup {
		return nil, ErrInvalidCustomerType
	}

	page := req.Page
	if page < 1 {
		page = 1
	}

	result, err := s.history.ListByCustomer(ctx, repository.HistoryQuery{
		Identifier: identifier,
		GroupID:    req.Type == domain.CustomerTypeGroup,
		Page:       page,
		PerPage:    HistoryPerPage,
	})
	if err != nil {
		return nil, err
	}

	records := make([]domain.TransactionRecord, 0, len(result.Transactions))
	for _, tx := range result.Transactions {
		rec := tx.Record()
		rec.CustomerName = tx.CustomerName
		rec.UpdatedAt = tx.UpdatedAt.Format(time.RFC3339)
		if tx.PaidAt != nil {
			rec.PaidAt = tx.PaidAt.Format(time.RFC3339)
		}
		records = append(records, rec)
	}

	totalPages := (result.TotalCount + HistoryPerPage - 1) / HistoryPerPage
	return &HistoryResult{
		History:     records,
		Page:        page,
		PerPage:     HistoryPerPage,
		TotalCount:  result.TotalCount,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}, nil
}
