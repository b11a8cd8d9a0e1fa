package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"checkout/internal/domain"
	"checkout/internal/repository"
)

const uniqueViolation = "23505"

// HistoryRepository is a PostgreSQL implementation of repository.HistoryRepository.
type HistoryRepository struct {
	q Querier
}

// NewHistoryRepository creates a new PostgreSQL history repository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{q: db}
}

// Create persists a newly created transaction.
func (r *HistoryRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO payment_history
			(reference, merchant_ref, phone_number, group_id, customer_name, method, amount, status, order_items, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`

	items, err := json.Marshal(tx.OrderItems)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}

	_, err = r.q.ExecContext(ctx, query,
		tx.Reference,
		tx.MerchantRef,
		nullString(tx.CustomerPhone),
		nullString(tx.GroupID),
		tx.CustomerName,
		tx.Method,
		tx.Amount,
		tx.Status,
		string(items),
		tx.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return err
	}

	return nil
}

// UpdateStatus sets the status of a transaction by reference or merchant_ref.
func (r *HistoryRepository) UpdateStatus(ctx context.Context, reference string, status domain.TransactionStatus, at time.Time, paidAt *time.Time) error {
	query := `
		UPDATE payment_history
		SET status = $1, updated_at = $2, paid_at = COALESCE($3, paid_at)
		WHERE reference = $4 OR merchant_ref = $4
	`

	var paid sql.NullTime
	if paidAt != nil {
		paid = sql.NullTime{Time: *paidAt, Valid: true}
	}

	result, err := r.q.ExecContext(ctx, query, status, at, paid, reference)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// AppendEvent adds an entry to the transaction event log.
func (r *HistoryRepository) AppendEvent(ctx context.Context, event *domain.TransactionEvent) error {
	query := `
		INSERT INTO transaction_events (id, merchant_ref, reference, status, source, payload, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var payload sql.NullString
	if len(event.Payload) > 0 {
		payload = sql.NullString{String: string(event.Payload), Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		event.ID,
		event.MerchantRef,
		event.Reference,
		event.Status,
		event.Source,
		payload,
		event.ObservedAt,
	)

	return err
}

// ListByCustomer returns one page of a phone number's or group's transactions.
func (r *HistoryRepository) ListByCustomer(ctx context.Context, q repository.HistoryQuery) (*repository.HistoryPage, error) {
	column := "phone_number"
	if q.GroupID {
		column = "group_id"
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM payment_history WHERE ` + column + ` = $1`
	if err := r.q.QueryRowContext(ctx, countQuery, q.Identifier).Scan(&total); err != nil {
		return nil, err
	}

	query := `
		SELECT reference, merchant_ref, COALESCE(phone_number, ''), COALESCE(group_id, ''), customer_name,
		       method, amount, status, order_items, created_at, updated_at, paid_at
		FROM payment_history
		WHERE ` + column + ` = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.q.QueryContext(ctx, query, q.Identifier, q.PerPage, (q.Page-1)*q.PerPage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := &repository.HistoryPage{TotalCount: total, Transactions: []*domain.Transaction{}}
	for rows.Next() {
		var (
			tx     domain.Transaction
			items  []byte
			paidAt sql.NullTime
		)
		if err := rows.Scan(
			&tx.Reference,
			&tx.MerchantRef,
			&tx.CustomerPhone,
			&tx.GroupID,
			&tx.CustomerName,
			&tx.Method,
			&tx.Amount,
			&tx.Status,
			&items,
			&tx.CreatedAt,
			&tx.UpdatedAt,
			&paidAt,
		); err != nil {
			return nil, err
		}
		if len(items) > 0 {
			if err := json.Unmarshal(items, &tx.OrderItems); err != nil {
				return nil, fmt.Errorf("decode order items for %s: %w", tx.Reference, err)
			}
		}
		if paidAt.Valid {
			t := paidAt.Time
			tx.PaidAt = &t
		}
		page.Transactions = append(page.Transactions, &tx)
	}

	return page, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
