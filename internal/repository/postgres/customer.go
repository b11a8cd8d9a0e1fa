package postgres

import (
	"context"
	"database/sql"
	"errors"

	"checkout/internal/repository"
)

// CustomerRepository reads the bot's users, groups and names tables.
type CustomerRepository struct {
	q Querier
}

// NewCustomerRepository creates a new PostgreSQL customer repository.
func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{q: db}
}

// GroupName returns the name of a bot group.
func (r *CustomerRepository) GroupName(ctx context.Context, groupID string) (string, error) {
	var name string
	err := r.q.QueryRowContext(ctx, `SELECT group_name FROM groups WHERE id = $1`, groupID).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return name, nil
}

// UserLID returns the LID registered for a phone number.
func (r *CustomerRepository) UserLID(ctx context.Context, phone string) (string, error) {
	var lid sql.NullString
	err := r.q.QueryRowContext(ctx, `SELECT lid FROM users WHERE phone_number = $1`, phone).Scan(&lid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	if !lid.Valid || lid.String == "" {
		return "", repository.ErrNotFound
	}
	return lid.String, nil
}

// PushName returns the display name recorded for a LID.
// Returns an empty string if none is recorded.
func (r *CustomerRepository) PushName(ctx context.Context, lid string) (string, error) {
	var name sql.NullString
	err := r.q.QueryRowContext(ctx, `SELECT push_name FROM names WHERE lid = $1`, lid).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return name.String, nil
}
