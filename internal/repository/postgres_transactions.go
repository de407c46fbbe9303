package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dkaragoz/finbook/internal/models"
)

// Transaction repository methods
func (r *PostgresRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, type, title, description, amount, currency,
			account_id, category_id, from_account_id, to_account_id,
			occurred_at, deleted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NULL, $13, $14)
	`

	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		tx.ID, tx.UserID, tx.Type, tx.Title, tx.Description, tx.Amount, tx.Currency,
		tx.AccountID, tx.CategoryID, tx.FromAccountID, tx.ToAccountID,
		tx.OccurredAt, tx.CreatedAt, tx.UpdatedAt)

	return err
}

func (r *PostgresRepository) GetTransaction(ctx context.Context, userID, txID string) (*models.Transaction, error) {
	query := `SELECT * FROM transactions WHERE id = $1 AND user_id = $2`

	var tx models.Transaction
	err := r.db.GetContext(ctx, &tx, query, txID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &tx, nil
}

func (r *PostgresRepository) ListTransactions(ctx context.Context, userID string, q models.ListTransactionsQuery) ([]models.Transaction, error) {
	query := `SELECT * FROM transactions WHERE user_id = $1 AND deleted_at IS NULL`
	args := []interface{}{userID}

	addArg := func(clause string, v interface{}) {
		args = append(args, v)
		query += clause
	}

	if q.From != nil {
		addArg(` AND occurred_at >= $`+strconv.Itoa(len(args)+1), *q.From)
	}
	if q.To != nil {
		addArg(` AND occurred_at <= $`+strconv.Itoa(len(args)+1), *q.To)
	}
	if q.AccountID != "" {
		n := strconv.Itoa(len(args) + 1)
		addArg(` AND (account_id = $`+n+` OR from_account_id = $`+n+` OR to_account_id = $`+n+`)`, q.AccountID)
	}
	if q.CategoryID != "" {
		addArg(` AND category_id = $`+strconv.Itoa(len(args)+1), q.CategoryID)
	}
	if q.Type != "" {
		addArg(` AND type = $`+strconv.Itoa(len(args)+1), q.Type)
	}

	query += ` ORDER BY occurred_at DESC, created_at DESC`

	txs := []models.Transaction{}
	err := r.db.SelectContext(ctx, &txs, query, args...)
	if err != nil {
		return nil, err
	}

	return txs, nil
}

// ListForAccount returns the active transactions touching the account in any
// of its three roles; this is the row set the balance fold runs over.
func (r *PostgresRepository) ListForAccount(ctx context.Context, userID, accountID string) ([]models.Transaction, error) {
	query := `
		SELECT * FROM transactions
		WHERE user_id = $1 AND deleted_at IS NULL
		  AND (account_id = $2 OR from_account_id = $2 OR to_account_id = $2)
		ORDER BY occurred_at ASC
	`

	txs := []models.Transaction{}
	err := r.db.SelectContext(ctx, &txs, query, userID, accountID)
	if err != nil {
		return nil, err
	}

	return txs, nil
}

func (r *PostgresRepository) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	query := `
		UPDATE transactions
		SET type = $1, title = $2, description = $3, amount = $4,
			account_id = $5, category_id = $6, occurred_at = $7, updated_at = $8
		WHERE id = $9 AND user_id = $10 AND deleted_at IS NULL
	`

	tx.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, query,
		tx.Type, tx.Title, tx.Description, tx.Amount,
		tx.AccountID, tx.CategoryID, tx.OccurredAt, tx.UpdatedAt,
		tx.ID, tx.UserID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) SoftDeleteTransaction(ctx context.Context, userID, txID string, at time.Time) error {
	query := `
		UPDATE transactions SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND user_id = $3 AND deleted_at IS NULL
	`

	res, err := r.db.ExecContext(ctx, query, at, txID, userID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
