package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/dkaragoz/finbook/internal/models"
)

// uniqueViolation is the Postgres error code raised when an insert or update
// hits a unique index, including the partial active-name index.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Account repository methods
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, name, type, currency, color, deleted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULL, $7, $8)
	`

	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.UserID, account.Name, account.Type,
		account.Currency, account.Color, account.CreatedAt, account.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *PostgresRepository) GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	query := `SELECT * FROM accounts WHERE id = $1 AND user_id = $2`

	var account models.Account
	err := r.db.GetContext(ctx, &account, query, accountID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &account, nil
}

func (r *PostgresRepository) GetActiveAccountByName(ctx context.Context, userID, name string) (*models.Account, error) {
	query := `SELECT * FROM accounts WHERE user_id = $1 AND name = $2 AND deleted_at IS NULL`

	var account models.Account
	err := r.db.GetContext(ctx, &account, query, userID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &account, nil
}

func (r *PostgresRepository) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	query := `
		SELECT * FROM accounts
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC
	`

	accounts := []models.Account{}
	err := r.db.SelectContext(ctx, &accounts, query, userID)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *PostgresRepository) ListDeletedAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	query := `
		SELECT * FROM accounts
		WHERE user_id = $1 AND deleted_at IS NOT NULL
		ORDER BY deleted_at DESC
	`

	accounts := []models.Account{}
	err := r.db.SelectContext(ctx, &accounts, query, userID)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *PostgresRepository) UpdateAccount(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET name = $1, type = $2, color = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6 AND deleted_at IS NULL
	`

	account.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, query,
		account.Name, account.Type, account.Color, account.UpdatedAt,
		account.ID, account.UserID)
	if isUniqueViolation(err) {
		return ErrConflict
	}
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

// SoftDeleteAccount stamps the account and every active transaction
// referencing it with the same timestamp, inside one database transaction.
// The shared timestamp is what later lets RestoreAccount tell this cascade's
// rows apart from transactions the user had deleted individually.
func (r *PostgresRepository) SoftDeleteAccount(ctx context.Context, userID, accountID string, at time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE transactions SET deleted_at = $1, updated_at = $1
		WHERE user_id = $2 AND deleted_at IS NULL
		  AND (account_id = $3 OR from_account_id = $3 OR to_account_id = $3)
	`, at, userID, accountID)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE accounts SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND user_id = $3 AND deleted_at IS NULL
	`, at, accountID, userID)
	if err != nil {
		return 0, err
	}

	accounts, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if accounts == 0 {
		err = ErrNotFound
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return affected, nil
}

// RestoreAccount clears the account's soft-delete stamp and the stamps of the
// transactions deleted by the same cascade, identified by the matching
// timestamp. Transactions the user deleted individually before the account
// delete keep their older stamp and stay deleted. The active-name uniqueness
// invariant is re-checked inside the transaction so a rename race cannot slip
// a duplicate through.
func (r *PostgresRepository) RestoreAccount(ctx context.Context, userID, accountID string) (*models.Account, int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	var account models.Account
	err = tx.GetContext(ctx, &account,
		`SELECT * FROM accounts WHERE id = $1 AND user_id = $2`, accountID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
		}
		return nil, 0, err
	}
	if account.DeletedAt == nil {
		err = ErrNotDeleted
		return nil, 0, err
	}

	var collision bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM accounts
			WHERE user_id = $1 AND name = $2 AND deleted_at IS NULL AND id <> $3
		)
	`, userID, account.Name, accountID).Scan(&collision)
	if err != nil {
		return nil, 0, err
	}
	if collision {
		err = ErrConflict
		return nil, 0, err
	}

	now := time.Now().UTC()

	res, err := tx.ExecContext(ctx, `
		UPDATE transactions SET deleted_at = NULL, updated_at = $1
		WHERE user_id = $2 AND deleted_at = $3
		  AND (account_id = $4 OR from_account_id = $4 OR to_account_id = $4)
	`, now, userID, *account.DeletedAt, accountID)
	if err != nil {
		return nil, 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, 0, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE accounts SET deleted_at = NULL, updated_at = $1
		WHERE id = $2 AND user_id = $3
	`, now, accountID, userID)
	if err != nil {
		return nil, 0, err
	}

	if err = tx.Commit(); err != nil {
		return nil, 0, err
	}

	account.DeletedAt = nil
	account.UpdatedAt = now
	return &account, affected, nil
}

// HardDeleteAccount permanently removes the account and every transaction
// referencing it, whatever their soft-delete state, in one database
// transaction.
func (r *PostgresRepository) HardDeleteAccount(ctx context.Context, userID, accountID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM transactions
		WHERE user_id = $1
		  AND (account_id = $2 OR from_account_id = $2 OR to_account_id = $2)
	`, userID, accountID)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	res, err = tx.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = $1 AND user_id = $2`, accountID, userID)
	if err != nil {
		return 0, err
	}

	accounts, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if accounts == 0 {
		err = ErrNotFound
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return affected, nil
}

// Retention sweep repository methods
func (r *PostgresRepository) ListExpiredAccounts(ctx context.Context, cutoff time.Time) ([]models.Account, error) {
	query := `
		SELECT * FROM accounts
		WHERE deleted_at IS NOT NULL AND deleted_at < $1
		ORDER BY deleted_at ASC
	`

	accounts := []models.Account{}
	err := r.db.SelectContext(ctx, &accounts, query, cutoff)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// PurgeAccount removes one soft-deleted account for good, together with its
// soft-deleted transactions. Purge is strictly account-scoped: only rows
// referencing this account are touched, and only soft-deleted ones, so an
// active transaction observed mid-race blocks nothing and is left alone.
func (r *PostgresRepository) PurgeAccount(ctx context.Context, userID, accountID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM transactions
		WHERE user_id = $1 AND deleted_at IS NOT NULL
		  AND (account_id = $2 OR from_account_id = $2 OR to_account_id = $2)
	`, userID, accountID)
	if err != nil {
		return 0, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	res, err = tx.ExecContext(ctx, `
		DELETE FROM accounts
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NOT NULL
	`, accountID, userID)
	if err != nil {
		return 0, err
	}

	accounts, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if accounts == 0 {
		// Already purged by an earlier run; nothing to report.
		err = ErrNotFound
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return affected, nil
}
