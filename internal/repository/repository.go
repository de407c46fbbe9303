package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dkaragoz/finbook/internal/models"
)

// Sentinel errors returned by repository implementations. The service layer
// maps these onto its caller-facing error kinds.
var (
	// ErrNotFound means the row does not exist for that owner. A row owned
	// by someone else reports the same error so existence never leaks.
	ErrNotFound = errors.New("repository: not found")

	// ErrConflict means a uniqueness invariant would be violated.
	ErrConflict = errors.New("repository: conflict")

	// ErrNotDeleted means a restore was attempted on an active account.
	ErrNotDeleted = errors.New("repository: account not deleted")
)

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Account operations. Get returns the row whatever its soft-delete
	// state; List returns active rows only, ListDeleted the inverse.
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error)
	GetActiveAccountByName(ctx context.Context, userID, name string) (*models.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]models.Account, error)
	ListDeletedAccounts(ctx context.Context, userID string) ([]models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error

	// Soft-delete cascade. SoftDeleteAccount stamps the account and every
	// active transaction referencing it (direct, source or destination
	// role) with the same timestamp, atomically. RestoreAccount clears the
	// account stamp and the matching transaction stamps, atomically, after
	// re-checking the active-name uniqueness invariant; it fails with
	// ErrNotDeleted when the account is active and ErrConflict when the
	// restored name would collide. Both return the number of transaction
	// rows affected.
	SoftDeleteAccount(ctx context.Context, userID, accountID string, at time.Time) (int64, error)
	RestoreAccount(ctx context.Context, userID, accountID string) (*models.Account, int64, error)
	HardDeleteAccount(ctx context.Context, userID, accountID string) (int64, error)

	// Category operations. Get resolves ids visible to the user: their own
	// rows or system rows.
	CreateCategory(ctx context.Context, category *models.Category) error
	GetCategory(ctx context.Context, userID, categoryID string) (*models.Category, error)
	GetOverrideForSource(ctx context.Context, userID, sourceCategoryID string) (*models.Category, error)
	ListCategories(ctx context.Context, userID string) ([]models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error

	// Transaction operations. List applies the query filters over active
	// rows; ListForAccount returns the active rows referencing the account
	// in any of its three roles.
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, userID, txID string) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID string, q models.ListTransactionsQuery) ([]models.Transaction, error)
	ListForAccount(ctx context.Context, userID, accountID string) ([]models.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error
	SoftDeleteTransaction(ctx context.Context, userID, txID string, at time.Time) error

	// Retention sweep operations. ListExpiredAccounts spans all owners;
	// PurgeAccount permanently removes one soft-deleted account and its
	// soft-deleted transactions in a single database transaction and
	// returns the number of transaction rows removed.
	ListExpiredAccounts(ctx context.Context, cutoff time.Time) ([]models.Account, error)
	PurgeAccount(ctx context.Context, userID, accountID string) (int64, error)
}
