package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the closed set of account kinds.
type AccountType string

const (
	AccountCash   AccountType = "cash"
	AccountBank   AccountType = "bank"
	AccountCard   AccountType = "card"
	AccountWallet AccountType = "wallet"
)

// ValidAccountType reports whether t is one of the known account kinds.
func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountCash, AccountBank, AccountCard, AccountWallet:
		return true
	}
	return false
}

// CategoryKind is the closed set of category kinds.
type CategoryKind string

const (
	KindIncome  CategoryKind = "income"
	KindExpense CategoryKind = "expense"
)

// TransactionType is the closed set of transaction directions.
type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
)

// User represents a user in the system
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Password  string    `db:"password" json:"-"` // Password hash, not returned in JSON
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Account represents a money account owned by a user. DeletedAt is null while
// the account is active; a set timestamp means the account is soft-deleted and
// hidden from default listings until restored or permanently purged.
type Account struct {
	ID        string      `db:"id" json:"id"`
	UserID    string      `db:"user_id" json:"-"`
	Name      string      `db:"name" json:"name"`
	Type      AccountType `db:"type" json:"type"`
	Currency  string      `db:"currency" json:"currency"`
	Color     string      `db:"color" json:"color,omitempty"`
	DeletedAt *time.Time  `db:"deleted_at" json:"deletedAt,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time   `db:"updated_at" json:"updatedAt"`
}

// Active reports whether the account is not soft-deleted.
func (a *Account) Active() bool { return a.DeletedAt == nil }

// Category represents an income or expense category. System categories have a
// null UserID and are visible to everyone. A user "editing" a system category
// creates an override row: IsOverride is true and SourceCategoryID points at
// the system category it shadows.
type Category struct {
	ID               string       `db:"id" json:"id"`
	UserID           *string      `db:"user_id" json:"-"`
	Name             string       `db:"name" json:"name"`
	Kind             CategoryKind `db:"kind" json:"kind"`
	Color            string       `db:"color" json:"color,omitempty"`
	Priority         int          `db:"priority" json:"priority"`
	IsSystem         bool         `db:"is_system" json:"isSystem"`
	IsOverride       bool         `db:"is_override" json:"-"`
	SourceCategoryID *string      `db:"source_category_id" json:"-"`
	CreatedAt        time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updatedAt"`
}

// Transaction represents one ledger entry. The amount carries the direction:
// income is stored positive, expense negative, and a transfer holds a positive
// magnitude interpreted against FromAccountID (debit) and ToAccountID (credit).
// Income and expense rows reference AccountID and CategoryID; transfers
// reference FromAccountID and ToAccountID and carry no category.
type Transaction struct {
	ID            string          `db:"id" json:"id"`
	UserID        string          `db:"user_id" json:"-"`
	Type          TransactionType `db:"type" json:"type"`
	Title         string          `db:"title" json:"title"`
	Description   string          `db:"description" json:"description,omitempty"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Currency      string          `db:"currency" json:"currency"`
	AccountID     *string         `db:"account_id" json:"accountId,omitempty"`
	CategoryID    *string         `db:"category_id" json:"categoryId,omitempty"`
	FromAccountID *string         `db:"from_account_id" json:"fromAccountId,omitempty"`
	ToAccountID   *string         `db:"to_account_id" json:"toAccountId,omitempty"`
	OccurredAt    time.Time       `db:"occurred_at" json:"occurredAt"`
	DeletedAt     *time.Time      `db:"deleted_at" json:"deletedAt,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

// References reports whether the transaction touches the given account in any
// of its three roles.
func (t *Transaction) References(accountID string) bool {
	if t.AccountID != nil && *t.AccountID == accountID {
		return true
	}
	if t.FromAccountID != nil && *t.FromAccountID == accountID {
		return true
	}
	if t.ToAccountID != nil && *t.ToAccountID == accountID {
		return true
	}
	return false
}
