package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request models
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type CreateAccountRequest struct {
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type" binding:"required,oneof=cash bank card wallet"`
	Currency string `json:"currency" binding:"required,len=3"`
	Color    string `json:"color"`
}

type UpdateAccountRequest struct {
	Name  *string `json:"name"`
	Type  *string `json:"type" binding:"omitempty,oneof=cash bank card wallet"`
	Color *string `json:"color"`
}

type CreateCategoryRequest struct {
	Name     string `json:"name" binding:"required"`
	Kind     string `json:"kind" binding:"required,oneof=income expense"`
	Color    string `json:"color"`
	Priority int    `json:"priority"`
}

type UpdateCategoryRequest struct {
	Name     *string `json:"name"`
	Color    *string `json:"color"`
	Priority *int    `json:"priority"`
}

// CreateTransactionRequest carries the user-entered magnitude, always
// positive; the service applies the sign convention before storage.
type CreateTransactionRequest struct {
	Type          string          `json:"type" binding:"required,oneof=income expense transfer"`
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Currency      string          `json:"currency" binding:"required,len=3"`
	AccountID     string          `json:"accountId"`
	CategoryID    string          `json:"categoryId"`
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	OccurredAt    time.Time       `json:"occurredAt" binding:"required"`
}

type UpdateTransactionRequest struct {
	Type        *string          `json:"type" binding:"omitempty,oneof=income expense"`
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
	AccountID   *string          `json:"accountId"`
	CategoryID  *string          `json:"categoryId"`
	OccurredAt  *time.Time       `json:"occurredAt"`
}

// ListTransactionsQuery is the filter set for transaction listings.
type ListTransactionsQuery struct {
	From       *time.Time
	To         *time.Time
	AccountID  string
	CategoryID string
	Type       string
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

// AccountBalance pairs an account with its derived balance.
type AccountBalance struct {
	Account Account         `json:"account"`
	Balance decimal.Decimal `json:"balance"`
}

// Cashflow reports period totals. Income and Expense are non-negative
// magnitudes; Net is Income minus Expense.
type Cashflow struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// CategoryTotal is the signed sum of one category's transactions in a period.
type CategoryTotal struct {
	Category Category        `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// MonthlyPoint is one month of the cashflow series.
type MonthlyPoint struct {
	Year    int             `json:"year"`
	Month   time.Month      `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// CascadeResult reports what an account soft-delete or restore touched.
type CascadeResult struct {
	Account      Account `json:"account"`
	Transactions int64   `json:"transactions"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
