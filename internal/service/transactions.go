package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/dkaragoz/finbook/internal/models"
	"github.com/dkaragoz/finbook/internal/repository"
)

// validateMagnitude checks the user-entered amount: strictly positive, at
// most two decimal places. The sign convention is applied afterwards; users
// never enter signed amounts.
func validateMagnitude(m decimal.Decimal) error {
	if !m.IsPositive() {
		return invalidInput("INVALID_AMOUNT", "amount must be positive")
	}
	if !m.Equal(m.Round(2)) {
		return invalidInput("INVALID_AMOUNT", "amount must have at most two decimal places")
	}
	return nil
}

// signedAmount encodes the direction into the stored amount: expense rows are
// stored negative, income and transfer rows positive.
func signedAmount(t models.TransactionType, magnitude decimal.Decimal) decimal.Decimal {
	if t == models.TypeExpense {
		return magnitude.Neg()
	}
	return magnitude
}

// Transaction operations
func (s *DefaultService) CreateTransaction(ctx context.Context, userID string, req models.CreateTransactionRequest) (*models.Transaction, error) {
	txType := models.TransactionType(req.Type)

	if err := validateMagnitude(req.Amount); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		UserID:      userID,
		Type:        txType,
		Title:       req.Title,
		Description: req.Description,
		Amount:      signedAmount(txType, req.Amount),
		Currency:    req.Currency,
		OccurredAt:  req.OccurredAt.UTC(),
	}

	switch txType {
	case models.TypeIncome, models.TypeExpense:
		if req.AccountID == "" {
			return nil, invalidInput("MISSING_ACCOUNT", "accountId is required for income and expense")
		}
		if req.CategoryID == "" {
			return nil, invalidInput("MISSING_CATEGORY", "categoryId is required for income and expense")
		}
		if req.FromAccountID != "" || req.ToAccountID != "" {
			return nil, invalidInput("INVALID_ACCOUNTS", "transfer accounts are only valid on transfers")
		}
		if _, err := s.GetAccount(ctx, userID, req.AccountID); err != nil {
			return nil, err
		}
		if _, err := s.validateCategoryKind(ctx, userID, req.CategoryID, txType); err != nil {
			return nil, err
		}
		tx.AccountID = &req.AccountID
		tx.CategoryID = &req.CategoryID

	case models.TypeTransfer:
		if req.FromAccountID == "" || req.ToAccountID == "" {
			return nil, invalidInput("MISSING_ACCOUNT", "transfers need both a source and a destination account")
		}
		if req.FromAccountID == req.ToAccountID {
			return nil, invalidInput("INVALID_ACCOUNTS", "transfer source and destination must differ")
		}
		if req.AccountID != "" || req.CategoryID != "" {
			return nil, invalidInput("INVALID_CATEGORY", "transfers carry no category or direct account")
		}
		if _, err := s.GetAccount(ctx, userID, req.FromAccountID); err != nil {
			return nil, err
		}
		if _, err := s.GetAccount(ctx, userID, req.ToAccountID); err != nil {
			return nil, err
		}
		tx.FromAccountID = &req.FromAccountID
		tx.ToAccountID = &req.ToAccountID

	default:
		return nil, invalidInput("INVALID_TYPE", "unknown transaction type")
	}

	if err := s.repo.CreateTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("error creating transaction: %w", err)
	}

	return tx, nil
}

func (s *DefaultService) GetTransaction(ctx context.Context, userID, txID string) (*models.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, userID, txID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("transaction not found")
		}
		return nil, fmt.Errorf("error getting transaction: %w", err)
	}
	if tx.DeletedAt != nil {
		return nil, notFound("transaction not found")
	}
	return tx, nil
}

func (s *DefaultService) ListTransactions(ctx context.Context, userID string, q models.ListTransactionsQuery) ([]models.Transaction, error) {
	txs, err := s.repo.ListTransactions(ctx, userID, q)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}
	return txs, nil
}

// UpdateTransaction edits an income or expense row; for transfers only title,
// description, amount and date may change. A type or category change runs the
// category-kind guard against the effective pair, so flipping the type while
// keeping a now-mismatched category is rejected.
func (s *DefaultService) UpdateTransaction(ctx context.Context, userID, txID string, req models.UpdateTransactionRequest) (*models.Transaction, error) {
	tx, err := s.GetTransaction(ctx, userID, txID)
	if err != nil {
		return nil, err
	}

	if tx.Type == models.TypeTransfer {
		if req.Type != nil || req.CategoryID != nil || req.AccountID != nil {
			return nil, invalidInput("INVALID_UPDATE", "transfer type, category and accounts cannot be changed")
		}
	} else if req.Type != nil {
		next := models.TransactionType(*req.Type)
		if next != models.TypeIncome && next != models.TypeExpense {
			return nil, invalidInput("INVALID_TYPE", "type can only change between income and expense")
		}
		tx.Type = next
	}

	magnitude := tx.Amount.Abs()
	if req.Amount != nil {
		if err := validateMagnitude(*req.Amount); err != nil {
			return nil, err
		}
		magnitude = *req.Amount
	}
	tx.Amount = signedAmount(tx.Type, magnitude)

	if req.Title != nil {
		tx.Title = *req.Title
	}
	if req.Description != nil {
		tx.Description = *req.Description
	}
	if req.OccurredAt != nil {
		tx.OccurredAt = req.OccurredAt.UTC()
	}
	if req.AccountID != nil {
		if _, err := s.GetAccount(ctx, userID, *req.AccountID); err != nil {
			return nil, err
		}
		tx.AccountID = req.AccountID
	}
	if req.CategoryID != nil {
		tx.CategoryID = req.CategoryID
	}

	// Re-validate whenever the effective category/type pair could have
	// changed, including a type flip against the pre-existing category.
	if tx.Type != models.TypeTransfer && (req.Type != nil || req.CategoryID != nil) {
		if tx.CategoryID == nil {
			return nil, invalidInput("MISSING_CATEGORY", "categoryId is required for income and expense")
		}
		if _, err := s.validateCategoryKind(ctx, userID, *tx.CategoryID, tx.Type); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateTransaction(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("transaction not found")
		}
		return nil, fmt.Errorf("error updating transaction: %w", err)
	}

	return tx, nil
}

func (s *DefaultService) DeleteTransaction(ctx context.Context, userID, txID string) error {
	if err := s.repo.SoftDeleteTransaction(ctx, userID, txID, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("transaction not found")
		}
		return fmt.Errorf("error deleting transaction: %w", err)
	}
	return nil
}
