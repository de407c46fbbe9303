package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkaragoz/finbook/internal/models"
	"github.com/dkaragoz/finbook/internal/repository"
)

// Account operations
func (s *DefaultService) CreateAccount(ctx context.Context, userID string, req models.CreateAccountRequest) (*models.Account, error) {
	if !models.ValidAccountType(models.AccountType(req.Type)) {
		return nil, invalidInput("INVALID_ACCOUNT_TYPE", "unknown account type")
	}

	// The partial unique index is the authority; this pre-check just gives
	// the common case a clean error without an aborted insert.
	if _, err := s.repo.GetActiveAccountByName(ctx, userID, req.Name); err == nil {
		return nil, conflict("an active account with this name already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("error checking account name: %w", err)
	}

	account := &models.Account{
		UserID:   userID,
		Name:     req.Name,
		Type:     models.AccountType(req.Type),
		Currency: req.Currency,
		Color:    req.Color,
	}

	if err := s.repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, conflict("an active account with this name already exists")
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	return account, nil
}

func (s *DefaultService) GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	account, err := s.repo.GetAccount(ctx, userID, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("account not found")
		}
		return nil, fmt.Errorf("error getting account: %w", err)
	}
	if !account.Active() {
		// Soft-deleted accounts are invisible outside the deleted listing.
		return nil, notFound("account not found")
	}
	return account, nil
}

func (s *DefaultService) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	accounts, err := s.repo.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}
	return accounts, nil
}

func (s *DefaultService) ListDeletedAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	accounts, err := s.repo.ListDeletedAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing deleted accounts: %w", err)
	}
	return accounts, nil
}

func (s *DefaultService) UpdateAccount(ctx context.Context, userID, accountID string, req models.UpdateAccountRequest) (*models.Account, error) {
	account, err := s.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != account.Name {
		if other, err := s.repo.GetActiveAccountByName(ctx, userID, *req.Name); err == nil && other.ID != accountID {
			return nil, conflict("an active account with this name already exists")
		} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("error checking account name: %w", err)
		}
		account.Name = *req.Name
	}
	if req.Type != nil {
		if !models.ValidAccountType(models.AccountType(*req.Type)) {
			return nil, invalidInput("INVALID_ACCOUNT_TYPE", "unknown account type")
		}
		account.Type = models.AccountType(*req.Type)
	}
	if req.Color != nil {
		account.Color = *req.Color
	}

	if err := s.repo.UpdateAccount(ctx, account); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, conflict("an active account with this name already exists")
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound("account not found")
		}
		return nil, fmt.Errorf("error updating account: %w", err)
	}

	return account, nil
}

// DeleteAccount soft-deletes the account together with every active
// transaction referencing it, as one indivisible unit. The result reports how
// many transactions the cascade hid.
func (s *DefaultService) DeleteAccount(ctx context.Context, userID, accountID string) (*models.CascadeResult, error) {
	account, err := s.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	at := s.now()
	affected, err := s.repo.SoftDeleteAccount(ctx, userID, accountID, at)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("account not found")
		}
		return nil, fmt.Errorf("error deleting account: %w", err)
	}

	account.DeletedAt = &at
	return &models.CascadeResult{Account: *account, Transactions: affected}, nil
}

// RestoreAccount brings a soft-deleted account back, together with the
// transactions hidden by the same delete. Restoring into a name now taken by
// another active account is rejected rather than violating the active-name
// uniqueness invariant.
func (s *DefaultService) RestoreAccount(ctx context.Context, userID, accountID string) (*models.CascadeResult, error) {
	account, affected, err := s.repo.RestoreAccount(ctx, userID, accountID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound("account not found")
		case errors.Is(err, repository.ErrNotDeleted):
			return nil, invalidInput("ACCOUNT_NOT_DELETED", "account is not deleted")
		case errors.Is(err, repository.ErrConflict):
			return nil, conflict("an active account with this name already exists")
		}
		return nil, fmt.Errorf("error restoring account: %w", err)
	}

	return &models.CascadeResult{Account: *account, Transactions: affected}, nil
}

// HardDeleteAccount permanently removes the account and all its transactions.
func (s *DefaultService) HardDeleteAccount(ctx context.Context, userID, accountID string) (*models.CascadeResult, error) {
	account, err := s.repo.GetAccount(ctx, userID, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("account not found")
		}
		return nil, fmt.Errorf("error getting account: %w", err)
	}

	affected, err := s.repo.HardDeleteAccount(ctx, userID, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("account not found")
		}
		return nil, fmt.Errorf("error deleting account: %w", err)
	}

	return &models.CascadeResult{Account: *account, Transactions: affected}, nil
}
