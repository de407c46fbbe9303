package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dkaragoz/finbook/internal/ledger"
	"github.com/dkaragoz/finbook/internal/models"
)

// Read-only aggregates. All of them fetch owner-scoped rows and hand the
// arithmetic to the pure functions in internal/ledger.

// Balances derives the balance of every active account. Accounts with no
// activity are listed with balance zero.
func (s *DefaultService) Balances(ctx context.Context, userID string) ([]models.AccountBalance, error) {
	accounts, err := s.repo.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}

	balances := make([]models.AccountBalance, 0, len(accounts))
	for _, account := range accounts {
		txs, err := s.repo.ListForAccount(ctx, userID, account.ID)
		if err != nil {
			return nil, fmt.Errorf("error listing transactions for account %s: %w", account.ID, err)
		}
		balances = append(balances, models.AccountBalance{
			Account: account,
			Balance: ledger.Balance(account.ID, txs),
		})
	}
	return balances, nil
}

func (s *DefaultService) AccountBalance(ctx context.Context, userID, accountID string) (*models.AccountBalance, error) {
	account, err := s.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}

	txs, err := s.repo.ListForAccount(ctx, userID, accountID)
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}

	return &models.AccountBalance{
		Account: *account,
		Balance: ledger.Balance(accountID, txs),
	}, nil
}

func (s *DefaultService) Cashflow(ctx context.Context, userID string, from, to *time.Time) (*models.Cashflow, error) {
	txs, err := s.repo.ListTransactions(ctx, userID, models.ListTransactionsQuery{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}

	flow := ledger.Cashflow(txs)
	return &flow, nil
}

// CategoryTotals sums the period's signed amounts per category of the given
// kind. Categories without activity are reported with total zero so client
// category lists stay stable. Transactions referencing an overridden system
// category are credited to the override the user actually sees.
func (s *DefaultService) CategoryTotals(ctx context.Context, userID string, kind models.CategoryKind, from, to *time.Time) ([]models.CategoryTotal, error) {
	if kind != models.KindIncome && kind != models.KindExpense {
		return nil, invalidInput("INVALID_CATEGORY_KIND", "category kind must be income or expense")
	}

	cats, err := s.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	txs, err := s.repo.ListTransactions(ctx, userID, models.ListTransactionsQuery{
		From: from,
		To:   to,
		Type: string(kind),
	})
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}

	// Route system-category references onto their override rows.
	alias := make(map[string]string)
	for _, c := range cats {
		if c.IsOverride && c.SourceCategoryID != nil {
			alias[*c.SourceCategoryID] = c.ID
		}
	}
	for i := range txs {
		if txs[i].CategoryID == nil {
			continue
		}
		if target, ok := alias[*txs[i].CategoryID]; ok {
			txs[i].CategoryID = &target
		}
	}

	return ledger.CategoryTotals(kind, cats, txs), nil
}

func (s *DefaultService) MonthlySeries(ctx context.Context, userID string, from, to *time.Time) ([]models.MonthlyPoint, error) {
	txs, err := s.repo.ListTransactions(ctx, userID, models.ListTransactionsQuery{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("error listing transactions: %w", err)
	}
	return ledger.MonthlySeries(txs), nil
}
