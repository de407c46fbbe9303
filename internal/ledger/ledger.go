// Package ledger holds the pure derivation functions of the signed-amount
// ledger: account balances, cashflow totals, category totals and the monthly
// series. Every function takes transaction rows in and values out, so the
// arithmetic is testable without a database. All sums run on decimal.Decimal;
// rounding happens at presentation time, never mid-sum.
package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dkaragoz/finbook/internal/models"
)

// Contribution returns the signed amount a single transaction adds to the
// given account's balance: the stored amount for income/expense rows on that
// account, minus the magnitude when the account is the transfer source, plus
// the magnitude when it is the destination, zero otherwise. Soft-deleted rows
// contribute nothing.
func Contribution(accountID string, tx *models.Transaction) decimal.Decimal {
	if tx.DeletedAt != nil {
		return decimal.Zero
	}
	switch tx.Type {
	case models.TypeIncome, models.TypeExpense:
		if tx.AccountID != nil && *tx.AccountID == accountID {
			return tx.Amount
		}
	case models.TypeTransfer:
		if tx.FromAccountID != nil && *tx.FromAccountID == accountID {
			return tx.Amount.Neg()
		}
		if tx.ToAccountID != nil && *tx.ToAccountID == accountID {
			return tx.Amount
		}
	}
	return decimal.Zero
}

// Balance folds the transactions into the account's balance. An account with
// no transactions yields exactly zero.
func Balance(accountID string, txs []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for i := range txs {
		total = total.Add(Contribution(accountID, &txs[i]))
	}
	return total
}

// Cashflow sums the income and expense rows of a period. Income and Expense
// come back as non-negative magnitudes; Net is the plain signed sum, so the
// identity Net == Income - Expense holds by construction. Transfers move money
// between the owner's accounts and are excluded.
func Cashflow(txs []models.Transaction) models.Cashflow {
	income := decimal.Zero
	signedExpense := decimal.Zero
	for i := range txs {
		tx := &txs[i]
		if tx.DeletedAt != nil {
			continue
		}
		switch tx.Type {
		case models.TypeIncome:
			income = income.Add(tx.Amount)
		case models.TypeExpense:
			signedExpense = signedExpense.Add(tx.Amount)
		}
	}
	return models.Cashflow{
		Income:  income,
		Expense: signedExpense.Abs(),
		Net:     income.Add(signedExpense),
	}
}

// CategoryTotals groups the signed sums of the given kind's transactions by
// category. Every category in cats appears in the result, with total zero when
// it saw no activity, so category listings stay stable. The result preserves
// the order of cats; transactions referencing a category not in cats are
// ignored.
func CategoryTotals(kind models.CategoryKind, cats []models.Category, txs []models.Transaction) []models.CategoryTotal {
	byID := make(map[string]int, len(cats))
	totals := make([]models.CategoryTotal, 0, len(cats))
	for _, c := range cats {
		if c.Kind != kind {
			continue
		}
		byID[c.ID] = len(totals)
		totals = append(totals, models.CategoryTotal{Category: c, Total: decimal.Zero})
	}
	for i := range txs {
		tx := &txs[i]
		if tx.DeletedAt != nil || tx.CategoryID == nil {
			continue
		}
		if models.TransactionType(kind) != tx.Type {
			continue
		}
		if idx, ok := byID[*tx.CategoryID]; ok {
			totals[idx].Total = totals[idx].Total.Add(tx.Amount)
		}
	}
	return totals
}

// MonthlySeries buckets cashflow by calendar month of the economic event date,
// in UTC, sorted ascending. Months without activity are omitted.
func MonthlySeries(txs []models.Transaction) []models.MonthlyPoint {
	type key struct {
		year  int
		month time.Month
	}
	buckets := make(map[key][]models.Transaction)
	for i := range txs {
		tx := txs[i]
		if tx.DeletedAt != nil {
			continue
		}
		at := tx.OccurredAt.UTC()
		k := key{at.Year(), at.Month()}
		buckets[k] = append(buckets[k], tx)
	}
	points := make([]models.MonthlyPoint, 0, len(buckets))
	for k, monthTxs := range buckets {
		flow := Cashflow(monthTxs)
		points = append(points, models.MonthlyPoint{
			Year:    k.year,
			Month:   k.month,
			Income:  flow.Income,
			Expense: flow.Expense,
			Net:     flow.Net,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Year != points[j].Year {
			return points[i].Year < points[j].Year
		}
		return points[i].Month < points[j].Month
	})
	return points
}

// InPeriod filters to transactions whose economic date falls in [from, to].
// Nil bounds are open.
func InPeriod(txs []models.Transaction, from, to *time.Time) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if from != nil && tx.OccurredAt.Before(*from) {
			continue
		}
		if to != nil && tx.OccurredAt.After(*to) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
