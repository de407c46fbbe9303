package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkaragoz/finbook/internal/models"
)

func ptr(s string) *string { return &s }

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func income(account, amount string, at time.Time) models.Transaction {
	return models.Transaction{
		Type:       models.TypeIncome,
		Amount:     dec(amount),
		AccountID:  ptr(account),
		OccurredAt: at,
	}
}

func expense(account, storedAmount string, at time.Time) models.Transaction {
	return models.Transaction{
		Type:       models.TypeExpense,
		Amount:     dec(storedAmount), // already negative, as stored
		AccountID:  ptr(account),
		OccurredAt: at,
	}
}

func transfer(from, to, amount string, at time.Time) models.Transaction {
	return models.Transaction{
		Type:          models.TypeTransfer,
		Amount:        dec(amount),
		FromAccountID: ptr(from),
		ToAccountID:   ptr(to),
		OccurredAt:    at,
	}
}

func TestBalanceZeroTransactions(t *testing.T) {
	assert.True(t, Balance("acc-1", nil).IsZero())
	assert.True(t, Balance("acc-1", []models.Transaction{}).IsZero())
}

func TestBalanceFold(t *testing.T) {
	now := time.Now()
	txs := []models.Transaction{
		income("a", "5000.00", now),
		expense("a", "-120.50", now),
		transfer("a", "b", "1000.00", now),
	}

	assert.True(t, Balance("a", txs).Equal(dec("3879.50")), "got %s", Balance("a", txs))
	assert.True(t, Balance("b", txs).Equal(dec("1000.00")))
	// Unrelated account is untouched by others' activity.
	assert.True(t, Balance("c", txs).IsZero())
}

func TestBalanceIndependentOfOrder(t *testing.T) {
	now := time.Now()
	txs := []models.Transaction{
		income("a", "10.01", now),
		income("a", "0.02", now),
		expense("a", "-3.33", now),
		transfer("a", "b", "2.22", now),
		transfer("b", "a", "1.11", now),
	}

	want := Balance("a", txs)
	for i := 0; i < 20; i++ {
		shuffled := make([]models.Transaction, len(txs))
		copy(shuffled, txs)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		assert.True(t, Balance("a", shuffled).Equal(want))
	}
}

func TestBalanceSkipsSoftDeleted(t *testing.T) {
	now := time.Now()
	deleted := income("a", "99.99", now)
	deleted.DeletedAt = &now

	txs := []models.Transaction{income("a", "1.00", now), deleted}
	assert.True(t, Balance("a", txs).Equal(dec("1.00")))
}

func TestBalanceNoCentDrift(t *testing.T) {
	// 0.1 + 0.2 style sums that go wrong in binary floating point.
	now := time.Now()
	txs := make([]models.Transaction, 0, 1000)
	for i := 0; i < 1000; i++ {
		txs = append(txs, income("a", "0.10", now))
	}
	assert.True(t, Balance("a", txs).Equal(dec("100.00")))
}

func TestCashflowIdentity(t *testing.T) {
	now := time.Now()
	txs := []models.Transaction{
		income("a", "5000.00", now),
		income("a", "250.75", now),
		expense("a", "-120.50", now),
		expense("a", "-999.99", now),
		transfer("a", "b", "1000.00", now), // excluded from cashflow
	}

	flow := Cashflow(txs)
	assert.True(t, flow.Income.Equal(dec("5250.75")))
	assert.True(t, flow.Expense.Equal(dec("1120.49")))
	require.True(t, flow.Expense.Sign() >= 0, "expense total must be a magnitude")
	assert.True(t, flow.Net.Equal(flow.Income.Sub(flow.Expense)), "net identity")
}

func TestCashflowEmpty(t *testing.T) {
	flow := Cashflow(nil)
	assert.True(t, flow.Income.IsZero())
	assert.True(t, flow.Expense.IsZero())
	assert.True(t, flow.Net.IsZero())
}

func TestCategoryTotalsIncludesInactive(t *testing.T) {
	now := time.Now()
	food := models.Category{ID: "cat-food", Name: "Food", Kind: models.KindExpense}
	rent := models.Category{ID: "cat-rent", Name: "Rent", Kind: models.KindExpense}
	salary := models.Category{ID: "cat-salary", Name: "Salary", Kind: models.KindIncome}

	tx := expense("a", "-42.00", now)
	tx.CategoryID = ptr("cat-food")

	totals := CategoryTotals(models.KindExpense, []models.Category{food, rent, salary}, []models.Transaction{tx})

	require.Len(t, totals, 2, "income category filtered out, inactive expense category kept")
	assert.Equal(t, "cat-food", totals[0].Category.ID)
	assert.True(t, totals[0].Total.Equal(dec("-42.00")))
	assert.Equal(t, "cat-rent", totals[1].Category.ID)
	assert.True(t, totals[1].Total.IsZero())
}

func TestMonthlySeries(t *testing.T) {
	jan := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)

	txs := []models.Transaction{
		income("a", "100.00", mar),
		income("a", "200.00", jan),
		expense("a", "-50.00", jan),
	}

	series := MonthlySeries(txs)
	require.Len(t, series, 2)
	assert.Equal(t, time.January, series[0].Month)
	assert.True(t, series[0].Income.Equal(dec("200.00")))
	assert.True(t, series[0].Expense.Equal(dec("50.00")))
	assert.True(t, series[0].Net.Equal(dec("150.00")))
	assert.Equal(t, time.March, series[1].Month)
}

func TestInPeriod(t *testing.T) {
	jan := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	dec31 := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)

	txs := []models.Transaction{
		income("a", "1.00", jan),
		income("a", "2.00", jun),
		income("a", "3.00", dec31),
	}

	from := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)

	got := InPeriod(txs, &from, &to)
	require.Len(t, got, 1)
	assert.True(t, got[0].Amount.Equal(dec("2.00")))

	assert.Len(t, InPeriod(txs, nil, nil), 3)
}
