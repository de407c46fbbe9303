package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkaragoz/finbook/internal/models"
	"github.com/dkaragoz/finbook/internal/repository"
	"github.com/dkaragoz/finbook/internal/service"
)

type testEnv struct {
	repo      *repository.MemoryRepository
	svc       service.Service
	userID    string
	salaryCat string // system income category
	foodCat   string // system expense category
}

func newTestEnv(t *testing.T) *testEnv {
	repo := repository.NewMemoryRepository()
	svc := service.NewDefaultService(repo, "test-secret-key")

	user := &models.User{Email: "owner@example.com", Name: "Owner", Password: "irrelevant"}
	require.NoError(t, repo.CreateUser(context.Background(), user))

	salary := repo.SeedSystemCategory("Salary", models.KindIncome, 1)
	food := repo.SeedSystemCategory("Food", models.KindExpense, 1)

	return &testEnv{
		repo:      repo,
		svc:       svc,
		userID:    user.ID,
		salaryCat: salary.ID,
		foodCat:   food.ID,
	}
}

func (e *testEnv) createAccount(t *testing.T, name string) *models.Account {
	account, err := e.svc.CreateAccount(context.Background(), e.userID, models.CreateAccountRequest{
		Name:     name,
		Type:     "bank",
		Currency: "TRY",
	})
	require.NoError(t, err)
	return account
}

func (e *testEnv) createIncome(t *testing.T, accountID, amount string) *models.Transaction {
	tx, err := e.svc.CreateTransaction(context.Background(), e.userID, models.CreateTransactionRequest{
		Type:       "income",
		Title:      "income",
		Amount:     mustDec(amount),
		Currency:   "TRY",
		AccountID:  accountID,
		CategoryID: e.salaryCat,
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return tx
}

func (e *testEnv) createExpense(t *testing.T, accountID, amount string) *models.Transaction {
	tx, err := e.svc.CreateTransaction(context.Background(), e.userID, models.CreateTransactionRequest{
		Type:       "expense",
		Title:      "expense",
		Amount:     mustDec(amount),
		Currency:   "TRY",
		AccountID:  accountID,
		CategoryID: e.foodCat,
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return tx
}

func (e *testEnv) createTransfer(t *testing.T, fromID, toID, amount string) *models.Transaction {
	tx, err := e.svc.CreateTransaction(context.Background(), e.userID, models.CreateTransactionRequest{
		Type:          "transfer",
		Title:         "transfer",
		Amount:        mustDec(amount),
		Currency:      "TRY",
		FromAccountID: fromID,
		ToAccountID:   toID,
		OccurredAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	return tx
}

func mustDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSignRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "Main")

	incomeTx := env.createIncome(t, account.ID, "5000.00")
	assert.True(t, incomeTx.Amount.Equal(mustDec("5000.00")), "income stored positive")

	expenseTx := env.createExpense(t, account.ID, "120.50")
	assert.True(t, expenseTx.Amount.Equal(mustDec("-120.50")), "expense stored negative")

	other := env.createAccount(t, "Savings")
	transferTx := env.createTransfer(t, account.ID, other.ID, "1000.00")
	assert.True(t, transferTx.Amount.Equal(mustDec("1000.00")), "transfer stores positive magnitude")

	a, err := env.svc.AccountBalance(context.Background(), env.userID, account.ID)
	require.NoError(t, err)
	assert.True(t, a.Balance.Equal(mustDec("3879.50")))

	b, err := env.svc.AccountBalance(context.Background(), env.userID, other.ID)
	require.NoError(t, err)
	assert.True(t, b.Balance.Equal(mustDec("1000.00")))
}

func TestAmountValidation(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "Main")

	for _, amount := range []string{"0", "-5.00", "1.999"} {
		_, err := env.svc.CreateTransaction(context.Background(), env.userID, models.CreateTransactionRequest{
			Type:       "income",
			Title:      "bad",
			Amount:     mustDec(amount),
			Currency:   "TRY",
			AccountID:  account.ID,
			CategoryID: env.salaryCat,
			OccurredAt: time.Now().UTC(),
		})
		require.Error(t, err, "amount %s must be rejected", amount)
		assert.Equal(t, service.KindInvalidInput, service.KindOf(err))
	}
}

func TestTransferValidation(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "Main")

	// Same source and destination
	_, err := env.svc.CreateTransaction(context.Background(), env.userID, models.CreateTransactionRequest{
		Type:          "transfer",
		Title:         "loop",
		Amount:        mustDec("10.00"),
		Currency:      "TRY",
		FromAccountID: account.ID,
		ToAccountID:   account.ID,
		OccurredAt:    time.Now().UTC(),
	})
	assert.Equal(t, service.KindInvalidInput, service.KindOf(err))

	// Missing destination
	_, err = env.svc.CreateTransaction(context.Background(), env.userID, models.CreateTransactionRequest{
		Type:          "transfer",
		Title:         "half",
		Amount:        mustDec("10.00"),
		Currency:      "TRY",
		FromAccountID: account.ID,
		OccurredAt:    time.Now().UTC(),
	})
	assert.Equal(t, service.KindInvalidInput, service.KindOf(err))
}

func TestCategoryKindGuard(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "Main")

	// Expense category on an income transaction.
	_, err := env.svc.CreateTransaction(context.Background(), env.userID, models.CreateTransactionRequest{
		Type:       "income",
		Title:      "mismatch",
		Amount:     mustDec("10.00"),
		Currency:   "TRY",
		AccountID:  account.ID,
		CategoryID: env.foodCat,
		OccurredAt: time.Now().UTC(),
	})
	require.Error(t, err)
	assert.Equal(t, service.KindInvalidInput, service.KindOf(err))
	assert.Equal(t, "CATEGORY_KIND_MISMATCH", service.AsError(err).Code)

	// Unknown category.
	_, err = env.svc.CreateTransaction(context.Background(), env.userID, models.CreateTransactionRequest{
		Type:       "income",
		Title:      "ghost",
		Amount:     mustDec("10.00"),
		Currency:   "TRY",
		AccountID:  account.ID,
		CategoryID: "no-such-category",
		OccurredAt: time.Now().UTC(),
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_CATEGORY", service.AsError(err).Code)
}

func TestCategoryGuardOnTypeFlip(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "Main")
	tx := env.createIncome(t, account.ID, "100.00")

	// Flipping the type without changing the category must re-validate
	// against the existing (now mismatched) category.
	newType := "expense"
	_, err := env.svc.UpdateTransaction(context.Background(), env.userID, tx.ID, models.UpdateTransactionRequest{
		Type: &newType,
	})
	require.Error(t, err)
	assert.Equal(t, "CATEGORY_KIND_MISMATCH", service.AsError(err).Code)

	// With a matching category the flip succeeds and the amount re-signs.
	updated, err := env.svc.UpdateTransaction(context.Background(), env.userID, tx.ID, models.UpdateTransactionRequest{
		Type:       &newType,
		CategoryID: &env.foodCat,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TypeExpense, updated.Type)
	assert.True(t, updated.Amount.Equal(mustDec("-100.00")), "amount re-signed on type flip, got %s", updated.Amount)
}

func TestUpdateRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)
	account := env.createAccount(t, "Main")
	tx := env.createIncome(t, account.ID, "100.00")

	// Only income<->expense flips are allowed; a transfer (or garbage) type
	// would leave the row with a direct account but no transfer endpoints.
	for _, bad := range []string{"transfer", "refund"} {
		_, err := env.svc.UpdateTransaction(context.Background(), env.userID, tx.ID, models.UpdateTransactionRequest{
			Type: &bad,
		})
		require.Error(t, err, "type %q", bad)
		assert.Equal(t, "INVALID_TYPE", service.AsError(err).Code)
	}

	// The row is untouched and still counts toward the balance.
	got, err := env.svc.GetTransaction(context.Background(), env.userID, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TypeIncome, got.Type)
	balance, err := env.svc.AccountBalance(context.Background(), env.userID, account.ID)
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(mustDec("100.00")), "balance %s", balance.Balance)
}

func TestAccountNameUniqueness(t *testing.T) {
	env := newTestEnv(t)
	env.createAccount(t, "Main")

	// Duplicate active name fails.
	_, err := env.svc.CreateAccount(context.Background(), env.userID, models.CreateAccountRequest{
		Name: "Main", Type: "cash", Currency: "TRY",
	})
	require.Error(t, err)
	assert.Equal(t, service.KindConflict, service.KindOf(err))
}

func TestCascadeSoftDelete(t *testing.T) {
	env := newTestEnv(t)
	a := env.createAccount(t, "A")
	b := env.createAccount(t, "B")

	env.createIncome(t, a.ID, "5000.00")
	env.createExpense(t, a.ID, "120.50")
	env.createTransfer(t, a.ID, b.ID, "1000.00")
	untouched := env.createIncome(t, b.ID, "7.00")

	result, err := env.svc.DeleteAccount(context.Background(), env.userID, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, result.Transactions, "all three roles cascade")
	require.NotNil(t, result.Account.DeletedAt)

	// Default listings hide the account and its transactions.
	accounts, err := env.svc.ListAccounts(context.Background(), env.userID)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, b.ID, accounts[0].ID)

	txs, err := env.svc.ListTransactions(context.Background(), env.userID, models.ListTransactionsQuery{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, untouched.ID, txs[0].ID)

	// Balance queries on the deleted account report not-found.
	_, err = env.svc.AccountBalance(context.Background(), env.userID, a.ID)
	assert.Equal(t, service.KindNotFound, service.KindOf(err))

	// The deleted listing shows it.
	deleted, err := env.svc.ListDeletedAccounts(context.Background(), env.userID)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, a.ID, deleted[0].ID)
}

// failingRepo injects a cascade failure to check that no partial state is
// observable afterwards.
type failingRepo struct {
	repository.Repository
}

func (f *failingRepo) SoftDeleteAccount(ctx context.Context, userID, accountID string, at time.Time) (int64, error) {
	return 0, errors.New("storage exploded")
}

func TestCascadeAtomicityOnFailure(t *testing.T) {
	env := newTestEnv(t)
	a := env.createAccount(t, "A")
	env.createIncome(t, a.ID, "100.00")

	failing := service.NewDefaultService(&failingRepo{Repository: env.repo}, "test-secret-key")

	_, err := failing.DeleteAccount(context.Background(), env.userID, a.ID)
	require.Error(t, err)

	// Nothing changed: account active, transaction still listed.
	account, err := env.svc.GetAccount(context.Background(), env.userID, a.ID)
	require.NoError(t, err)
	assert.Nil(t, account.DeletedAt)

	txs, err := env.svc.ListTransactions(context.Background(), env.userID, models.ListTransactionsQuery{})
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestRestoreSymmetry(t *testing.T) {
	env := newTestEnv(t)
	a := env.createAccount(t, "A")
	b := env.createAccount(t, "B")

	env.createIncome(t, a.ID, "5000.00")
	env.createExpense(t, a.ID, "120.50")
	env.createTransfer(t, a.ID, b.ID, "1000.00")

	// Individually deleted before the account delete; must stay deleted.
	individually := env.createExpense(t, a.ID, "9.99")
	require.NoError(t, env.svc.DeleteTransaction(context.Background(), env.userID, individually.ID))

	balanceBefore, err := env.svc.AccountBalance(context.Background(), env.userID, a.ID)
	require.NoError(t, err)

	deleted, err := env.svc.DeleteAccount(context.Background(), env.userID, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted.Transactions)

	restored, err := env.svc.RestoreAccount(context.Background(), env.userID, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, restored.Transactions, "exactly the cascade's rows come back")
	assert.Nil(t, restored.Account.DeletedAt)

	// Balances recompute identically; the individually deleted expense was
	// not resurrected.
	balanceAfter, err := env.svc.AccountBalance(context.Background(), env.userID, a.ID)
	require.NoError(t, err)
	assert.True(t, balanceAfter.Balance.Equal(balanceBefore.Balance))

	_, err = env.svc.GetTransaction(context.Background(), env.userID, individually.ID)
	assert.Equal(t, service.KindNotFound, service.KindOf(err))
}

func TestRestoreErrors(t *testing.T) {
	env := newTestEnv(t)
	a := env.createAccount(t, "A")

	// Restoring an active account.
	_, err := env.svc.RestoreAccount(context.Background(), env.userID, a.ID)
	assert.Equal(t, service.KindInvalidInput, service.KindOf(err))

	// Restoring a missing account.
	_, err = env.svc.RestoreAccount(context.Background(), env.userID, "no-such-account")
	assert.Equal(t, service.KindNotFound, service.KindOf(err))
}

func TestRestoreNameCollision(t *testing.T) {
	env := newTestEnv(t)
	a := env.createAccount(t, "Main")

	_, err := env.svc.DeleteAccount(context.Background(), env.userID, a.ID)
	require.NoError(t, err)

	// Re-using the name while the old account is soft-deleted is allowed.
	env.createAccount(t, "Main")

	// Restoring the old one into the taken name must be rejected.
	_, err = env.svc.RestoreAccount(context.Background(), env.userID, a.ID)
	require.Error(t, err)
	assert.Equal(t, service.KindConflict, service.KindOf(err))
}

func TestTenantIsolation(t *testing.T) {
	env := newTestEnv(t)
	a := env.createAccount(t, "Main")

	stranger := &models.User{Email: "other@example.com", Name: "Other", Password: "x"}
	require.NoError(t, env.repo.CreateUser(context.Background(), stranger))

	// Another owner's account is indistinguishable from a missing one.
	_, err := env.svc.GetAccount(context.Background(), stranger.ID, a.ID)
	assert.Equal(t, service.KindNotFound, service.KindOf(err))

	_, err = env.svc.DeleteAccount(context.Background(), stranger.ID, a.ID)
	assert.Equal(t, service.KindNotFound, service.KindOf(err))
}

func TestSystemCategoryOverrideOnEdit(t *testing.T) {
	env := newTestEnv(t)

	name := "My Food"
	edited, err := env.svc.UpdateCategory(context.Background(), env.userID, env.foodCat, models.UpdateCategoryRequest{
		Name: &name,
	})
	require.NoError(t, err)
	assert.NotEqual(t, env.foodCat, edited.ID, "edit lands on a private override row")
	assert.Equal(t, "My Food", edited.Name)
	assert.Equal(t, models.KindExpense, edited.Kind)

	// The shared row is untouched.
	system, err := env.svc.GetCategory(context.Background(), env.userID, env.foodCat)
	require.NoError(t, err)
	assert.Equal(t, "Food", system.Name)
	assert.True(t, system.IsSystem)

	// A second edit reuses the same override row.
	color := "#ff0000"
	again, err := env.svc.UpdateCategory(context.Background(), env.userID, env.foodCat, models.UpdateCategoryRequest{
		Color: &color,
	})
	require.NoError(t, err)
	assert.Equal(t, edited.ID, again.ID)
	assert.Equal(t, "My Food", again.Name)

	// The listing shows the override in place of the system row.
	cats, err := env.svc.ListCategories(context.Background(), env.userID)
	require.NoError(t, err)
	var names []string
	for _, c := range cats {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "My Food")
	assert.NotContains(t, names, "Food")
}

func TestCashflowAndMonthly(t *testing.T) {
	env := newTestEnv(t)
	a := env.createAccount(t, "Main")

	env.createIncome(t, a.ID, "5000.00")
	env.createExpense(t, a.ID, "120.50")

	flow, err := env.svc.Cashflow(context.Background(), env.userID, nil, nil)
	require.NoError(t, err)
	assert.True(t, flow.Income.Equal(mustDec("5000.00")))
	assert.True(t, flow.Expense.Equal(mustDec("120.50")))
	assert.True(t, flow.Net.Equal(mustDec("4879.50")))

	series, err := env.svc.MonthlySeries(context.Background(), env.userID, nil, nil)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.True(t, series[0].Net.Equal(mustDec("4879.50")))
}

func TestCategoryTotalsStable(t *testing.T) {
	env := newTestEnv(t)
	a := env.createAccount(t, "Main")
	env.createExpense(t, a.ID, "42.00")

	totals, err := env.svc.CategoryTotals(context.Background(), env.userID, models.KindExpense, nil, nil)
	require.NoError(t, err)
	require.Len(t, totals, 1, "the seeded system expense category")
	assert.Equal(t, env.foodCat, totals[0].Category.ID)
	assert.True(t, totals[0].Total.Equal(mustDec("-42.00")))
}

func TestEndToEndScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.createAccount(t, "Checking")
	env.createIncome(t, a.ID, "5000.00")

	bal, err := env.svc.AccountBalance(ctx, env.userID, a.ID)
	require.NoError(t, err)
	require.True(t, bal.Balance.Equal(mustDec("5000.00")))

	env.createExpense(t, a.ID, "120.50")
	bal, err = env.svc.AccountBalance(ctx, env.userID, a.ID)
	require.NoError(t, err)
	require.True(t, bal.Balance.Equal(mustDec("4879.50")))

	b := env.createAccount(t, "Savings")
	env.createTransfer(t, a.ID, b.ID, "1000.00")

	bal, err = env.svc.AccountBalance(ctx, env.userID, a.ID)
	require.NoError(t, err)
	require.True(t, bal.Balance.Equal(mustDec("3879.50")))

	balB, err := env.svc.AccountBalance(ctx, env.userID, b.ID)
	require.NoError(t, err)
	require.True(t, balB.Balance.Equal(mustDec("1000.00")))

	// Soft-delete A: all three transactions disappear from listings,
	// including the transfer B received.
	result, err := env.svc.DeleteAccount(ctx, env.userID, a.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, result.Transactions)

	txs, err := env.svc.ListTransactions(ctx, env.userID, models.ListTransactionsQuery{})
	require.NoError(t, err)
	assert.Empty(t, txs)

	balB, err = env.svc.AccountBalance(ctx, env.userID, b.ID)
	require.NoError(t, err)
	assert.True(t, balB.Balance.IsZero(), "transfer-in hidden by the counterpart cascade")

	// Restore A: everything is visible again and balances recompute
	// identically.
	restored, err := env.svc.RestoreAccount(ctx, env.userID, a.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, restored.Transactions)

	bal, err = env.svc.AccountBalance(ctx, env.userID, a.ID)
	require.NoError(t, err)
	assert.True(t, bal.Balance.Equal(mustDec("3879.50")))

	balB, err = env.svc.AccountBalance(ctx, env.userID, b.ID)
	require.NoError(t, err)
	assert.True(t, balB.Balance.Equal(mustDec("1000.00")))
}
