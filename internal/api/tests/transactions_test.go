package api_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkaragoz/finbook/internal/api/testutils"
	"github.com/dkaragoz/finbook/internal/models"
)

func postTransaction(t *testing.T, testCtx *testutils.TestContext, req models.CreateTransactionRequest) (*models.Transaction, *int) {
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodPost,
		"/api/transactions",
		req,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	if w.Code != http.StatusCreated {
		code := w.Code
		return nil, &code
	}

	var tx models.Transaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tx))
	return &tx, nil
}

func TestCreateTransactionSigns(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	account := createAccount(t, testCtx, "Main")

	income, failCode := postTransaction(t, testCtx, models.CreateTransactionRequest{
		Type:       "income",
		Title:      "Salary",
		Amount:     decimal.RequireFromString("5000.00"),
		Currency:   "TRY",
		AccountID:  account.ID,
		CategoryID: testCtx.SalaryCatID,
		OccurredAt: time.Now().UTC(),
	})
	require.Nil(t, failCode)
	assert.True(t, income.Amount.Equal(decimal.RequireFromString("5000.00")))

	expense, failCode := postTransaction(t, testCtx, models.CreateTransactionRequest{
		Type:       "expense",
		Title:      "Lunch",
		Amount:     decimal.RequireFromString("120.50"),
		Currency:   "TRY",
		AccountID:  account.ID,
		CategoryID: testCtx.FoodCatID,
		OccurredAt: time.Now().UTC(),
	})
	require.Nil(t, failCode)
	assert.True(t, expense.Amount.Equal(decimal.RequireFromString("-120.50")), "expense stored negative")

	// Balance endpoint reflects the signed fold.
	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/accounts/"+account.ID+"/balance",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var balance models.AccountBalance
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &balance))
	assert.True(t, balance.Balance.Equal(decimal.RequireFromString("4879.50")))
}

func TestCreateTransactionCategoryMismatch(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	account := createAccount(t, testCtx, "Main")

	_, failCode := postTransaction(t, testCtx, models.CreateTransactionRequest{
		Type:       "income",
		Title:      "Mismatch",
		Amount:     decimal.RequireFromString("10.00"),
		Currency:   "TRY",
		AccountID:  account.ID,
		CategoryID: testCtx.FoodCatID, // expense category
		OccurredAt: time.Now().UTC(),
	})
	require.NotNil(t, failCode)
	assert.Equal(t, http.StatusBadRequest, *failCode)
}

func TestTransferAffectsBothBalances(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	a := createAccount(t, testCtx, "A")
	b := createAccount(t, testCtx, "B")

	_, failCode := postTransaction(t, testCtx, models.CreateTransactionRequest{
		Type:          "transfer",
		Title:         "Move",
		Amount:        decimal.RequireFromString("1000.00"),
		Currency:      "TRY",
		FromAccountID: a.ID,
		ToAccountID:   b.ID,
		OccurredAt:    time.Now().UTC(),
	})
	require.Nil(t, failCode)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/reports/balances",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var balances []models.AccountBalance
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &balances))
	require.Len(t, balances, 2)

	byID := map[string]models.AccountBalance{}
	for _, bal := range balances {
		byID[bal.Account.ID] = bal
	}
	assert.True(t, byID[a.ID].Balance.Equal(decimal.RequireFromString("-1000.00")))
	assert.True(t, byID[b.ID].Balance.Equal(decimal.RequireFromString("1000.00")))
}

func TestCashflowReport(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	account := createAccount(t, testCtx, "Main")

	_, failCode := postTransaction(t, testCtx, models.CreateTransactionRequest{
		Type:       "income",
		Title:      "Salary",
		Amount:     decimal.RequireFromString("5000.00"),
		Currency:   "TRY",
		AccountID:  account.ID,
		CategoryID: testCtx.SalaryCatID,
		OccurredAt: time.Now().UTC(),
	})
	require.Nil(t, failCode)

	_, failCode = postTransaction(t, testCtx, models.CreateTransactionRequest{
		Type:       "expense",
		Title:      "Lunch",
		Amount:     decimal.RequireFromString("120.50"),
		Currency:   "TRY",
		AccountID:  account.ID,
		CategoryID: testCtx.FoodCatID,
		OccurredAt: time.Now().UTC(),
	})
	require.Nil(t, failCode)

	w := testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/reports/cashflow",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	require.Equal(t, http.StatusOK, w.Code)

	var flow models.Cashflow
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &flow))
	assert.True(t, flow.Income.Equal(decimal.RequireFromString("5000.00")))
	assert.True(t, flow.Expense.Equal(decimal.RequireFromString("120.50")))
	assert.True(t, flow.Net.Equal(decimal.RequireFromString("4879.50")))

	// Bad date filter
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		"/api/reports/cashflow?from=not-a-date",
		nil,
		testutils.AuthHeaders(testCtx.TestUserJWT),
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
