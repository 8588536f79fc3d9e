package server

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpnda/bling-margin/pkg/models"
)

const calculateBody = `{
	"month": 1,
	"year": 2026,
	"products": [{"name": "Camiseta", "quantity": 10, "unitPrice": 50}],
	"paidAccounts": [
		{"description": "Aluguel", "amount": 100},
		{"description": "Tecido", "amount": 999}
	]
}`

func TestCalculate(t *testing.T) {
	env := newTestEnv(t)
	env.db.TaxRates[testPeriod] = d("10")
	env.db.Costs["Camiseta"] = d("20")
	env.db.Categories["aluguel"] = models.CategoryExpense
	env.db.Categories["tecido"] = models.CategoryProductCost

	rec := env.do(t, http.MethodPost, "/api/calculate", calculateBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decodeBody[models.CalculationResult](t, rec)
	require.Len(t, result.Products, 1)
	assert.True(t, d("5").Equal(result.Products[0].TaxPerUnit))
	assert.True(t, d("25").Equal(result.Products[0].UnitMargin))
	assert.True(t, d("500").Equal(result.Summary.Revenue))
	assert.True(t, d("250").Equal(result.Summary.ContributionMargin))
	assert.True(t, d("100").Equal(result.Summary.Expenses))
	assert.True(t, d("150").Equal(result.Summary.OperationalResult))

	require.NotNil(t, env.db.Results[testPeriod])
	assert.Zero(t, env.fetcher.BillCalls)
}

func TestCalculateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `[`, msgInvalidBody},
		{"bad month", `{"month": 13, "year": 2026, "products": [], "paidAccounts": []}`, "month deve ser um inteiro entre 1 e 12."},
		{"no products", `{"month": 1, "year": 2026, "paidAccounts": []}`, "products deve ser um array."},
		{"no bills", `{"month": 1, "year": 2026, "products": []}`, "paidAccounts deve ser um array."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.do(t, http.MethodPost, "/api/calculate", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, errorOf(t, rec))
			assert.Empty(t, env.db.Results)
		})
	}
}

func TestCalculateStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	env.db.SaveMonthlyResultErr = errors.New("readonly database")

	rec := env.do(t, http.MethodPost, "/api/calculate", calculateBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgCalculateFailed, errorOf(t, rec))
}

func TestCalculateWithFetch(t *testing.T) {
	env := newTestEnv(t)
	env.connect(models.Account1)
	env.db.Categories["aluguel"] = models.CategoryExpense
	env.fetcher.Bills = []models.PaidBill{
		{ID: "1-1", Description: "Aluguel", Amount: d("40"), PaymentDate: "2026-01-05", Account: models.Account1},
	}
	env.fetcher.Items = []models.RawProductItem{
		{Name: "Caneca", Quantity: d("4"), UnitPrice: d("25"), Account: models.Account1},
	}

	rec := env.do(t, http.MethodPost, "/api/calculate", `{"month": 1, "year": 2026, "fetch": true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decodeBody[models.CalculationResult](t, rec)
	assert.True(t, d("100").Equal(result.Summary.Revenue))
	assert.True(t, d("60").Equal(result.Summary.OperationalResult))
	assert.Equal(t, 1, env.fetcher.BillCalls)
	assert.Equal(t, 1, env.fetcher.ItemCalls)

	// stored result is served back
	rec = env.do(t, http.MethodGet, "/api/results?month=1&year=2026", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stored := decodeBody[models.CalculationResult](t, rec)
	assert.True(t, d("60").Equal(stored.Summary.OperationalResult))
}

func TestCalculateWithFetchNoAccount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/calculate", `{"month": 1, "year": 2026, "fetch": true}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, env.fetcher.BillCalls)
}

func TestGetResultMissing(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/results?month=1&year=2026", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/results?month=1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
