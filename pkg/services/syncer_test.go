package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpnda/bling-margin/db"
	bhttp "github.com/vpnda/bling-margin/pkg/http"
	"github.com/vpnda/bling-margin/pkg/models"
)

type staticAccounts struct {
	accounts []models.AccountID
	err      error
}

func (s staticAccounts) ConnectedAccounts() ([]models.AccountID, error) {
	return s.accounts, s.err
}

func TestMonthlySyncerSync(t *testing.T) {
	// Create mock database
	mockDB := db.NewMockDB()
	period := models.Period{Month: 1, Year: 2026}
	mockDB.Categories["aluguel"] = models.CategoryExpense
	mockDB.Costs["Camiseta Branca"] = d("20")

	fetcher := bhttp.NewMockFetcher()
	fetcher.Bills = []models.PaidBill{
		{ID: "10-2", Description: "Aluguel", Amount: d("100"), PaymentDate: "2026-01-20", Account: models.Account2},
	}
	fetcher.Items = []models.RawProductItem{
		{Name: "Camiseta Branca", Quantity: d("10"), UnitPrice: d("50"), Account: models.Account1},
		{Name: "camiseta branca", Quantity: d("5"), UnitPrice: d("60"), Account: models.Account2},
	}

	syncer := NewMonthlySyncer(fetcher, staticAccounts{accounts: models.AllAccounts()}, mockDB)
	report, err := syncer.Sync(context.Background(), period)
	require.NoError(t, err)

	assert.Equal(t, models.AllAccounts(), report.Accounts)
	assert.Equal(t, models.AllAccounts(), fetcher.BillAccounts)
	assert.Equal(t, models.AllAccounts(), fetcher.ItemAccounts)
	require.Len(t, report.Products, 1)
	assertDecimal(t, "800", report.Products[0].TotalValue)

	// unit margin 53.33 - 20 = 33.33 over 15 units, minus 100 of rent
	assertDecimal(t, "800", report.Result.Summary.Revenue)
	assertDecimal(t, "300", report.Result.Summary.ProductCost)
	assertDecimal(t, "499.95", report.Result.Summary.ContributionMargin)
	assertDecimal(t, "399.95", report.Result.Summary.OperationalResult)
	assert.NotNil(t, mockDB.Results[period])
}

func TestMonthlySyncerNoAccounts(t *testing.T) {
	fetcher := bhttp.NewMockFetcher()
	syncer := NewMonthlySyncer(fetcher, staticAccounts{}, db.NewMockDB())

	_, _, err := syncer.PaidBills(context.Background(), models.Period{Month: 1, Year: 2026})
	assert.ErrorIs(t, err, ErrNoAccountsConnected)
	_, _, err = syncer.Products(context.Background(), models.Period{Month: 1, Year: 2026})
	assert.ErrorIs(t, err, ErrNoAccountsConnected)
	assert.Equal(t, 0, fetcher.BillCalls)
	assert.Equal(t, 0, fetcher.ItemCalls)
}

func TestMonthlySyncerFetchFailure(t *testing.T) {
	fetcher := bhttp.NewMockFetcher()
	fetcher.FetchItemsErr = errors.New("upstream down")
	mockDB := db.NewMockDB()
	syncer := NewMonthlySyncer(fetcher, staticAccounts{accounts: []models.AccountID{models.Account1}}, mockDB)

	_, err := syncer.Sync(context.Background(), models.Period{Month: 1, Year: 2026})
	assert.ErrorContains(t, err, "upstream down")
	assert.Empty(t, mockDB.Results)
}

func TestMonthlySyncerInvalidPeriod(t *testing.T) {
	fetcher := bhttp.NewMockFetcher()
	syncer := NewMonthlySyncer(fetcher, staticAccounts{accounts: models.AllAccounts()}, db.NewMockDB())

	_, _, err := syncer.PaidBills(context.Background(), models.Period{Month: 13, Year: 2026})
	assert.ErrorIs(t, err, models.ErrInvalidPeriod)
	assert.Equal(t, 0, fetcher.BillCalls)
}
