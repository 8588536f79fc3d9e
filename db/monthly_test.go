package db

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpnda/bling-margin/pkg/models"
)

func TestTaxRate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	period := models.Period{Month: 3, Year: 2026}

	rate, err := db.GetTaxRate(period)
	require.NoError(t, err)
	assert.Nil(t, rate)

	require.NoError(t, db.UpsertTaxRate(period, decimal.RequireFromString("6")))
	require.NoError(t, db.UpsertTaxRate(period, decimal.RequireFromString("8.25")))

	rate, err = db.GetTaxRate(period)
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.True(t, decimal.RequireFromString("8.25").Equal(*rate))

	other, err := db.GetTaxRate(models.Period{Month: 4, Year: 2026})
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestMonthlyResult(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	period := models.Period{Month: 1, Year: 2026}
	d := decimal.RequireFromString

	missing, err := db.GetMonthlyResult(period)
	require.NoError(t, err)
	assert.Nil(t, missing)

	result := &models.CalculationResult{
		Products: []models.ProductMargin{{
			Name:        "Camiseta Branca",
			Quantity:    d("15"),
			SalePrice:   d("53.33"),
			TaxPerUnit:  d("3.2"),
			UnitCost:    d("20"),
			UnitMargin:  d("30.13"),
			TotalMargin: d("451.95"),
		}},
		Summary: models.ResultSummary{
			Revenue:            d("800"),
			Taxes:              d("48"),
			ProductCost:        d("300"),
			ContributionMargin: d("451.95"),
			Expenses:           d("150.5"),
			OperationalResult:  d("301.45"),
		},
		CalculatedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.SaveMonthlyResult(period, result))

	// recalculating overwrites the row
	result.Summary.Expenses = d("200")
	result.Summary.OperationalResult = d("251.95")
	require.NoError(t, db.SaveMonthlyResult(period, result))

	got, err := db.GetMonthlyResult(period)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, d("200").Equal(got.Summary.Expenses))
	assert.True(t, d("251.95").Equal(got.Summary.OperationalResult))
	assert.True(t, d("800").Equal(got.Summary.Revenue))
	require.Len(t, got.Products, 1)
	assert.Equal(t, "Camiseta Branca", got.Products[0].Name)
	assert.True(t, d("451.95").Equal(got.Products[0].TotalMargin))
	assert.True(t, result.CalculatedAt.Equal(got.CalculatedAt))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM monthly_results").Scan(&count))
	assert.Equal(t, 1, count)
}
