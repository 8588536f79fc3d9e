package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpnda/bling-margin/db"
	"github.com/vpnda/bling-margin/pkg/models"
)

func TestCalculatorCalculate(t *testing.T) {
	mockDB := db.NewMockDB()
	period := models.Period{Month: 1, Year: 2026}
	mockDB.TaxRates[period] = d("10")
	mockDB.Costs["Camiseta Branca"] = d("20")
	mockDB.Categories["aluguel"] = models.CategoryExpense
	mockDB.Categories["tecidos ltda"] = models.CategoryProductCost

	calc := NewCalculator(mockDB)
	calc.now = func() time.Time { return time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC) }

	products := []models.ConsolidatedProduct{
		{Name: "Camiseta Branca", Quantity: d("10"), UnitPrice: d("50"), TotalValue: d("500")},
		{Name: "Boné", Quantity: d("2"), UnitPrice: d("30"), TotalValue: d("60")},
	}
	bills := []models.PaidBill{
		{ID: "1-1", Description: "  Aluguel", Amount: d("300")},
		{ID: "2-1", Description: "Tecidos LTDA", Amount: d("1000")},
		{ID: "3-2", Description: "Sem categoria", Amount: d("75")},
	}

	result, err := calc.Calculate(context.Background(), period, products, bills)
	require.NoError(t, err)

	// Camiseta: tax 5, margin 25 x 10; Boné: no cost saved, tax 3, margin 27 x 2
	assertDecimal(t, "250", result.Products[0].TotalMargin)
	assertDecimal(t, "0", result.Products[1].UnitCost)
	assertDecimal(t, "54", result.Products[1].TotalMargin)
	assertDecimal(t, "560", result.Summary.Revenue)
	assertDecimal(t, "56", result.Summary.Taxes)
	assertDecimal(t, "200", result.Summary.ProductCost)
	assertDecimal(t, "300", result.Summary.Expenses)
	assertDecimal(t, "4", result.Summary.OperationalResult)

	assert.Same(t, result, mockDB.Results[period])
	assert.Equal(t, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC), result.CalculatedAt)
}

func TestCalculatorWithoutTaxRate(t *testing.T) {
	mockDB := db.NewMockDB()
	calc := NewCalculator(mockDB)

	result, err := calc.Calculate(context.Background(), models.Period{Month: 5, Year: 2026}, []models.ConsolidatedProduct{
		{Name: "Caneca", Quantity: d("1"), UnitPrice: d("40")},
	}, nil)
	require.NoError(t, err)
	assertDecimal(t, "0", result.Products[0].TaxPerUnit)
	assertDecimal(t, "40", result.Summary.OperationalResult)
}

func TestCalculatorErrors(t *testing.T) {
	t.Run("Invalid period", func(t *testing.T) {
		_, err := NewCalculator(db.NewMockDB()).Calculate(context.Background(), models.Period{Month: 1, Year: 1999}, nil, nil)
		assert.ErrorIs(t, err, models.ErrInvalidPeriod)
	})

	t.Run("Save failure", func(t *testing.T) {
		mockDB := db.NewMockDB()
		mockDB.SaveMonthlyResultErr = errors.New("disk full")

		_, err := NewCalculator(mockDB).Calculate(context.Background(), models.Period{Month: 1, Year: 2026}, nil, nil)
		assert.ErrorContains(t, err, "disk full")
	})

	t.Run("Cost lookup failure", func(t *testing.T) {
		mockDB := db.NewMockDB()
		mockDB.GetCostsErr = errors.New("locked")

		_, err := NewCalculator(mockDB).Calculate(context.Background(), models.Period{Month: 1, Year: 2026}, nil, nil)
		assert.ErrorContains(t, err, "failed to load product costs")
		assert.Empty(t, mockDB.Results)
	})
}
