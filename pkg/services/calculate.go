package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/vpnda/bling-margin/db"
	"github.com/vpnda/bling-margin/pkg/models"
	"github.com/vpnda/bling-margin/pkg/utils"
)

// Calculator turns a month of sales and paid bills into a stored
// CalculationResult, using the tax rate, unit costs and bill categories
// saved in the database.
type Calculator struct {
	database db.DBInterface
	now      func() time.Time
}

func NewCalculator(database db.DBInterface) *Calculator {
	return &Calculator{database: database, now: time.Now}
}

// Calculate runs the margin engine for period and upserts the result.
// Products without a saved unit cost count as zero cost, a month without a
// saved tax rate as zero tax. Only bills categorised as expenses are
// deducted.
func (c *Calculator) Calculate(ctx context.Context, period models.Period, products []models.ConsolidatedProduct, bills []models.PaidBill) (*models.CalculationResult, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	taxRate := decimal.Zero
	saved, err := c.database.GetTaxRate(period)
	if err != nil {
		return nil, fmt.Errorf("failed to load tax rate: %w", err)
	}
	if saved != nil {
		taxRate = *saved
	}

	costs, err := c.database.GetProductCosts(lo.Map(products, func(p models.ConsolidatedProduct, _ int) string {
		return p.Name
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to load product costs: %w", err)
	}

	categories, err := c.database.GetCategories(lo.Map(bills, func(b models.PaidBill, _ int) string {
		return b.Description
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	categoryByKey := lo.SliceToMap(categories, func(c models.Categorization) (string, models.Category) {
		return c.Description, c.Category
	})

	inputs := lo.Map(products, func(p models.ConsolidatedProduct, _ int) MarginInput {
		return MarginInput{
			Name:      p.Name,
			Quantity:  p.Quantity,
			UnitPrice: p.UnitPrice,
			UnitCost:  costs[p.Name],
		}
	})
	expenses := lo.FilterMap(bills, func(b models.PaidBill, _ int) (decimal.Decimal, bool) {
		return b.Amount, categoryByKey[utils.NormalizeKey(b.Description)] == models.CategoryExpense
	})

	result := CalculateContributionMargin(inputs, taxRate, expenses, c.now().UTC())

	if err := c.database.SaveMonthlyResult(period, result); err != nil {
		return nil, fmt.Errorf("failed to save monthly result: %w", err)
	}

	log.Info().
		Str("period", period.String()).
		Int("products", len(products)).
		Int("expenses", len(expenses)).
		Str("result", models.DisplayBRL(result.Summary.OperationalResult)).
		Msg("Calculated monthly result")
	return result, nil
}
