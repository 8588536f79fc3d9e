package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vpnda/bling-margin/pkg/models"
)

var hundred = decimal.NewFromInt(100)

// MarginInput is one product line fed to the margin engine.
type MarginInput struct {
	Name      string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	UnitCost  decimal.Decimal
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// CalculateContributionMargin computes per-product contribution margins and
// the monthly summary. taxRate is a percentage (0-100) applied to the sale
// price. Every figure is rounded to cents.
func CalculateContributionMargin(products []MarginInput, taxRate decimal.Decimal, expenses []decimal.Decimal, calculatedAt time.Time) *models.CalculationResult {
	result := &models.CalculationResult{
		Products:     make([]models.ProductMargin, 0, len(products)),
		CalculatedAt: calculatedAt,
	}

	var revenue, taxes, cost, margin, totalExpenses decimal.Decimal
	for _, p := range products {
		tax := round2(p.UnitPrice.Mul(taxRate).Div(hundred))
		unitMargin := round2(p.UnitPrice.Sub(tax).Sub(p.UnitCost))
		totalMargin := round2(unitMargin.Mul(p.Quantity))

		result.Products = append(result.Products, models.ProductMargin{
			Name:        p.Name,
			Quantity:    p.Quantity,
			SalePrice:   p.UnitPrice,
			TaxPerUnit:  tax,
			UnitCost:    p.UnitCost,
			UnitMargin:  unitMargin,
			TotalMargin: totalMargin,
		})

		revenue = revenue.Add(p.UnitPrice.Mul(p.Quantity))
		taxes = taxes.Add(tax.Mul(p.Quantity))
		cost = cost.Add(p.UnitCost.Mul(p.Quantity))
		margin = margin.Add(totalMargin)
	}
	for _, e := range expenses {
		totalExpenses = totalExpenses.Add(e)
	}

	result.Summary = models.ResultSummary{
		Revenue:            round2(revenue),
		Taxes:              round2(taxes),
		ProductCost:        round2(cost),
		ContributionMargin: round2(margin),
		Expenses:           round2(totalExpenses),
		OperationalResult:  round2(round2(margin).Sub(round2(totalExpenses))),
	}
	return result
}
