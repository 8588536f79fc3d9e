package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductMargin is the contribution margin of one product for a month.
type ProductMargin struct {
	Name        string          `json:"name"`
	Quantity    decimal.Decimal `json:"quantity"`
	SalePrice   decimal.Decimal `json:"salePrice"`
	TaxPerUnit  decimal.Decimal `json:"taxPerUnit"`
	UnitCost    decimal.Decimal `json:"unitCost"`
	UnitMargin  decimal.Decimal `json:"unitMargin"`
	TotalMargin decimal.Decimal `json:"totalMargin"`
}

type ResultSummary struct {
	Revenue            decimal.Decimal `json:"revenue"`
	Taxes              decimal.Decimal `json:"taxes"`
	ProductCost        decimal.Decimal `json:"productCost"`
	ContributionMargin decimal.Decimal `json:"contributionMargin"`
	Expenses           decimal.Decimal `json:"expenses"`
	OperationalResult  decimal.Decimal `json:"operationalResult"`
}

// CalculationResult is the monthly result cached per period.
type CalculationResult struct {
	Products     []ProductMargin `json:"products"`
	Summary      ResultSummary   `json:"summary"`
	CalculatedAt time.Time       `json:"calculatedAt"`
}
