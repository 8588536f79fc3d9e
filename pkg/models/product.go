package models

import "github.com/shopspring/decimal"

// RawProductItem is one invoice line before cross-account consolidation.
type RawProductItem struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Account   AccountID       `json:"account"`
}

// ConsolidatedProduct aggregates every line sharing a normalised name.
type ConsolidatedProduct struct {
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalValue decimal.Decimal `json:"totalValue"`
	Accounts   []AccountID     `json:"accounts"`
}
