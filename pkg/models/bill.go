package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PaidBill is a settled accounts-payable entry from one account.
type PaidBill struct {
	// ID is "{upstreamId}-{account}"; upstream ids collide across accounts.
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"paymentDate"`
	Account     AccountID       `json:"account"`
	Supplier    string          `json:"supplier"`
}

func BillID(upstreamID int64, account AccountID) string {
	return fmt.Sprintf("%d-%d", upstreamID, account)
}

// Category is how a paid bill is treated in the monthly result.
type Category string

const (
	CategoryExpense     Category = "Despesa"
	CategoryProductCost Category = "Custo de Produto"
	CategoryIgnore      Category = "Ignorar"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryExpense, CategoryProductCost, CategoryIgnore:
		return true
	}
	return false
}

// Categorization assigns a category to every bill sharing a description.
type Categorization struct {
	Description string   `json:"description"`
	Category    Category `json:"category"`
}
