package services

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vpnda/bling-margin/pkg/models"
	"github.com/vpnda/bling-margin/pkg/utils"
)

type productGroup struct {
	name     string
	quantity decimal.Decimal
	total    decimal.Decimal
	accounts []models.AccountID
}

// ConsolidateProducts merges invoice lines from every account into one row
// per product. Names are matched ignoring case and surrounding space; the
// first spelling seen is kept for display. The unit price of a row is the
// quantity-weighted average of its lines. Rows come out in the order their
// product first appeared.
func ConsolidateProducts(items []models.RawProductItem) []models.ConsolidatedProduct {
	groups := map[string]*productGroup{}
	var order []string

	for _, item := range items {
		key := utils.NormalizeKey(item.Name)
		lineTotal := item.Quantity.Mul(item.UnitPrice)

		g, ok := groups[key]
		if !ok {
			g = &productGroup{name: strings.TrimSpace(item.Name)}
			groups[key] = g
			order = append(order, key)
		}
		g.quantity = g.quantity.Add(item.Quantity)
		g.total = g.total.Add(lineTotal)
		if !slices.Contains(g.accounts, item.Account) {
			g.accounts = append(g.accounts, item.Account)
		}
	}

	products := make([]models.ConsolidatedProduct, 0, len(order))
	for _, key := range order {
		g := groups[key]
		slices.Sort(g.accounts)

		unitPrice := decimal.Zero
		if !g.quantity.IsZero() {
			unitPrice = g.total.Div(g.quantity)
		}
		products = append(products, models.ConsolidatedProduct{
			Name:       g.name,
			Quantity:   g.quantity,
			UnitPrice:  unitPrice,
			TotalValue: g.total,
			Accounts:   g.accounts,
		})
	}
	return products
}
