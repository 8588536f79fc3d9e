package http

import (
	"context"

	"github.com/vpnda/bling-margin/pkg/http/bling"
	"github.com/vpnda/bling-margin/pkg/models"
)

// Fetcher pulls one month of data from the connected Bling accounts.
type Fetcher interface {
	FetchAllPaidBills(ctx context.Context, accounts []models.AccountID, period models.Period) ([]models.PaidBill, error)
	FetchAllProductItems(ctx context.Context, accounts []models.AccountID, period models.Period) ([]models.RawProductItem, error)
}

var (
	_ Fetcher = &bling.Fetcher{}
	_ Fetcher = &MockFetcher{}
)
