package http

import (
	"context"
	"sync"

	"github.com/vpnda/bling-margin/pkg/models"
)

// MockFetcher is a mock implementation of Fetcher for testing
type MockFetcher struct {
	mu sync.Mutex

	// Mock data to return
	Bills []models.PaidBill
	Items []models.RawProductItem

	// Error values to return
	FetchBillsErr error
	FetchItemsErr error

	// Arguments of the last calls
	BillAccounts []models.AccountID
	ItemAccounts []models.AccountID
	BillCalls    int
	ItemCalls    int
}

// NewMockFetcher creates a new mock fetcher
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Bills: []models.PaidBill{},
		Items: []models.RawProductItem{},
	}
}

// FetchAllPaidBills returns the mock bills
func (m *MockFetcher) FetchAllPaidBills(ctx context.Context, accounts []models.AccountID, period models.Period) ([]models.PaidBill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BillCalls++
	m.BillAccounts = accounts
	if m.FetchBillsErr != nil {
		return nil, m.FetchBillsErr
	}
	return m.Bills, nil
}

// FetchAllProductItems returns the mock items
func (m *MockFetcher) FetchAllProductItems(ctx context.Context, accounts []models.AccountID, period models.Period) ([]models.RawProductItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemCalls++
	m.ItemAccounts = accounts
	if m.FetchItemsErr != nil {
		return nil, m.FetchItemsErr
	}
	return m.Items, nil
}
