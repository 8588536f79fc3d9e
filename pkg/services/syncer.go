package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/vpnda/bling-margin/db"
	bhttp "github.com/vpnda/bling-margin/pkg/http"
	"github.com/vpnda/bling-margin/pkg/models"
)

var ErrNoAccountsConnected = fmt.Errorf("no bling account connected")

// AccountLister reports which accounts hold credentials.
type AccountLister interface {
	ConnectedAccounts() ([]models.AccountID, error)
}

// MonthlyReport is everything produced for one period.
type MonthlyReport struct {
	Period   models.Period
	Accounts []models.AccountID
	Bills    []models.PaidBill
	Products []models.ConsolidatedProduct
	Result   *models.CalculationResult
}

// MonthlySyncer pulls a month from every connected account and turns it
// into a monthly result.
type MonthlySyncer struct {
	fetcher    bhttp.Fetcher
	accounts   AccountLister
	calculator *Calculator
}

func NewMonthlySyncer(fetcher bhttp.Fetcher, accounts AccountLister, database db.DBInterface) *MonthlySyncer {
	return &MonthlySyncer{
		fetcher:    fetcher,
		accounts:   accounts,
		calculator: NewCalculator(database),
	}
}

func (s *MonthlySyncer) Calculator() *Calculator {
	return s.calculator
}

// ConnectedAccounts fails with ErrNoAccountsConnected when the list is empty.
func (s *MonthlySyncer) ConnectedAccounts() ([]models.AccountID, error) {
	accounts, err := s.accounts.ConnectedAccounts()
	if err != nil {
		return nil, fmt.Errorf("failed to list connected accounts: %w", err)
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccountsConnected
	}
	return accounts, nil
}

// PaidBills returns the paid bills of every connected account, newest first.
func (s *MonthlySyncer) PaidBills(ctx context.Context, period models.Period) ([]models.PaidBill, []models.AccountID, error) {
	if err := period.Validate(); err != nil {
		return nil, nil, err
	}
	accounts, err := s.ConnectedAccounts()
	if err != nil {
		return nil, nil, err
	}
	bills, err := s.fetcher.FetchAllPaidBills(ctx, accounts, period)
	if err != nil {
		return nil, accounts, fmt.Errorf("failed to fetch paid bills: %w", err)
	}
	return bills, accounts, nil
}

// Products returns the consolidated sales of every connected account.
func (s *MonthlySyncer) Products(ctx context.Context, period models.Period) ([]models.ConsolidatedProduct, []models.AccountID, error) {
	if err := period.Validate(); err != nil {
		return nil, nil, err
	}
	accounts, err := s.ConnectedAccounts()
	if err != nil {
		return nil, nil, err
	}
	items, err := s.fetcher.FetchAllProductItems(ctx, accounts, period)
	if err != nil {
		return nil, accounts, fmt.Errorf("failed to fetch invoice items: %w", err)
	}
	return ConsolidateProducts(items), accounts, nil
}

// Sync fetches bills and sales for period, then calculates and stores the
// monthly result.
func (s *MonthlySyncer) Sync(ctx context.Context, period models.Period) (*MonthlyReport, error) {
	bills, accounts, err := s.PaidBills(ctx, period)
	if err != nil {
		return nil, err
	}
	products, _, err := s.Products(ctx, period)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("period", period.String()).
		Int("bills", len(bills)).
		Int("products", len(products)).
		Msg("Fetched month from bling")

	result, err := s.calculator.Calculate(ctx, period, products, bills)
	if err != nil {
		return nil, err
	}

	return &MonthlyReport{
		Period:   period,
		Accounts: accounts,
		Bills:    bills,
		Products: products,
		Result:   result,
	}, nil
}
