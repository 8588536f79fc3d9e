package db

import (
	"github.com/shopspring/decimal"

	"github.com/vpnda/bling-margin/pkg/models"
)

// TokenStore is the part of the database the token manager needs.
type TokenStore interface {
	GetToken(account models.AccountID) (*models.Token, error)
	SaveToken(tok *models.Token) error
	GetConnectedAccounts() ([]models.AccountID, error)
}

// DBInterface defines the interface for database operations
type DBInterface interface {
	TokenStore

	Initialize() error
	Close() error

	UpsertProductCosts(costs map[string]decimal.Decimal) error
	GetProductCosts(names []string) (map[string]decimal.Decimal, error)

	UpsertCategories(categorizations []models.Categorization) error
	GetCategories(descriptions []string) ([]models.Categorization, error)

	UpsertTaxRate(period models.Period, rate decimal.Decimal) error
	GetTaxRate(period models.Period) (*decimal.Decimal, error)

	SaveMonthlyResult(period models.Period, result *models.CalculationResult) error
	GetMonthlyResult(period models.Period) (*models.CalculationResult, error)
}

// Ensure DB implements DBInterface
var _ DBInterface = (*DB)(nil)

// Ensure MockDB implements DBInterface
var _ DBInterface = (*MockDB)(nil)
