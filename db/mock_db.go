package db

import (
	"sync"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/vpnda/bling-margin/pkg/models"
	"github.com/vpnda/bling-margin/pkg/utils"
)

// MockDB is a mock implementation of the DB for testing
type MockDB struct {
	mu sync.Mutex

	// Mock data storage
	Tokens     map[models.AccountID]*models.Token
	Costs      map[string]decimal.Decimal
	Categories map[string]models.Category
	TaxRates   map[models.Period]decimal.Decimal
	Results    map[models.Period]*models.CalculationResult

	// Error values to return
	GetTokenErr          error
	SaveTokenErr         error
	UpsertCostsErr       error
	GetCostsErr          error
	UpsertCategoriesErr  error
	GetCategoriesErr     error
	UpsertTaxRateErr     error
	GetTaxRateErr        error
	SaveMonthlyResultErr error

	SaveTokenCalls int
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		Tokens:     make(map[models.AccountID]*models.Token),
		Costs:      make(map[string]decimal.Decimal),
		Categories: make(map[string]models.Category),
		TaxRates:   make(map[models.Period]decimal.Decimal),
		Results:    make(map[models.Period]*models.CalculationResult),
	}
}

func (m *MockDB) GetToken(account models.AccountID) (*models.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetTokenErr != nil {
		return nil, m.GetTokenErr
	}
	tok, ok := m.Tokens[account]
	if !ok {
		return nil, nil
	}
	cp := *tok
	return &cp, nil
}

func (m *MockDB) SaveToken(tok *models.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveTokenCalls++
	if m.SaveTokenErr != nil {
		return m.SaveTokenErr
	}
	cp := *tok
	m.Tokens[tok.Account] = &cp
	return nil
}

func (m *MockDB) GetConnectedAccounts() ([]models.AccountID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetTokenErr != nil {
		return nil, m.GetTokenErr
	}
	return lo.Filter(models.AllAccounts(), func(a models.AccountID, _ int) bool {
		_, ok := m.Tokens[a]
		return ok
	}), nil
}

func (m *MockDB) UpsertProductCosts(costs map[string]decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertCostsErr != nil {
		return m.UpsertCostsErr
	}
	for name, cost := range costs {
		m.Costs[name] = cost
	}
	return nil
}

func (m *MockDB) GetProductCosts(names []string) (map[string]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetCostsErr != nil {
		return nil, m.GetCostsErr
	}
	return lo.PickByKeys(m.Costs, names), nil
}

func (m *MockDB) UpsertCategories(categorizations []models.Categorization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertCategoriesErr != nil {
		return m.UpsertCategoriesErr
	}
	for _, c := range categorizations {
		m.Categories[utils.NormalizeKey(c.Description)] = c.Category
	}
	return nil
}

func (m *MockDB) GetCategories(descriptions []string) ([]models.Categorization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetCategoriesErr != nil {
		return nil, m.GetCategoriesErr
	}
	result := []models.Categorization{}
	for _, d := range lo.Uniq(lo.Map(descriptions, func(d string, _ int) string { return utils.NormalizeKey(d) })) {
		if c, ok := m.Categories[d]; ok {
			result = append(result, models.Categorization{Description: d, Category: c})
		}
	}
	return result, nil
}

func (m *MockDB) UpsertTaxRate(period models.Period, rate decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertTaxRateErr != nil {
		return m.UpsertTaxRateErr
	}
	m.TaxRates[period] = rate
	return nil
}

func (m *MockDB) GetTaxRate(period models.Period) (*decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetTaxRateErr != nil {
		return nil, m.GetTaxRateErr
	}
	rate, ok := m.TaxRates[period]
	if !ok {
		return nil, nil
	}
	return &rate, nil
}

func (m *MockDB) SaveMonthlyResult(period models.Period, result *models.CalculationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveMonthlyResultErr != nil {
		return m.SaveMonthlyResultErr
	}
	m.Results[period] = result
	return nil
}

func (m *MockDB) GetMonthlyResult(period models.Period) (*models.CalculationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Results[period], nil
}

// Initialize is a no-op for the mock database
func (m *MockDB) Initialize() error {
	return nil
}

// Close is a no-op for the mock database
func (m *MockDB) Close() error {
	return nil
}
