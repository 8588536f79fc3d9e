package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vpnda/bling-margin/pkg/models"
)

// UpsertTaxRate stores the tax rate (percent) applied to sales in period.
func (db *DB) UpsertTaxRate(period models.Period, rate decimal.Decimal) error {
	query := `
	INSERT INTO monthly_config (month, year, aliquota, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(month, year) DO UPDATE SET
		aliquota = excluded.aliquota,
		updated_at = excluded.updated_at
	`

	_, err := db.Exec(query, period.Month, period.Year, rate.String(), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to upsert tax rate: %w", err)
	}
	return nil
}

// GetTaxRate returns nil when no rate was saved for period.
func (db *DB) GetTaxRate(period models.Period) (*decimal.Decimal, error) {
	query := `SELECT aliquota FROM monthly_config WHERE month = ? AND year = ? LIMIT 1`

	var rate decimal.Decimal
	err := db.QueryRow(query, period.Month, period.Year).Scan(&rate)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get tax rate: %w", err)
	}
	return &rate, nil
}

// SaveMonthlyResult replaces the cached result of period.
func (db *DB) SaveMonthlyResult(period models.Period, result *models.CalculationResult) error {
	detail, err := json.Marshal(result.Products)
	if err != nil {
		return fmt.Errorf("failed to encode product detail: %w", err)
	}

	query := `
	INSERT INTO monthly_results (
		month, year, total_receita, total_impostos, total_cmv, total_mc,
		total_despesas, resultado_operacional, products_detail, calculated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(month, year) DO UPDATE SET
		total_receita = excluded.total_receita,
		total_impostos = excluded.total_impostos,
		total_cmv = excluded.total_cmv,
		total_mc = excluded.total_mc,
		total_despesas = excluded.total_despesas,
		resultado_operacional = excluded.resultado_operacional,
		products_detail = excluded.products_detail,
		calculated_at = excluded.calculated_at
	`

	s := result.Summary
	_, err = db.Exec(query,
		period.Month,
		period.Year,
		s.Revenue.String(),
		s.Taxes.String(),
		s.ProductCost.String(),
		s.ContributionMargin.String(),
		s.Expenses.String(),
		s.OperationalResult.String(),
		string(detail),
		formatTime(result.CalculatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save monthly result: %w", err)
	}
	return nil
}

// GetMonthlyResult returns nil when period was never calculated.
func (db *DB) GetMonthlyResult(period models.Period) (*models.CalculationResult, error) {
	query := `
	SELECT
		total_receita, total_impostos, total_cmv, total_mc,
		total_despesas, resultado_operacional, products_detail, calculated_at
	FROM monthly_results
	WHERE month = ? AND year = ?
	LIMIT 1
	`

	result := &models.CalculationResult{}
	s := &result.Summary
	var detail, calculatedAt string
	err := db.QueryRow(query, period.Month, period.Year).Scan(
		&s.Revenue,
		&s.Taxes,
		&s.ProductCost,
		&s.ContributionMargin,
		&s.Expenses,
		&s.OperationalResult,
		&detail,
		&calculatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get monthly result: %w", err)
	}

	if err := json.Unmarshal([]byte(detail), &result.Products); err != nil {
		return nil, fmt.Errorf("failed to decode product detail: %w", err)
	}
	if result.CalculatedAt, err = parseTime(calculatedAt); err != nil {
		return nil, err
	}
	return result, nil
}
