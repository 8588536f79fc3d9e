package db

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// UpsertProductCosts stores the unit cost (CMV) of each product. The latest
// write for a name wins.
func (db *DB) UpsertProductCosts(costs map[string]decimal.Decimal) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO product_cmv (product_name, cmv_unitario, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(product_name) DO UPDATE SET
		cmv_unitario = excluded.cmv_unitario,
		updated_at = excluded.updated_at
	`

	now := formatTime(time.Now())
	for name, cost := range costs {
		if _, err := tx.Exec(query, name, cost.String(), now); err != nil {
			return fmt.Errorf("failed to upsert cost of %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product costs: %w", err)
	}
	return nil
}

// GetProductCosts returns the stored unit cost of every requested product
// that has one. Names are matched exactly.
func (db *DB) GetProductCosts(names []string) (map[string]decimal.Decimal, error) {
	costs := map[string]decimal.Decimal{}
	if len(names) == 0 {
		return costs, nil
	}

	query := `SELECT product_name, cmv_unitario FROM product_cmv WHERE product_name IN (` + placeholders(len(names)) + `)`
	rows, err := db.Query(query, lo.ToAnySlice(names)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query product costs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var cost decimal.Decimal
		if err := rows.Scan(&name, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan product cost: %w", err)
		}
		costs[name] = cost
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product costs: %w", err)
	}
	return costs, nil
}
