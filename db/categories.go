package db

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/vpnda/bling-margin/pkg/models"
	"github.com/vpnda/bling-margin/pkg/utils"
)

// UpsertCategories stores category assignments keyed by normalised
// description. Later entries for the same key win.
func (db *DB) UpsertCategories(categorizations []models.Categorization) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO account_categories (description, category, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(description) DO UPDATE SET
		category = excluded.category,
		updated_at = excluded.updated_at
	`

	now := formatTime(time.Now())
	for _, c := range categorizations {
		if !c.Category.Valid() {
			return fmt.Errorf("invalid category %q", c.Category)
		}
		if _, err := tx.Exec(query, utils.NormalizeKey(c.Description), string(c.Category), now); err != nil {
			return fmt.Errorf("failed to upsert category: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit categories: %w", err)
	}
	return nil
}

// GetCategories looks up the assignments for the given descriptions. The
// returned descriptions are normalised.
func (db *DB) GetCategories(descriptions []string) ([]models.Categorization, error) {
	keys := lo.Uniq(lo.Map(descriptions, func(d string, _ int) string {
		return utils.NormalizeKey(d)
	}))
	result := []models.Categorization{}
	if len(keys) == 0 {
		return result, nil
	}

	query := `SELECT description, category FROM account_categories WHERE description IN (` + placeholders(len(keys)) + `) ORDER BY description`
	rows, err := db.Query(query, lo.ToAnySlice(keys)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Categorization
		var category string
		if err := rows.Scan(&c.Description, &category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		c.Category = models.Category(category)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return result, nil
}
