package db

import (
	"database/sql"
	"fmt"

	"github.com/vpnda/bling-margin/pkg/models"
)

// GetToken returns the stored token for account, or nil when the account
// was never connected.
func (db *DB) GetToken(account models.AccountID) (*models.Token, error) {
	query := `
	SELECT access_token, refresh_token, expires_at, updated_at
	FROM bling_tokens
	WHERE account_number = ?
	LIMIT 1
	`

	tok := &models.Token{Account: account}
	var expiresAt, updatedAt string
	err := db.QueryRow(query, int(account)).Scan(
		&tok.AccessToken,
		&tok.RefreshToken,
		&expiresAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	if tok.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if tok.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return tok, nil
}

// SaveToken inserts or replaces the token of tok.Account.
func (db *DB) SaveToken(tok *models.Token) error {
	if !tok.Account.Valid() {
		return models.ErrInvalidAccount
	}

	query := `
	INSERT INTO bling_tokens (account_number, access_token, refresh_token, expires_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(account_number) DO UPDATE SET
		access_token = excluded.access_token,
		refresh_token = excluded.refresh_token,
		expires_at = excluded.expires_at,
		updated_at = excluded.updated_at
	`

	_, err := db.Exec(query,
		int(tok.Account),
		tok.AccessToken,
		tok.RefreshToken,
		formatTime(tok.ExpiresAt),
		formatTime(tok.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetConnectedAccounts lists the accounts holding a token, ascending.
func (db *DB) GetConnectedAccounts() ([]models.AccountID, error) {
	rows, err := db.Query(`SELECT account_number FROM bling_tokens ORDER BY account_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to query connected accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.AccountID{}
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		if a := models.AccountID(n); a.Valid() {
			accounts = append(accounts, a)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}
