package models

import (
	"fmt"
	"strconv"
	"time"
)

// AccountID identifies one of the two Bling seller accounts connected to the
// application. Upstream ids are only unique within an account, so the value
// is part of every composite record id.
type AccountID int

const (
	Account1 AccountID = 1
	Account2 AccountID = 2
)

var ErrInvalidAccount = fmt.Errorf("invalid account: expected 1 or 2")

// AllAccounts returns every known account in ascending order.
func AllAccounts() []AccountID {
	return []AccountID{Account1, Account2}
}

func (a AccountID) Valid() bool {
	return a == Account1 || a == Account2
}

func (a AccountID) String() string {
	return strconv.Itoa(int(a))
}

// ParseAccountID parses "1" or "2".
func ParseAccountID(s string) (AccountID, error) {
	switch s {
	case "1":
		return Account1, nil
	case "2":
		return Account2, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAccount, s)
}

// Token is the OAuth credential stored for an account.
type Token struct {
	Account      AccountID
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

// ValidFor reports whether the access token is still usable for at least
// the given buffer past now.
func (t *Token) ValidFor(now time.Time, buffer time.Duration) bool {
	return t.AccessToken != "" && now.Add(buffer).Before(t.ExpiresAt)
}
