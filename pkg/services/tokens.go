package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/vpnda/bling-margin/db"
	"github.com/vpnda/bling-margin/pkg/http/bling"
	"github.com/vpnda/bling-margin/pkg/models"
)

const (
	BlingAuthorizeURL = "https://www.bling.com.br/Api/v3/oauth/authorize"
	BlingTokenURL     = "https://www.bling.com.br/Api/v3/oauth/token"

	// refreshBuffer is how long before expiry a token is already refreshed.
	refreshBuffer = 60 * time.Second
)

var (
	ErrAccountNotConnected  = fmt.Errorf("account not connected")
	ErrAccountNotConfigured = fmt.Errorf("bling oauth credentials not configured")
)

// AccountCredentials are the OAuth client credentials of one Bling app.
type AccountCredentials struct {
	ClientID     string
	ClientSecret string
}

// TokenManager hands out valid access tokens, refreshing and persisting
// them when they are about to expire. Refreshes of one account are
// serialised: Bling rotates the refresh token on every use.
type TokenManager struct {
	store      db.TokenStore
	configs    map[models.AccountID]*oauth2.Config
	locks      map[models.AccountID]*sync.Mutex
	httpClient *http.Client
	now        func() time.Time
}

var _ bling.TokenSupplier = (*TokenManager)(nil)

type TokenManagerOption func(*TokenManager)

// WithEndpoint overrides the Bling OAuth endpoints.
func WithEndpoint(authURL, tokenURL string) TokenManagerOption {
	return func(m *TokenManager) {
		for _, cfg := range m.configs {
			cfg.Endpoint.AuthURL = authURL
			cfg.Endpoint.TokenURL = tokenURL
		}
	}
}

func WithOAuthHTTPClient(client *http.Client) TokenManagerOption {
	return func(m *TokenManager) {
		m.httpClient = client
	}
}

// NewTokenManager builds a manager for every account with credentials.
// Accounts without a client id cannot be connected or refreshed.
func NewTokenManager(store db.TokenStore, creds map[models.AccountID]AccountCredentials, redirectURL string, opts ...TokenManagerOption) *TokenManager {
	m := &TokenManager{
		store:   store,
		configs: map[models.AccountID]*oauth2.Config{},
		locks:   map[models.AccountID]*sync.Mutex{},
		now:     time.Now,
	}
	for _, account := range models.AllAccounts() {
		m.locks[account] = &sync.Mutex{}
		c, ok := creds[account]
		if !ok || c.ClientID == "" {
			continue
		}
		m.configs[account] = &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   BlingAuthorizeURL,
				TokenURL:  BlingTokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *TokenManager) config(account models.AccountID) (*oauth2.Config, error) {
	cfg, ok := m.configs[account]
	if !ok {
		return nil, fmt.Errorf("%w for account %s", ErrAccountNotConfigured, account)
	}
	return cfg, nil
}

func (m *TokenManager) oauthContext(ctx context.Context) context.Context {
	if m.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// GetValidToken returns the stored access token, refreshing it first when
// it expires within a minute.
func (m *TokenManager) GetValidToken(ctx context.Context, account models.AccountID) (string, error) {
	lock, ok := m.locks[account]
	if !ok {
		return "", models.ErrInvalidAccount
	}
	lock.Lock()
	defer lock.Unlock()

	stored, err := m.store.GetToken(account)
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	if stored == nil {
		return "", fmt.Errorf("%w: account %s", ErrAccountNotConnected, account)
	}

	now := m.now()
	if stored.ValidFor(now, refreshBuffer) {
		return stored.AccessToken, nil
	}

	cfg, err := m.config(account)
	if err != nil {
		return "", err
	}

	log.Info().Str("account", account.String()).Time("expires_at", stored.ExpiresAt).Msg("Refreshing bling token")
	refreshed, err := cfg.TokenSource(m.oauthContext(ctx), &oauth2.Token{RefreshToken: stored.RefreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("failed to refresh token for account %s: %w", account, err)
	}

	tok := m.toStored(account, refreshed, now)
	if err := m.store.SaveToken(tok); err != nil {
		return "", fmt.Errorf("failed to save refreshed token: %w", err)
	}
	return tok.AccessToken, nil
}

// NewState returns a random value for the OAuth state parameter.
func NewState() string {
	return uuid.NewString()
}

// AuthCodeURL is the Bling consent page for account.
func (m *TokenManager) AuthCodeURL(account models.AccountID, state string) (string, error) {
	cfg, err := m.config(account)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state), nil
}

// Exchange trades an authorization code for a token pair and stores it.
func (m *TokenManager) Exchange(ctx context.Context, account models.AccountID, code string) error {
	cfg, err := m.config(account)
	if err != nil {
		return err
	}

	lock := m.locks[account]
	lock.Lock()
	defer lock.Unlock()

	now := m.now()
	token, err := cfg.Exchange(m.oauthContext(ctx), code)
	if err != nil {
		return fmt.Errorf("failed to exchange code for account %s: %w", account, err)
	}
	if err := m.store.SaveToken(m.toStored(account, token, now)); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	log.Info().Str("account", account.String()).Msg("Bling account connected")
	return nil
}

func (m *TokenManager) ConnectedAccounts() ([]models.AccountID, error) {
	return m.store.GetConnectedAccounts()
}

// Status reports whether account holds a token and when it last changed.
func (m *TokenManager) Status(account models.AccountID) (bool, *time.Time, error) {
	tok, err := m.store.GetToken(account)
	if err != nil {
		return false, nil, fmt.Errorf("failed to load token: %w", err)
	}
	if tok == nil {
		return false, nil, nil
	}
	return true, &tok.UpdatedAt, nil
}

func (m *TokenManager) toStored(account models.AccountID, token *oauth2.Token, now time.Time) *models.Token {
	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		log.Warn().Str("account", account.String()).Msg("Token response without expiry")
		expiresAt = now
	}
	return &models.Token{
		Account:      account,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    expiresAt,
		UpdatedAt:    now,
	}
}
