package bling

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/vpnda/bling-margin/pkg/models"
)

// Fetcher holds one Client per account. All of them go through the same
// Gate, so the request spacing holds across accounts and across concurrent
// callers of the same Fetcher.
type Fetcher struct {
	gate    *Gate
	clients map[models.AccountID]*Client
}

type FetcherConfig struct {
	BaseURL      string
	GateInterval time.Duration
	RetryDelays  []time.Duration
	Timeout      time.Duration
	HTTPClient   *http.Client
}

func NewFetcher(tokens TokenSupplier, cfg FetcherConfig) *Fetcher {
	gate := NewGate(cfg.GateInterval)

	opts := []ClientOption{WithTimeout(cfg.Timeout)}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	if cfg.RetryDelays != nil {
		opts = append(opts, WithRetryDelays(cfg.RetryDelays))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, WithHTTPClient(cfg.HTTPClient))
	}

	clients := make(map[models.AccountID]*Client, 2)
	for _, account := range models.AllAccounts() {
		clients[account] = NewClient(account, tokens, gate, opts...)
	}
	return &Fetcher{gate: gate, clients: clients}
}

func (f *Fetcher) Client(account models.AccountID) *Client {
	return f.clients[account]
}

// FetchAllPaidBills fetches the accounts one after another and returns every
// bill sorted by payment date, newest first.
func (f *Fetcher) FetchAllPaidBills(ctx context.Context, accounts []models.AccountID, period models.Period) ([]models.PaidBill, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	start := time.Now()

	all := []models.PaidBill{}
	for _, account := range lo.Uniq(accounts) {
		client, ok := f.clients[account]
		if !ok {
			return nil, models.ErrInvalidAccount
		}
		bills, err := FetchPaidBillsForAccount(ctx, client, account, period)
		if err != nil {
			return nil, err
		}
		all = append(all, bills...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PaymentDate > all[j].PaymentDate
	})

	log.Info().
		Str("run", runID).
		Str("period", period.String()).
		Int("bills", len(all)).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched paid bills")
	return all, nil
}

// FetchAllProductItems fetches the accounts concurrently. Results are
// concatenated in the order accounts were given.
func (f *Fetcher) FetchAllProductItems(ctx context.Context, accounts []models.AccountID, period models.Period) ([]models.RawProductItem, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	accounts = lo.Uniq(accounts)
	for _, account := range accounts {
		if _, ok := f.clients[account]; !ok {
			return nil, models.ErrInvalidAccount
		}
	}
	runID := uuid.NewString()
	start := time.Now()

	perAccount := make([][]models.RawProductItem, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	for i, account := range accounts {
		g.Go(func() error {
			items, err := FetchProductItemsForAccount(gctx, f.clients[account], account, period)
			if err != nil {
				return err
			}
			perAccount[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := lo.Flatten(perAccount)
	log.Info().
		Str("run", runID).
		Str("period", period.String()).
		Int("items", len(items)).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched invoice items")
	return items, nil
}
