package bling

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpnda/bling-margin/pkg/models"
)

// perAccountTokens fails for the accounts listed in missing.
type perAccountTokens struct {
	missing map[models.AccountID]bool
}

func (p *perAccountTokens) GetValidToken(_ context.Context, account models.AccountID) (string, error) {
	if p.missing[account] {
		return "", errors.New("not connected")
	}
	return "token-" + account.String(), nil
}

func newTestFetcher(upstream *fakeUpstream, tokens TokenSupplier) *Fetcher {
	return NewFetcher(tokens, FetcherConfig{
		BaseURL:     upstream.URL,
		RetryDelays: []time.Duration{time.Millisecond},
	})
}

func TestFetchAllPaidBillsMergesAndSorts(t *testing.T) {
	upstream := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		account := accountOf(r)
		switch r.URL.Path {
		case "/contas/pagar":
			if account == "1" {
				writeJSON(w, listOf(billItem(5, 2, "2026-01-10", 100), billItem(6, 2, "2026-01-02", 40)))
			} else {
				writeJSON(w, listOf(billItem(5, 2, "2026-01-20", 70)))
			}
		default:
			writeJSON(w, detailOf(map[string]any{"historico": "Conta " + account}))
		}
	})

	bills, err := newTestFetcher(upstream, &fakeTokens{}).FetchAllPaidBills(context.Background(), models.AllAccounts(), testPeriod)
	require.NoError(t, err)

	assert.Equal(t, []string{"5-2", "5-1", "6-1"}, lo.Map(bills, func(b models.PaidBill, _ int) string { return b.ID }))
	assert.Equal(t, []string{"2026-01-20", "2026-01-10", "2026-01-02"}, lo.Map(bills, func(b models.PaidBill, _ int) string { return b.PaymentDate }))
	assert.Equal(t, "Conta 2", bills[0].Description)
}

func TestFetchAllPaidBillsSurfacesCredentialError(t *testing.T) {
	upstream := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, listOf())
	})

	fetcher := newTestFetcher(upstream, &perAccountTokens{missing: map[models.AccountID]bool{models.Account2: true}})
	_, err := fetcher.FetchAllPaidBills(context.Background(), models.AllAccounts(), testPeriod)

	var credErr *CredentialError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, models.Account2, credErr.Account)
}

func TestFetchAllProductItemsKeepsAccountOrder(t *testing.T) {
	upstream := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		account := accountOf(r)
		if account == "1" {
			// account 1 answers last
			time.Sleep(20 * time.Millisecond)
		}
		writeJSON(w, listOf(map[string]any{"id": 1, "itens": []any{invoiceLine("Produto "+account, 1, 10)}}))
	})

	items, err := newTestFetcher(upstream, &fakeTokens{}).FetchAllProductItems(context.Background(), models.AllAccounts(), testPeriod)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "Produto 1", items[0].Name)
	assert.Equal(t, models.Account1, items[0].Account)
	assert.Equal(t, "Produto 2", items[1].Name)
	assert.Equal(t, models.Account2, items[1].Account)
}

func TestFetcherRejectsInvalidInput(t *testing.T) {
	upstream := newFakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, listOf())
	})
	fetcher := newTestFetcher(upstream, &fakeTokens{})

	_, err := fetcher.FetchAllProductItems(context.Background(), models.AllAccounts(), models.Period{Month: 0, Year: 2026})
	assert.ErrorIs(t, err, models.ErrInvalidPeriod)

	_, err = fetcher.FetchAllPaidBills(context.Background(), []models.AccountID{3}, testPeriod)
	assert.ErrorIs(t, err, models.ErrInvalidAccount)

	assert.Equal(t, 0, upstream.hitsFor("/nfe"))
	assert.Equal(t, 0, upstream.hitsFor("/contas/pagar"))
}

func TestFetcherClientsShareOneGate(t *testing.T) {
	fetcher := NewFetcher(&fakeTokens{}, FetcherConfig{GateInterval: time.Second})
	assert.Same(t, fetcher.Client(models.Account1).gate, fetcher.Client(models.Account2).gate)
	assert.Equal(t, models.Account2, fetcher.Client(models.Account2).Account())
}
