package bling

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/vpnda/bling-margin/pkg/models"
)

const (
	invoicesEndpoint = "/nfe"

	// invoiceTypeOutgoing selects sales invoices (NF-e de saída).
	invoiceTypeOutgoing = 1

	invoiceDetailBatchSize = 5
)

type invoiceItem struct {
	Code        string          `json:"codigo"`
	Description string          `json:"descricao"`
	Quantity    decimal.Decimal `json:"quantidade"`
	UnitPrice   decimal.Decimal `json:"valor"`
}

type invoice struct {
	ID     int64         `json:"id"`
	Number string        `json:"numero"`
	Items  []invoiceItem `json:"itens"`
}

type invoiceDetailResponse struct {
	Data invoice `json:"data"`
}

// FetchProductItemsForAccount returns the line items of every outgoing
// invoice issued in period, whatever its status. When the list endpoint
// already embeds items they are used as is; otherwise every invoice detail
// is fetched, and any failed detail fails the whole call.
func FetchProductItemsForAccount(ctx context.Context, getter Getter, account models.AccountID, period models.Period) ([]models.RawProductItem, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	first, last := period.DateRange()

	invoices, err := collectList[invoice](ctx, getter, invoicesEndpoint, Params{
		"dataEmissaoInicial": first,
		"dataEmissaoFinal":   last,
		"tipo":               invoiceTypeOutgoing,
	}, DefaultPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices for account %s: %w", account, err)
	}

	logger := log.With().Str("account", account.String()).Str("period", period.String()).Logger()

	if len(invoices) == 0 {
		logger.Info().Msg("No invoices found")
		return []models.RawProductItem{}, nil
	}

	embedded := lo.ContainsBy(invoices, func(inv invoice) bool {
		return len(inv.Items) > 0
	})
	if embedded {
		logger.Info().Int("invoices", len(invoices)).Msg("Invoice list embeds items, skipping detail lookups")
		return lo.FlatMap(invoices, func(inv invoice, _ int) []models.RawProductItem {
			return extractItems(inv.Items, account)
		}), nil
	}

	logger.Info().Int("invoices", len(invoices)).Msg("Fetching invoice details")
	details, err := MapInBatches(ctx, invoices, invoiceDetailBatchSize, func(ctx context.Context, inv invoice) ([]models.RawProductItem, error) {
		var resp invoiceDetailResponse
		if err := getter.Get(ctx, fmt.Sprintf("%s/%d", invoicesEndpoint, inv.ID), nil, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch invoice %d: %w", inv.ID, err)
		}
		return extractItems(resp.Data.Items, account), nil
	})
	if err != nil {
		return nil, err
	}

	items := lo.Flatten(details)
	if len(items) == 0 {
		logger.Warn().Int("invoices", len(invoices)).Msg("Invoices found but no items extracted")
	}
	return items, nil
}

// extractItems drops lines without a name or with a non-positive quantity.
func extractItems(lines []invoiceItem, account models.AccountID) []models.RawProductItem {
	items := make([]models.RawProductItem, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line.Description) == "" || !line.Quantity.IsPositive() {
			continue
		}
		items = append(items, models.RawProductItem{
			Name:      line.Description,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Account:   account,
		})
	}
	return items
}
