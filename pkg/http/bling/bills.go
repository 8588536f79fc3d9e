package bling

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/vpnda/bling-margin/pkg/models"
)

const (
	billsEndpoint = "/contas/pagar"

	// billStatusPaid is the situacao code of a settled bill.
	billStatusPaid = 2

	billDetailBatchSize = 2
)

type billListItem struct {
	ID      int64           `json:"id"`
	Status  int             `json:"situacao"`
	DueDate string          `json:"vencimento"`
	Amount  decimal.Decimal `json:"valor"`
}

type billDetail struct {
	ID             int64  `json:"id"`
	History        string `json:"historico"`
	DocumentNumber string `json:"numeroDocumento"`
	Contact        *struct {
		Name string `json:"nome"`
	} `json:"contato"`
}

type billDetailResponse struct {
	Data billDetail `json:"data"`
}

// FetchPaidBillsForAccount lists the bills issued in period and returns the
// paid ones, enriched with description and supplier from the detail
// endpoint. A detail lookup that fails only degrades the description; the
// bill is still returned.
func FetchPaidBillsForAccount(ctx context.Context, getter Getter, account models.AccountID, period models.Period) ([]models.PaidBill, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	first, last := period.DateRange()

	all, err := collectList[billListItem](ctx, getter, billsEndpoint, Params{
		"dataEmissaoInicial": first,
		"dataEmissaoFinal":   last,
	}, DefaultPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills for account %s: %w", account, err)
	}

	paid := lo.Filter(all, func(item billListItem, _ int) bool {
		return item.Status == billStatusPaid && item.Amount.IsPositive()
	})

	log.Info().
		Str("account", account.String()).
		Str("period", period.String()).
		Int("total", len(all)).
		Int("paid", len(paid)).
		Msg("Listed bills")

	if len(paid) == 0 {
		return []models.PaidBill{}, nil
	}

	return MapInBatches(ctx, paid, billDetailBatchSize, func(ctx context.Context, item billListItem) (models.PaidBill, error) {
		var detail *billDetail
		var resp billDetailResponse
		if err := getter.Get(ctx, fmt.Sprintf("%s/%d", billsEndpoint, item.ID), nil, &resp); err != nil {
			if ctx.Err() != nil {
				return models.PaidBill{}, ctx.Err()
			}
			log.Warn().Err(err).
				Str("account", account.String()).
				Int64("bill", item.ID).
				Msg("Bill detail unavailable, using fallback description")
		} else {
			detail = &resp.Data
		}
		return toPaidBill(item, detail, account), nil
	})
}

func toPaidBill(item billListItem, detail *billDetail, account models.AccountID) models.PaidBill {
	description := fmt.Sprintf("Conta #%d", item.ID)
	supplier := ""
	if detail != nil {
		description = lo.CoalesceOrEmpty(detail.History, detail.DocumentNumber, description)
		if detail.Contact != nil {
			supplier = detail.Contact.Name
		}
	}
	return models.PaidBill{
		ID:          models.BillID(item.ID, account),
		Description: description,
		Amount:      item.Amount,
		PaymentDate: item.DueDate,
		Account:     account,
		Supplier:    supplier,
	}
}
