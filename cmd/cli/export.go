package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vpnda/bling-margin/pkg/models"
)

// utf8BOM makes spreadsheet apps in pt-BR locales detect the encoding.
const utf8BOM = "\uFEFF"

var monthNames = []string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// ExportFileName is resultado-<mês>-<ano>.csv, e.g. resultado-março-2026.csv.
func ExportFileName(period models.Period) string {
	label := fmt.Sprintf("%s %d", monthNames[period.Month-1], period.Year)
	return "resultado-" + strings.Join(strings.Fields(strings.ToLower(label)), "-") + ".csv"
}

func sortedByMargin(products []models.ProductMargin) []models.ProductMargin {
	sorted := slices.Clone(products)
	slices.SortStableFunc(sorted, func(a, b models.ProductMargin) int {
		return b.TotalMargin.Cmp(a.TotalMargin)
	})
	return sorted
}

// WriteResultCSV writes the monthly result as a ';' separated sheet with
// pt-BR number formatting, products sorted by total margin.
func WriteResultCSV(w io.Writer, result *models.CalculationResult) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("error writing csv: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	rows := [][]string{{
		"Produto",
		"Qtd Vendida",
		"Preço Médio (R$)",
		"Imposto (R$)",
		"CMV Unit. (R$)",
		"MC Unit. (R$)",
		"MC Total (R$)",
	}}
	for _, p := range sortedByMargin(result.Products) {
		rows = append(rows, []string{
			p.Name,
			p.Quantity.String(),
			models.FormatNumberBR(p.SalePrice),
			models.FormatNumberBR(p.TaxPerUnit),
			models.FormatNumberBR(p.UnitCost),
			models.FormatNumberBR(p.UnitMargin),
			models.FormatNumberBR(p.TotalMargin),
		})
	}

	s := result.Summary
	summary := func(label string, value decimal.Decimal) []string {
		return []string{label, "", "", "", "", "", models.FormatNumberBR(value)}
	}
	rows = append(rows,
		[]string{},
		[]string{"Resumo do Período"},
		summary("Receita Total", s.Revenue),
		summary("Total de Impostos", s.Taxes),
		summary("Total CMV", s.ProductCost),
		summary("Total Despesas", s.Expenses),
		summary("Resultado Operacional", s.OperationalResult),
	)

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("error writing csv: %w", err)
	}
	return nil
}
