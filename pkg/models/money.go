package models

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// plainBRL renders pt-BR numbers without the currency symbol ("1.234,56").
var plainBRL = money.NewFormatter(2, ",", ".", "", "1")

func toCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// ToMoney converts a decimal amount in reais to go-money.
func ToMoney(d decimal.Decimal) *money.Money {
	return money.New(toCents(d), money.BRL)
}

// DisplayBRL formats an amount as "R$1.234,56".
func DisplayBRL(d decimal.Decimal) string {
	return ToMoney(d).Display()
}

// FormatNumberBR formats an amount as "1.234,56".
func FormatNumberBR(d decimal.Decimal) string {
	return plainBRL.Format(toCents(d))
}
