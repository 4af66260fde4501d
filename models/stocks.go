package models

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Quote is a symbol's current name and price.
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// USD formats an amount like "$1,234.56".
func USD(amount decimal.Decimal) string {
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}
