package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one immutable ledger row. Positive shares record a buy,
// negative shares a sell.
type Transaction struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"index;not null" json:"-"`
	Symbol     string          `gorm:"index;not null" json:"symbol"`
	Shares     int64           `gorm:"not null" json:"shares"`
	Price      decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"price"`
	Transacted time.Time       `gorm:"autoCreateTime" json:"transacted"`
}

// Holding is the derived share count for one symbol.
type Holding struct {
	Symbol string `json:"symbol"`
	Shares int64  `json:"shares"`
}
