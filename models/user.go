package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Username     string          `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string          `gorm:"column:hash;not null" json:"-"`
	Cash         decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"cash"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Identity is the logged-in user a request acts for.
type Identity struct {
	UserID    uint
	Username  string
	SessionID string
}
