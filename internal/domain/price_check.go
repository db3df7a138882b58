package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceCheck is the append-only job log row written once per alert per tick.
type PriceCheck struct {
	ID        string
	AlertID   string
	Price     decimal.Decimal
	Currency  string
	Provider  string
	Matched   bool
	Details   FareDetails
	CheckedAt time.Time
}
