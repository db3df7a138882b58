package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCheckFrequencyMinutes = 60

// Alert is a standing watch over a route for a price at or below MaxPrice.
// Inactive alerts are never evaluated.
type Alert struct {
	ID                    string
	OwnerID               string
	Name                  string
	Departure             string
	Arrival               string
	DepartureDate         *time.Time
	ReturnDate            *time.Time
	MaxPrice              decimal.NullDecimal
	Currency              string
	Active                bool
	Channel               Channel
	CheckFrequencyMinutes int
	ProviderHint          string
	NeedsReview           bool
	ReviewReason          *string
	LastCheckedAt         *time.Time
	LastNotifiedAt        *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ValidateForCheck reports whether the alert carries every field a price
// query needs. A missing target price is not an error; it simply never matches.
func (a *Alert) ValidateForCheck() error {
	if strings.TrimSpace(a.Departure) == "" {
		return fmt.Errorf("%w: departure code is required", ErrValidation)
	}
	if strings.TrimSpace(a.Arrival) == "" {
		return fmt.Errorf("%w: arrival code is required", ErrValidation)
	}
	if a.DepartureDate == nil || a.DepartureDate.IsZero() {
		return fmt.Errorf("%w: departure date is required", ErrValidation)
	}
	return nil
}

// Route renders the route as "{departure}-{arrival}".
func (a *Alert) Route() string {
	return fmt.Sprintf("%s-%s", strings.ToUpper(strings.TrimSpace(a.Departure)), strings.ToUpper(strings.TrimSpace(a.Arrival)))
}

// IsDue reports whether the alert's own check frequency has elapsed since its
// last check.
func (a *Alert) IsDue(now time.Time) bool {
	if a.LastCheckedAt == nil {
		return true
	}
	freq := a.CheckFrequencyMinutes
	if freq <= 0 {
		freq = DefaultCheckFrequencyMinutes
	}
	return !now.Before(a.LastCheckedAt.Add(time.Duration(freq) * time.Minute))
}
