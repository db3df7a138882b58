package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a notification.
//
// PENDING moves to SENT or FAILED exactly once. FAILED is terminal; a later
// matched check creates a new notification instead of resubmitting this one.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusFailed
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// Payload is the deterministic content of a price alert notification.
type Payload struct {
	AlertID       string      `json:"alertId"`
	AlertName     string      `json:"alertName,omitempty"`
	Route         string      `json:"route"`
	DepartureDate string      `json:"departureDate"`
	ReturnDate    string      `json:"returnDate,omitempty"`
	Price         string      `json:"price"`
	TargetPrice   string      `json:"targetPrice"`
	Currency      string      `json:"currency"`
	Provider      string      `json:"provider"`
	Details       FareDetails `json:"details"`
}

// Fields flattens the payload into string pairs for transports that only
// carry string maps.
func (p Payload) Fields() map[string]string {
	fields := map[string]string{
		"alertId":       p.AlertID,
		"route":         p.Route,
		"departureDate": p.DepartureDate,
		"price":         p.Price,
		"targetPrice":   p.TargetPrice,
		"currency":      p.Currency,
		"provider":      p.Provider,
	}
	if p.AlertName != "" {
		fields["alertName"] = p.AlertName
	}
	if p.ReturnDate != "" {
		fields["returnDate"] = p.ReturnDate
	}
	if p.Details.FareID != "" {
		fields["fareId"] = p.Details.FareID
	}
	if p.Details.ValidatingCarrier != "" {
		fields["validatingCarrier"] = p.Details.ValidatingCarrier
	}
	if p.Details.LastTicketingDate != "" {
		fields["lastTicketingDate"] = p.Details.LastTicketingDate
	}
	return fields
}

// Notification is one outbound price alert message.
type Notification struct {
	ID        string
	OwnerID   string
	AlertID   string
	RunID     string
	Channel   Channel
	Recipient string
	Payload   Payload
	Status    Status
	Attempts  int
	LastError *string
	CreatedAt time.Time
	UpdatedAt time.Time
	SentAt    *time.Time
}

func (n *Notification) Validate() error {
	if n.AlertID == "" {
		return fmt.Errorf("%w: alert id is required", ErrValidation)
	}
	if n.OwnerID == "" {
		return fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	if !n.Channel.IsValid() {
		return fmt.Errorf("%w: invalid channel %q", ErrValidation, n.Channel)
	}
	if strings.TrimSpace(n.Recipient) == "" {
		return fmt.Errorf("%w: recipient is required", ErrValidation)
	}
	return nil
}

// MarkSent records a confirmed send.
func (n *Notification) MarkSent(at time.Time) {
	n.Status = StatusSent
	n.LastError = nil
	n.SentAt = &at
	n.UpdatedAt = at
}

// MarkFailed records a failed send attempt.
func (n *Notification) MarkFailed(reason string, at time.Time) {
	n.Status = StatusFailed
	n.Attempts++
	n.LastError = &reason
	n.UpdatedAt = at
}
