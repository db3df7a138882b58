package domain

import "time"

// DeliveryAttempt records a single dispatch attempt for a notification.
type DeliveryAttempt struct {
	ID                string
	NotificationID    string
	AttemptNumber     int
	Channel           Channel
	Error             *string
	ProviderMessageID *string
	CreatedAt         time.Time
}
