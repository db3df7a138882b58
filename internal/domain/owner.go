package domain

import "time"

// Owner is the user an alert belongs to. The engine only reads owners.
type Owner struct {
	ID        string
	Email     string
	FirstName string
	Active    bool
	CreatedAt time.Time
}

// DeviceToken is a push registration for an owner's device.
type DeviceToken struct {
	ID         string
	OwnerID    string
	Token      string
	DeviceType string
	CreatedAt  time.Time
	LastUsedAt *time.Time
}
