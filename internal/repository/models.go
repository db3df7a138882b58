package repository

import (
	"time"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OwnerModel is the persistence model for the owners table.
type OwnerModel struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Email     string `gorm:"type:varchar(255);not null;uniqueIndex"`
	FirstName string `gorm:"type:varchar(100)"`
	Active    bool   `gorm:"not null"`
	CreatedAt time.Time
}

func (OwnerModel) TableName() string {
	return "owners"
}

// DeviceTokenModel is the persistence model for device_tokens.
type DeviceTokenModel struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	OwnerID    string `gorm:"type:uuid;not null"`
	Token      string `gorm:"type:varchar(512);not null;uniqueIndex"`
	DeviceType string `gorm:"type:varchar(20)"`
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

func (DeviceTokenModel) TableName() string {
	return "device_tokens"
}

// AlertModel is the persistence model for the alerts table.
type AlertModel struct {
	ID                    string              `gorm:"type:uuid;primaryKey"`
	OwnerID               string              `gorm:"type:uuid;not null"`
	Name                  string              `gorm:"type:varchar(100)"`
	Departure             string              `gorm:"type:varchar(3);not null"`
	Arrival               string              `gorm:"type:varchar(3);not null"`
	DepartureDate         *time.Time          `gorm:"type:date"`
	ReturnDate            *time.Time          `gorm:"type:date"`
	MaxPrice              decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	Currency              string              `gorm:"type:varchar(3);not null;default:'USD'"`
	Active                bool                `gorm:"not null"`
	Channel               domain.Channel      `gorm:"type:varchar(10);not null;default:'EMAIL'"`
	CheckFrequencyMinutes int                 `gorm:"not null;default:60"`
	ProviderHint          string              `gorm:"type:varchar(50)"`
	NeedsReview           bool                `gorm:"not null;default:false"`
	ReviewReason          *string             `gorm:"type:text"`
	LastCheckedAt         *time.Time
	LastNotifiedAt        *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (AlertModel) TableName() string {
	return "alerts"
}

// PriceCheckModel is the persistence model for the append-only price_checks log.
type PriceCheckModel struct {
	ID        string                                 `gorm:"type:uuid;primaryKey"`
	AlertID   string                                 `gorm:"type:uuid;not null"`
	Price     decimal.Decimal                        `gorm:"type:numeric(12,2);not null"`
	Currency  string                                 `gorm:"type:varchar(3);not null"`
	Provider  string                                 `gorm:"type:varchar(50);not null"`
	Matched   bool                                   `gorm:"not null"`
	Details   datatypes.JSONType[domain.FareDetails] `gorm:"not null"`
	CheckedAt time.Time                              `gorm:"not null"`
}

func (PriceCheckModel) TableName() string {
	return "price_checks"
}

// NotificationModel is the persistence model for the notifications table.
type NotificationModel struct {
	ID        string                             `gorm:"type:uuid;primaryKey"`
	OwnerID   string                             `gorm:"type:uuid;not null"`
	AlertID   string                             `gorm:"type:uuid;not null"`
	RunID     string                             `gorm:"type:varchar(36)"`
	Channel   domain.Channel                     `gorm:"type:varchar(10);not null"`
	Recipient string                             `gorm:"type:varchar(512);not null"`
	Payload   datatypes.JSONType[domain.Payload] `gorm:"not null"`
	Status    domain.Status                      `gorm:"type:varchar(20);not null"`
	Attempts  int                                `gorm:"not null;default:0"`
	LastError *string                            `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
	SentAt    *time.Time
}

func (NotificationModel) TableName() string {
	return "notifications"
}

// DeliveryAttemptModel is the persistence model for delivery_attempts.
type DeliveryAttemptModel struct {
	ID                string         `gorm:"type:uuid;primaryKey"`
	NotificationID    string         `gorm:"type:uuid;not null"`
	AttemptNumber     int            `gorm:"not null"`
	Channel           domain.Channel `gorm:"type:varchar(10);not null"`
	Error             *string        `gorm:"type:text"`
	ProviderMessageID *string        `gorm:"type:varchar(255)"`
	CreatedAt         time.Time
}

func (DeliveryAttemptModel) TableName() string {
	return "delivery_attempts"
}

// JobRunModel is the persistence model for job_runs.
type JobRunModel struct {
	ID          string              `gorm:"type:uuid;primaryKey"`
	StartedAt   time.Time           `gorm:"not null"`
	FinishedAt  *time.Time
	Status      domain.JobRunStatus `gorm:"type:varchar(20);not null"`
	AlertsTotal int                 `gorm:"not null;default:0"`
	Checked     int                 `gorm:"not null;default:0"`
	Matched     int                 `gorm:"not null;default:0"`
	Notified    int                 `gorm:"not null;default:0"`
	SendFailed  int                 `gorm:"not null;default:0"`
	Skipped     int                 `gorm:"not null;default:0"`
	Errors      int                 `gorm:"not null;default:0"`
}

func (JobRunModel) TableName() string {
	return "job_runs"
}

func ownerModelToDomain(m *OwnerModel) *domain.Owner {
	if m == nil {
		return nil
	}

	return &domain.Owner{
		ID:        m.ID,
		Email:     m.Email,
		FirstName: m.FirstName,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
	}
}

func deviceTokenModelToDomain(m *DeviceTokenModel) *domain.DeviceToken {
	if m == nil {
		return nil
	}

	return &domain.DeviceToken{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		Token:      m.Token,
		DeviceType: m.DeviceType,
		CreatedAt:  m.CreatedAt,
		LastUsedAt: m.LastUsedAt,
	}
}

func alertModelFromDomain(a *domain.Alert) *AlertModel {
	if a == nil {
		return nil
	}

	return &AlertModel{
		ID:                    a.ID,
		OwnerID:               a.OwnerID,
		Name:                  a.Name,
		Departure:             a.Departure,
		Arrival:               a.Arrival,
		DepartureDate:         a.DepartureDate,
		ReturnDate:            a.ReturnDate,
		MaxPrice:              a.MaxPrice,
		Currency:              a.Currency,
		Active:                a.Active,
		Channel:               a.Channel,
		CheckFrequencyMinutes: a.CheckFrequencyMinutes,
		ProviderHint:          a.ProviderHint,
		NeedsReview:           a.NeedsReview,
		ReviewReason:          a.ReviewReason,
		LastCheckedAt:         a.LastCheckedAt,
		LastNotifiedAt:        a.LastNotifiedAt,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
}

func alertModelToDomain(m *AlertModel) *domain.Alert {
	if m == nil {
		return nil
	}

	return &domain.Alert{
		ID:                    m.ID,
		OwnerID:               m.OwnerID,
		Name:                  m.Name,
		Departure:             m.Departure,
		Arrival:               m.Arrival,
		DepartureDate:         m.DepartureDate,
		ReturnDate:            m.ReturnDate,
		MaxPrice:              m.MaxPrice,
		Currency:              m.Currency,
		Active:                m.Active,
		Channel:               m.Channel,
		CheckFrequencyMinutes: m.CheckFrequencyMinutes,
		ProviderHint:          m.ProviderHint,
		NeedsReview:           m.NeedsReview,
		ReviewReason:          m.ReviewReason,
		LastCheckedAt:         m.LastCheckedAt,
		LastNotifiedAt:        m.LastNotifiedAt,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

func priceCheckModelFromDomain(p *domain.PriceCheck) *PriceCheckModel {
	if p == nil {
		return nil
	}

	return &PriceCheckModel{
		ID:        p.ID,
		AlertID:   p.AlertID,
		Price:     p.Price,
		Currency:  p.Currency,
		Provider:  p.Provider,
		Matched:   p.Matched,
		Details:   datatypes.NewJSONType(p.Details),
		CheckedAt: p.CheckedAt,
	}
}

func priceCheckModelToDomain(m *PriceCheckModel) *domain.PriceCheck {
	if m == nil {
		return nil
	}

	return &domain.PriceCheck{
		ID:        m.ID,
		AlertID:   m.AlertID,
		Price:     m.Price,
		Currency:  m.Currency,
		Provider:  m.Provider,
		Matched:   m.Matched,
		Details:   m.Details.Data(),
		CheckedAt: m.CheckedAt,
	}
}

func notificationModelFromDomain(n *domain.Notification) *NotificationModel {
	if n == nil {
		return nil
	}

	return &NotificationModel{
		ID:        n.ID,
		OwnerID:   n.OwnerID,
		AlertID:   n.AlertID,
		RunID:     n.RunID,
		Channel:   n.Channel,
		Recipient: n.Recipient,
		Payload:   datatypes.NewJSONType(n.Payload),
		Status:    n.Status,
		Attempts:  n.Attempts,
		LastError: n.LastError,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		SentAt:    n.SentAt,
	}
}

func notificationModelToDomain(m *NotificationModel) *domain.Notification {
	if m == nil {
		return nil
	}

	return &domain.Notification{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		AlertID:   m.AlertID,
		RunID:     m.RunID,
		Channel:   m.Channel,
		Recipient: m.Recipient,
		Payload:   m.Payload.Data(),
		Status:    m.Status,
		Attempts:  m.Attempts,
		LastError: m.LastError,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		SentAt:    m.SentAt,
	}
}

func attemptModelFromDomain(a *domain.DeliveryAttempt) *DeliveryAttemptModel {
	if a == nil {
		return nil
	}

	return &DeliveryAttemptModel{
		ID:                a.ID,
		NotificationID:    a.NotificationID,
		AttemptNumber:     a.AttemptNumber,
		Channel:           a.Channel,
		Error:             a.Error,
		ProviderMessageID: a.ProviderMessageID,
		CreatedAt:         a.CreatedAt,
	}
}

func attemptModelToDomain(m *DeliveryAttemptModel) *domain.DeliveryAttempt {
	if m == nil {
		return nil
	}

	return &domain.DeliveryAttempt{
		ID:                m.ID,
		NotificationID:    m.NotificationID,
		AttemptNumber:     m.AttemptNumber,
		Channel:           m.Channel,
		Error:             m.Error,
		ProviderMessageID: m.ProviderMessageID,
		CreatedAt:         m.CreatedAt,
	}
}

func jobRunModelFromDomain(r *domain.JobRun) *JobRunModel {
	if r == nil {
		return nil
	}

	return &JobRunModel{
		ID:          r.ID,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Status:      r.Status,
		AlertsTotal: r.AlertsTotal,
		Checked:     r.Checked,
		Matched:     r.Matched,
		Notified:    r.Notified,
		SendFailed:  r.SendFailed,
		Skipped:     r.Skipped,
		Errors:      r.Errors,
	}
}

func jobRunModelToDomain(m *JobRunModel) *domain.JobRun {
	if m == nil {
		return nil
	}

	return &domain.JobRun{
		ID:          m.ID,
		StartedAt:   m.StartedAt,
		FinishedAt:  m.FinishedAt,
		Status:      m.Status,
		AlertsTotal: m.AlertsTotal,
		Checked:     m.Checked,
		Matched:     m.Matched,
		Notified:    m.Notified,
		SendFailed:  m.SendFailed,
		Skipped:     m.Skipped,
		Errors:      m.Errors,
	}
}
