package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseStatusFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "valid uppercase", input: "SENT", want: StatusSent},
		{name: "valid lowercase with spaces", input: " pending ", want: StatusPending},
		{name: "queue state not supported", input: "queued", wantErr: true},
		{name: "invalid", input: "unknown", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseStatusFromString(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseStatusFromString() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseStatusFromString() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseStatusFromString() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseChannelFromString(t *testing.T) {
	t.Parallel()

	got, err := ParseChannelFromString(" push ")
	if err != nil {
		t.Fatalf("ParseChannelFromString() unexpected error = %v", err)
	}
	if got != ChannelPush {
		t.Fatalf("ParseChannelFromString() = %s, want %s", got, ChannelPush)
	}
	if got.Label() != "push" {
		t.Fatalf("Label() = %s, want push", got.Label())
	}

	_, err = ParseChannelFromString("fax")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseChannelFromString() error = %v, want ErrValidation", err)
	}
}

func TestNotificationValidate(t *testing.T) {
	t.Parallel()

	base := Notification{
		OwnerID:   "owner-1",
		AlertID:   "alert-1",
		Channel:   ChannelEmail,
		Recipient: "jane@example.com",
	}

	tests := []struct {
		name    string
		mutate  func(*Notification)
		wantErr bool
	}{
		{name: "valid notification", mutate: func(n *Notification) {}},
		{name: "missing alert", mutate: func(n *Notification) { n.AlertID = "" }, wantErr: true},
		{name: "missing owner", mutate: func(n *Notification) { n.OwnerID = "" }, wantErr: true},
		{name: "blank recipient", mutate: func(n *Notification) { n.Recipient = "  " }, wantErr: true},
		{name: "unknown channel", mutate: func(n *Notification) { n.Channel = "FAX" }, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n := base
			tt.mutate(&n)

			err := n.Validate()
			if tt.wantErr && !errors.Is(err, ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestNotificationTransitions(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	sent := Notification{Status: StatusPending}
	sent.MarkSent(at)
	if sent.Status != StatusSent || sent.SentAt == nil || !sent.SentAt.Equal(at) {
		t.Fatalf("MarkSent() = %+v, want SENT at %v", sent, at)
	}
	if sent.Attempts != 0 {
		t.Fatalf("MarkSent() attempts = %d, want 0", sent.Attempts)
	}

	failed := Notification{Status: StatusPending}
	failed.MarkFailed("smtp down", at)
	if failed.Status != StatusFailed {
		t.Fatalf("MarkFailed() status = %s, want %s", failed.Status, StatusFailed)
	}
	if failed.Attempts != 1 {
		t.Fatalf("MarkFailed() attempts = %d, want 1", failed.Attempts)
	}
	if failed.LastError == nil || *failed.LastError != "smtp down" {
		t.Fatalf("MarkFailed() lastError = %v, want smtp down", failed.LastError)
	}
	if !failed.Status.IsTerminal() {
		t.Fatalf("IsTerminal() = false, want true for FAILED")
	}
}

func TestPayloadFieldsOmitsEmpty(t *testing.T) {
	t.Parallel()

	p := Payload{
		AlertID:       "alert-1",
		Route:         "JFK-LAX",
		DepartureDate: "2026-05-01",
		Price:         "250.00",
		TargetPrice:   "300.00",
		Currency:      "USD",
		Provider:      "amadeus",
		Details:       FareDetails{ValidatingCarrier: "AA"},
	}

	fields := p.Fields()
	if fields["route"] != "JFK-LAX" || fields["validatingCarrier"] != "AA" {
		t.Fatalf("Fields() = %v, want route and carrier", fields)
	}
	if _, ok := fields["returnDate"]; ok {
		t.Fatalf("Fields() includes empty returnDate")
	}
	if _, ok := fields["fareId"]; ok {
		t.Fatalf("Fields() includes empty fareId")
	}
}
