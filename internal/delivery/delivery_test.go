package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"github.com/wneessen/go-mail"
)

type fakeMailer struct {
	sent []*mail.Msg
	err  error
}

func (f *fakeMailer) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, messages...)
	return nil
}

type fakeMessaging struct {
	sendFn func(ctx context.Context, message *messaging.Message) (string, error)
}

func (f *fakeMessaging) Send(ctx context.Context, message *messaging.Message) (string, error) {
	return f.sendFn(ctx, message)
}

func testPayload() domain.Payload {
	return domain.Payload{
		AlertID:       "alert-1",
		AlertName:     "summer trip",
		Route:         "JFK-LAX",
		DepartureDate: "2026-05-01",
		ReturnDate:    "2026-05-10",
		Price:         "250.00",
		TargetPrice:   "300.00",
		Currency:      "USD",
		Provider:      "amadeus",
		Details:       domain.FareDetails{ValidatingCarrier: "AA", LastTicketingDate: "2026-04-20"},
	}
}

func TestFormatting(t *testing.T) {
	t.Parallel()

	p := testPayload()

	if got := EmailSubject(p); got != "Price Alert: JFK-LAX - Target Price Reached!" {
		t.Fatalf("EmailSubject() = %q", got)
	}
	if got := PushBody(p); got != "Target price reached for JFK-LAX! Current price: USD 250.00" {
		t.Fatalf("PushBody() = %q", got)
	}

	body, err := EmailBody(p)
	if err != nil {
		t.Fatalf("EmailBody() error = %v", err)
	}
	for _, want := range []string{"JFK-LAX", "USD 250.00", "USD 300.00", "2026-05-10", "AA", "summer trip"} {
		if !strings.Contains(body, want) {
			t.Fatalf("EmailBody() missing %q", want)
		}
	}
}

func TestEmailBodyEscapesPayload(t *testing.T) {
	t.Parallel()

	p := testPayload()
	p.AlertName = "<script>x</script>"

	body, err := EmailBody(p)
	if err != nil {
		t.Fatalf("EmailBody() error = %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Fatal("EmailBody() did not escape alert name")
	}
}

func TestSMTPEmailSenderSend(t *testing.T) {
	t.Parallel()

	mailer := &fakeMailer{}
	sender := newSMTPEmailSender("alerts@example.com", mailer)

	if err := sender.Ready(); err != nil {
		t.Fatalf("Ready() error = %v", err)
	}

	id, err := sender.Send(context.Background(), &domain.Notification{
		Channel:   domain.ChannelEmail,
		Recipient: "jane@example.com",
		Payload:   testPayload(),
	})
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}
	if id == "" {
		t.Fatal("Send() returned empty message id")
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(mailer.sent))
	}

	msg := mailer.sent[0]
	if got := msg.GetGenHeader(mail.HeaderSubject); len(got) != 1 || got[0] != "Price Alert: JFK-LAX - Target Price Reached!" {
		t.Fatalf("subject = %v", got)
	}
	rcpts, err := msg.GetRecipients()
	if err != nil {
		t.Fatalf("GetRecipients() error = %v", err)
	}
	if len(rcpts) != 1 || rcpts[0] != "jane@example.com" {
		t.Fatalf("recipients = %v, want jane@example.com", rcpts)
	}
}

func TestSMTPEmailSenderErrors(t *testing.T) {
	t.Parallel()

	unconfigured, err := NewSMTPEmailSender(SMTPConfig{Host: "smtp.gmail.com", Port: 587})
	if err != nil {
		t.Fatalf("NewSMTPEmailSender() error = %v", err)
	}
	if !errors.Is(unconfigured.Ready(), ErrEmailNotConfigured) {
		t.Fatalf("Ready() = %v, want ErrEmailNotConfigured", unconfigured.Ready())
	}
	if _, err := unconfigured.Send(context.Background(), &domain.Notification{Recipient: "a@b.c"}); !errors.Is(err, ErrEmailNotConfigured) {
		t.Fatalf("Send() error = %v, want ErrEmailNotConfigured", err)
	}

	sender := newSMTPEmailSender("alerts@example.com", &fakeMailer{})
	if _, err := sender.Send(context.Background(), &domain.Notification{Recipient: " "}); !errors.Is(err, ErrMissingRecipient) {
		t.Fatalf("Send() error = %v, want ErrMissingRecipient", err)
	}

	failing := newSMTPEmailSender("alerts@example.com", &fakeMailer{err: errors.New("535 auth failed")})
	_, err = failing.Send(context.Background(), &domain.Notification{Recipient: "jane@example.com", Payload: testPayload()})
	if err == nil || !strings.Contains(err.Error(), "535 auth failed") {
		t.Fatalf("Send() error = %v, want transport error", err)
	}
}

func TestFCMPushSenderSend(t *testing.T) {
	t.Parallel()

	var got *messaging.Message
	sender := newFCMPushSender(&fakeMessaging{sendFn: func(ctx context.Context, message *messaging.Message) (string, error) {
		got = message
		return "projects/p/messages/1", nil
	}})

	id, err := sender.Send(context.Background(), &domain.Notification{
		Channel:   domain.ChannelPush,
		Recipient: "device-token",
		Payload:   testPayload(),
	})
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}
	if id != "projects/p/messages/1" {
		t.Fatalf("Send() id = %q", id)
	}
	if got.Token != "device-token" {
		t.Fatalf("Token = %q, want device-token", got.Token)
	}
	if got.Notification.Title != PushTitle {
		t.Fatalf("Title = %q, want %q", got.Notification.Title, PushTitle)
	}
	if got.Data["route"] != "JFK-LAX" || got.Data["price"] != "250.00" {
		t.Fatalf("Data = %v, want flattened payload", got.Data)
	}
}

func TestFCMPushSenderFailsClosed(t *testing.T) {
	t.Parallel()

	sender := &FCMPushSender{}
	if !errors.Is(sender.Ready(), ErrPushNotInitialized) {
		t.Fatalf("Ready() = %v, want ErrPushNotInitialized", sender.Ready())
	}
	if _, err := sender.Send(context.Background(), &domain.Notification{Recipient: "tok"}); !errors.Is(err, ErrPushNotInitialized) {
		t.Fatalf("Send() error = %v, want ErrPushNotInitialized", err)
	}

	ready := newFCMPushSender(&fakeMessaging{sendFn: func(context.Context, *messaging.Message) (string, error) {
		return "", errors.New("registration-token-not-registered")
	}})
	if _, err := ready.Send(context.Background(), &domain.Notification{Recipient: ""}); !errors.Is(err, ErrMissingRecipient) {
		t.Fatalf("Send() error = %v, want ErrMissingRecipient", err)
	}
	if _, err := ready.Send(context.Background(), &domain.Notification{Recipient: "tok"}); err == nil {
		t.Fatal("Send() expected transport error")
	}
}

func TestNewFCMPushSenderMissingCredentialsIsSoft(t *testing.T) {
	t.Parallel()

	sender := NewFCMPushSender(context.Background(), "/nonexistent/firebase.json", nil)
	if sender == nil {
		t.Fatal("NewFCMPushSender() returned nil")
	}
	if !errors.Is(sender.Ready(), ErrPushNotInitialized) {
		t.Fatalf("Ready() = %v, want ErrPushNotInitialized", sender.Ready())
	}
}

func TestReason(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		err  error
		want string
	}{
		{err: nil, want: ""},
		{err: ErrRateLimitExceeded, want: "rate_limited"},
		{err: fmt.Errorf("wrap: %w", ErrEmailNotConfigured), want: "not_configured"},
		{err: ErrPushNotInitialized, want: "not_configured"},
		{err: ErrUnsupportedChannel, want: "unsupported_channel"},
		{err: ErrMissingRecipient, want: "missing_recipient"},
		{err: fmt.Errorf("send: %w", context.DeadlineExceeded), want: "timeout"},
		{err: errors.New("boom"), want: "transport_error"},
	}

	for _, tc := range testCases {
		if got := Reason(tc.err); got != tc.want {
			t.Fatalf("Reason(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
