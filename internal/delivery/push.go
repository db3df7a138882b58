package delivery

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// messagingClient is the part of *messaging.Client the sender needs.
type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

var _ Sender = (*FCMPushSender)(nil)

// FCMPushSender delivers price alerts through Firebase Cloud Messaging. If
// the backend failed to initialize, every send fails closed with
// ErrPushNotInitialized.
type FCMPushSender struct {
	client messagingClient
}

// NewFCMPushSender initializes Firebase from a service account file. An
// initialization failure is logged and yields a sender that is not ready;
// it never aborts startup.
func NewFCMPushSender(ctx context.Context, credentialsFile string, logger *zap.Logger) *FCMPushSender {
	if logger == nil {
		logger = zap.NewNop()
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		logger.Error("firebase initialization failed, push disabled",
			zap.String("credentialsFile", credentialsFile),
			zap.Error(err),
		)
		return &FCMPushSender{}
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		logger.Error("firebase messaging initialization failed, push disabled", zap.Error(err))
		return &FCMPushSender{}
	}

	logger.Info("firebase messaging initialized")
	return newFCMPushSender(client)
}

func newFCMPushSender(client messagingClient) *FCMPushSender {
	return &FCMPushSender{client: client}
}

func (s *FCMPushSender) Channel() domain.Channel { return domain.ChannelPush }

func (s *FCMPushSender) Ready() error {
	if s == nil || s.client == nil {
		return ErrPushNotInitialized
	}
	return nil
}

func (s *FCMPushSender) Send(ctx context.Context, n *domain.Notification) (string, error) {
	if err := s.Ready(); err != nil {
		return "", err
	}
	token := strings.TrimSpace(n.Recipient)
	if token == "" {
		return "", ErrMissingRecipient
	}

	id, err := s.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: PushTitle,
			Body:  PushBody(n.Payload),
		},
		Data: n.Payload.Fields(),
	})
	if err != nil {
		return "", fmt.Errorf("fcm send failed: %w", err)
	}
	return id, nil
}
