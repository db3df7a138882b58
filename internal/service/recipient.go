package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"github.com/kursadbilgin/fare-alert-engine/internal/repository"
	"go.uber.org/zap"
)

// Recipient is a resolved delivery target. Channel may differ from the
// alert's preferred channel when the resolver fell back to email.
type Recipient struct {
	Channel domain.Channel
	Address string
}

type RecipientResolver struct {
	owners repository.OwnerRepository
	logger *zap.Logger
}

func NewRecipientResolver(owners repository.OwnerRepository, logger *zap.Logger) (*RecipientResolver, error) {
	if owners == nil {
		return nil, fmt.Errorf("owner repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipientResolver{owners: owners, logger: logger}, nil
}

// Resolve picks where to deliver. Push uses the owner's most recently used
// device token; push without a token, and every other channel, falls back to
// the owner's email. A nil Recipient means there is nowhere to send.
func (r *RecipientResolver) Resolve(ctx context.Context, alert *domain.Alert, owner *domain.Owner, channel domain.Channel) (*Recipient, error) {
	if owner == nil {
		return nil, nil
	}

	if channel == domain.ChannelPush {
		token, err := r.owners.LatestDeviceToken(ctx, owner.ID)
		switch {
		case err == nil && strings.TrimSpace(token.Token) != "":
			return &Recipient{Channel: domain.ChannelPush, Address: token.Token}, nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("failed to look up device token: %w", err)
		}

		r.logger.Info("no device token, falling back to email",
			zap.String("alertId", alert.ID),
			zap.String("ownerId", owner.ID),
		)
	}

	if email := strings.TrimSpace(owner.Email); email != "" {
		return &Recipient{Channel: domain.ChannelEmail, Address: email}, nil
	}
	return nil, nil
}
