package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/thumbgen/thumbnail-pipeline/internal/entity"
	"github.com/thumbgen/thumbnail-pipeline/internal/infrastructure"
	"github.com/thumbgen/thumbnail-pipeline/pkg/logger"
	"github.com/thumbgen/thumbnail-pipeline/pkg/types/errs"
)

// NotifyUseCase delivers the completed set to the caller-supplied
// callback. The guarantee is deliberately weak: at most one POST
// attempt per invocation, zero or more deliveries overall (transport
// redelivery may repeat the invocation). No callback, no-op.
type NotifyUseCase struct {
	sender infrastructure.WebhookSender

	logger logger.Interface
}

func New(sender infrastructure.WebhookSender, l logger.Interface) *NotifyUseCase {
	return &NotifyUseCase{
		sender: sender,
		logger: l,
	}
}

func (uc *NotifyUseCase) Notify(ctx context.Context, set *entity.ThumbnailSet) error {
	if set.CallbackURL == "" {
		uc.logger.Debug("no callback url for identity %s, skipping notification", set.Identity)

		return nil
	}

	if err := validateCallbackURL(set.CallbackURL); err != nil {
		return fmt.Errorf("NotifyUseCase - Notify: %w", err)
	}

	body, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("NotifyUseCase - Notify - json.Marshal: %w", err)
	}

	err = uc.sender.Send(ctx, set.CallbackURL, body)
	if err != nil {
		return fmt.Errorf("NotifyUseCase - Notify - uc.sender.Send: %w", err)
	}

	uc.logger.Info("notified callback for identity %s", set.Identity)

	return nil
}

func validateCallbackURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%q: %w", raw, errs.ErrBadCallbackURL)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q: %w", raw, errs.ErrBadCallbackURL)
	}

	return nil
}
