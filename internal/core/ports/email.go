package ports

import (
	"context"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/newsletter"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/settings"
	"github.com/avatarctic/newsletter-saas/internal/core/domain/subscriber"
)

// EmailService delivers newsletters to recipients.
type EmailService interface {
	// SendNewsletter returns how many recipients were accepted by the provider.
	SendNewsletter(ctx context.Context, sender *settings.Settings, n *newsletter.Newsletter, recipients []*subscriber.Subscriber) (int, error)
}
