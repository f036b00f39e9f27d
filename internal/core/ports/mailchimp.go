package ports

import (
	"context"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/mailchimp"
	"github.com/google/uuid"
)

// MailingListClient is the outbound marketing-list API. Every call is retried and rate limited.
type MailingListClient interface {
	Ping(ctx context.Context) error
	GetList(ctx context.Context, listID string) (*mailchimp.ListStats, error)
	BatchSubscribe(ctx context.Context, listID string, members []mailchimp.Member) (*mailchimp.BatchResult, error)
	UpsertMember(ctx context.Context, listID string, member mailchimp.Member) error
	ArchiveMember(ctx context.Context, listID, email string) error
	DefaultListID() string
}

type MailchimpService interface {
	GetStatus(ctx context.Context, userID uuid.UUID) (*mailchimp.Status, error)
	SyncSubscribers(ctx context.Context, userID uuid.UUID) (*mailchimp.SyncResult, error)
}
