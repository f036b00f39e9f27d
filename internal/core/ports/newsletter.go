package ports

import (
	"context"
	"time"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/newsletter"
	"github.com/google/uuid"
)

type NewsletterRepository interface {
	Create(ctx context.Context, n *newsletter.Newsletter) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*newsletter.Newsletter, error)
	Update(ctx context.Context, n *newsletter.Newsletter) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, status newsletter.Status, limit, offset int) ([]*newsletter.Newsletter, error)
	Count(ctx context.Context, userID uuid.UUID, status newsletter.Status) (int, error)
	Stats(ctx context.Context, userID uuid.UUID) (*newsletter.Stats, error)
	// OwnerOf resolves the owning user of a newsletter without a user scope (tracking links).
	OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

type NewsletterService interface {
	ListNewsletters(ctx context.Context, userID uuid.UUID, status newsletter.Status, limit, offset int) ([]*newsletter.Newsletter, int, error)
	GetNewsletter(ctx context.Context, userID, id uuid.UUID) (*newsletter.Newsletter, error)
	CreateNewsletter(ctx context.Context, userID uuid.UUID, req *newsletter.CreateNewsletterRequest) (*newsletter.Newsletter, error)
	UpdateNewsletter(ctx context.Context, userID, id uuid.UUID, req *newsletter.UpdateNewsletterRequest) (*newsletter.Newsletter, error)
	DeleteNewsletter(ctx context.Context, userID, id uuid.UUID) error
	ScheduleNewsletter(ctx context.Context, userID, id uuid.UUID, at time.Time) (*newsletter.Newsletter, error)
	SendNewsletter(ctx context.Context, userID, id uuid.UUID) (*newsletter.Newsletter, error)
	GetStats(ctx context.Context, userID uuid.UUID) (*newsletter.Stats, error)
}
