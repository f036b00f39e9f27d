package ports

import (
	"context"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/subscriber"
	"github.com/google/uuid"
)

type SubscriberRepository interface {
	Create(ctx context.Context, s *subscriber.Subscriber) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*subscriber.Subscriber, error)
	GetByEmail(ctx context.Context, userID uuid.UUID, email string) (*subscriber.Subscriber, error)
	Update(ctx context.Context, s *subscriber.Subscriber) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, filter subscriber.ListFilter) ([]*subscriber.Subscriber, error)
	Count(ctx context.Context, userID uuid.UUID) (int, error)
	MarkSynced(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error
}

type SubscriberService interface {
	ListSubscribers(ctx context.Context, userID uuid.UUID, filter subscriber.ListFilter) ([]*subscriber.Subscriber, int, error)
	CountSubscribers(ctx context.Context, userID uuid.UUID) (int, error)
	GetSubscriber(ctx context.Context, userID, id uuid.UUID) (*subscriber.Subscriber, error)
	CreateSubscriber(ctx context.Context, userID uuid.UUID, req *subscriber.CreateSubscriberRequest) (*subscriber.Subscriber, error)
	UpdateSubscriber(ctx context.Context, userID, id uuid.UUID, req *subscriber.UpdateSubscriberRequest) (*subscriber.Subscriber, error)
	DeleteSubscriber(ctx context.Context, userID, id uuid.UUID) error
	ImportSubscribers(ctx context.Context, userID uuid.UUID, req *subscriber.ImportRequest) (*subscriber.ImportResult, error)
}
