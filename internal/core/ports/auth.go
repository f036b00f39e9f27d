package ports

import (
	"context"
	"time"

	"github.com/avatarctic/newsletter-saas/internal/core/domain/auth"
	"github.com/google/uuid"
)

// TokenService validates access tokens. Issuance is used only by the CLI and tests.
type TokenService interface {
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
	IssueToken(userID uuid.UUID, email string, ttl time.Duration) (string, error)
}
