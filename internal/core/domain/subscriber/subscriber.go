package subscriber

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Subscriber struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	Email           string    `json:"email" db:"email"`
	FirstName       string    `json:"first_name" db:"first_name"`
	LastName        string    `json:"last_name" db:"last_name"`
	Status          Status    `json:"status" db:"status"`
	Source          string    `json:"source" db:"source"`
	MailchimpSynced bool      `json:"mailchimp_synced" db:"mailchimp_synced"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusSubscribed   Status = "subscribed"
	StatusUnsubscribed Status = "unsubscribed"
	StatusPending      Status = "pending"
	StatusCleaned      Status = "cleaned"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusSubscribed, StatusUnsubscribed, StatusPending, StatusCleaned:
		return true
	default:
		return false
	}
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateSubscriberRequest represents the request to add a subscriber
type CreateSubscriberRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Source    string `json:"source"`
}

// UpdateSubscriberRequest represents the request to update a subscriber
type UpdateSubscriberRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Status    *Status `json:"status,omitempty"`
}

// ImportRequest carries a bulk import of subscribers.
type ImportRequest struct {
	Subscribers []CreateSubscriberRequest `json:"subscribers" validate:"required"`
}

type ImportResult struct {
	Created  int      `json:"created"`
	Skipped  int      `json:"skipped"`
	Synced   int      `json:"synced"`
	Failures []string `json:"failures,omitempty"`
}

// ListFilter narrows a subscriber listing.
type ListFilter struct {
	Status Status
	Search string
	Limit  int
	Offset int
}
