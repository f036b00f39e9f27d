package newsletter

import (
	"time"

	"github.com/google/uuid"
)

type Newsletter struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	Subject        string     `json:"subject" db:"subject"`
	PreviewText    string     `json:"preview_text" db:"preview_text"`
	Content        string     `json:"content" db:"content"`
	Status         Status     `json:"status" db:"status"`
	ScheduledAt    *time.Time `json:"scheduled_at" db:"scheduled_at"`
	SentAt         *time.Time `json:"sent_at" db:"sent_at"`
	RecipientCount int        `json:"recipient_count" db:"recipient_count"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
)

// IsEditable reports whether content may still change.
func (n *Newsletter) IsEditable() bool {
	return n.Status == StatusDraft || n.Status == StatusScheduled
}

type CreateNewsletterRequest struct {
	Subject     string `json:"subject" validate:"required"`
	PreviewText string `json:"preview_text"`
	Content     string `json:"content" validate:"required"`
}

type UpdateNewsletterRequest struct {
	Subject     *string `json:"subject,omitempty"`
	PreviewText *string `json:"preview_text,omitempty"`
	Content     *string `json:"content,omitempty"`
}

type ScheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
}

// Stats aggregates a user's newsletters.
type Stats struct {
	Total        int     `json:"total" db:"total"`
	Drafts       int     `json:"drafts" db:"drafts"`
	Scheduled    int     `json:"scheduled" db:"scheduled"`
	Sent         int     `json:"sent" db:"sent"`
	Recipients   int     `json:"recipients" db:"recipients"`
	Opens        int     `json:"opens" db:"opens"`
	Clicks       int     `json:"clicks" db:"clicks"`
	AvgOpenRate  float64 `json:"avg_open_rate" db:"-"`
	AvgClickRate float64 `json:"avg_click_rate" db:"-"`
}

// ComputeRates fills the derived rate fields.
func (s *Stats) ComputeRates() {
	if s.Recipients == 0 {
		s.AvgOpenRate, s.AvgClickRate = 0, 0
		return
	}
	s.AvgOpenRate = float64(s.Opens) / float64(s.Recipients)
	s.AvgClickRate = float64(s.Clicks) / float64(s.Recipients)
}
