package analytics

import (
	"time"

	"github.com/google/uuid"
)

// Period selects the growth window.
type Period string

const (
	Period7Days  Period = "7d"
	Period30Days Period = "30d"
	Period90Days Period = "90d"
	PeriodYear   Period = "1y"
)

// Days returns the length of the period and whether it is known.
func (p Period) Days() (int, bool) {
	switch p {
	case Period7Days:
		return 7, true
	case Period30Days:
		return 30, true
	case Period90Days:
		return 90, true
	case PeriodYear:
		return 365, true
	default:
		return 0, false
	}
}

type GrowthPoint struct {
	Date         time.Time `json:"date" db:"day"`
	Subscribed   int       `json:"subscribed" db:"subscribed"`
	Unsubscribed int       `json:"unsubscribed" db:"unsubscribed"`
	Total        int       `json:"total" db:"-"`
}

type Growth struct {
	Period Period        `json:"period"`
	Points []GrowthPoint `json:"points"`
}

type Engagement struct {
	NewslettersSent int     `json:"newsletters_sent" db:"newsletters_sent"`
	Recipients      int     `json:"recipients" db:"recipients"`
	Opens           int     `json:"opens" db:"opens"`
	Clicks          int     `json:"clicks" db:"clicks"`
	OpenRate        float64 `json:"open_rate" db:"-"`
	ClickRate       float64 `json:"click_rate" db:"-"`
}

type EventType string

const (
	EventOpen  EventType = "open"
	EventClick EventType = "click"
)

type Event struct {
	ID           uuid.UUID `json:"id" db:"id"`
	NewsletterID uuid.UUID `json:"newsletter_id" db:"newsletter_id"`
	SubscriberID uuid.UUID `json:"subscriber_id" db:"subscriber_id"`
	Type         EventType `json:"type" db:"type"`
	URL          string    `json:"url,omitempty" db:"url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
