package settings

import (
	"time"

	"github.com/google/uuid"
)

// Settings holds per-account sending preferences.
type Settings struct {
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	SenderName      string    `json:"sender_name" db:"sender_name"`
	SenderEmail     string    `json:"sender_email" db:"sender_email"`
	ReplyTo         string    `json:"reply_to" db:"reply_to"`
	Timezone        string    `json:"timezone" db:"timezone"`
	MailchimpListID string    `json:"mailchimp_list_id" db:"mailchimp_list_id"`
	DoubleOptIn     bool      `json:"double_opt_in" db:"double_opt_in"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Defaults returns the settings used before a user saves any.
func Defaults(userID uuid.UUID) *Settings {
	return &Settings{UserID: userID, Timezone: "UTC"}
}

type UpdateSettingsRequest struct {
	SenderName      *string `json:"sender_name,omitempty"`
	SenderEmail     *string `json:"sender_email,omitempty"`
	ReplyTo         *string `json:"reply_to,omitempty"`
	Timezone        *string `json:"timezone,omitempty"`
	MailchimpListID *string `json:"mailchimp_list_id,omitempty"`
	DoubleOptIn     *bool   `json:"double_opt_in,omitempty"`
}

// Apply copies the non-nil fields onto s.
func (r *UpdateSettingsRequest) Apply(s *Settings) {
	if r.SenderName != nil {
		s.SenderName = *r.SenderName
	}
	if r.SenderEmail != nil {
		s.SenderEmail = *r.SenderEmail
	}
	if r.ReplyTo != nil {
		s.ReplyTo = *r.ReplyTo
	}
	if r.Timezone != nil {
		s.Timezone = *r.Timezone
	}
	if r.MailchimpListID != nil {
		s.MailchimpListID = *r.MailchimpListID
	}
	if r.DoubleOptIn != nil {
		s.DoubleOptIn = *r.DoubleOptIn
	}
}
