package mailchimp

import "time"

// Member is a list member as the marketing-list API represents it.
type Member struct {
	EmailAddress string            `json:"email_address"`
	Status       string            `json:"status,omitempty"`
	StatusIfNew  string            `json:"status_if_new,omitempty"`
	MergeFields  map[string]string `json:"merge_fields,omitempty"`
}

type BatchError struct {
	EmailAddress string `json:"email_address"`
	Error        string `json:"error"`
	ErrorCode    string `json:"error_code"`
}

type BatchResult struct {
	TotalCreated int          `json:"total_created"`
	TotalUpdated int          `json:"total_updated"`
	ErrorCount   int          `json:"error_count"`
	Errors       []BatchError `json:"errors,omitempty"`
}

type ListStats struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	MemberCount      int     `json:"member_count"`
	UnsubscribeCount int     `json:"unsubscribe_count"`
	OpenRate         float64 `json:"open_rate"`
	ClickRate        float64 `json:"click_rate"`
}

// Status describes a user's integration health.
type Status struct {
	Connected bool       `json:"connected"`
	List      *ListStats `json:"list,omitempty"`
	Error     string     `json:"error,omitempty"`
	CheckedAt time.Time  `json:"checked_at"`
}

// SyncResult reports a full-list push.
type SyncResult struct {
	Pushed  int `json:"pushed"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}
