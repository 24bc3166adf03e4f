package webhook

import "time"

// Event is the JSON body posted to website endpoints.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	WebsiteID  string    `json:"website_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data,omitempty"`
}

// Endpoint is a website's registered webhook target.
type Endpoint struct {
	URL    string
	Secret string
}

// DeliveryResult describes one delivery attempt.
type DeliveryResult struct {
	StatusCode int
	Duration   time.Duration
}
