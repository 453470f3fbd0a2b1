// Package events publishes non-interactive domain events (inquiry
// notifications, agent statistics updates) off the request's critical
// path. Publishing is fire-and-forget: a failure is logged and never
// affects the triggering request's outcome.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics the portal publishes to
const (
	TopicInquiries  = "listing.inquiries"
	TopicAgentStats = "listing.agent-stats"
)

// InquiryCreated is emitted when a visitor submits an inquiry for a listing
type InquiryCreated struct {
	EventID   string    `json:"event_id"`
	ListingID int64     `json:"listing_id"`
	AgentID   uint      `json:"agent_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// AgentStatsUpdated is emitted when the reconciliation job corrects an
// agent's derived counters
type AgentStatsUpdated struct {
	EventID      string    `json:"event_id"`
	AgentID      uint      `json:"agent_id"`
	ListingCount int       `json:"listing_count"`
	Rating       float64   `json:"rating"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewEventID returns a fresh event identifier
func NewEventID() string {
	return uuid.NewString()
}

// Publisher delivers an event payload to a topic
type Publisher interface {
	Publish(topic string, key string, payload interface{}) error
}
