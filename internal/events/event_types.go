package events

import (
	"time"

	"github.com/cqms-io/support-center/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventTicketStatusChanged  EventType = "ticket_status_changed"
	EventTicketCommentUpdated EventType = "ticket_comment_updated"
	EventTicketReviewed       EventType = "ticket_reviewed"
	EventTicketReopened       EventType = "ticket_reopened"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Role       domain.Role `json:"role"`
	AccountID  *int64      `json:"account_id,omitempty"`
	CustomerID *int64      `json:"customer_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Subject  string                `json:"subject"`
	Priority domain.TicketPriority `json:"priority"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	ClosedAt  *time.Time          `json:"closed_at,omitempty"`
}

// TicketCommentUpdatedPayload payload.
type TicketCommentUpdatedPayload struct {
	CommentPreview string `json:"comment_preview"`
}

// TicketReviewedPayload payload.
type TicketReviewedPayload struct {
	Rating int `json:"rating"`
}

// TicketReopenedPayload payload.
type TicketReopenedPayload struct {
	ReviewCleared bool `json:"review_cleared"`
}
