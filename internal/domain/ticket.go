package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// ValidPriority reports whether p is a known priority.
func ValidPriority(p TicketPriority) bool {
	return p == TicketPriorityLow || p == TicketPriorityMedium || p == TicketPriorityHigh
}

// Ticket is the aggregate for customer support requests.
//
// Invariants maintained by the service and repository layers:
// ClosedAt is non-nil iff Status is CLOSED, and ReviewRating is only
// present together with ReviewText on a closed ticket.
type Ticket struct {
	ID           int64
	CustomerID   int64
	Subject      string
	Description  string
	Priority     TicketPriority
	Status       TicketStatus
	CreatedAt    time.Time
	ClosedAt     *time.Time
	Comment      *string
	ReviewText   *string
	ReviewRating *int
}

// Reviewed reports whether a complete review is present.
func (t *Ticket) Reviewed() bool {
	return t.ReviewText != nil && t.ReviewRating != nil
}

// TicketWithCustomer joins a ticket with its owner's display info for
// support-side listings and analytics.
type TicketWithCustomer struct {
	Ticket
	CustomerName string
	CompanyName  string
	Phone        string
}
