package dto

import (
	"time"

	"github.com/cqms-io/support-center/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// SetStatusRequest payload for support status changes.
type SetStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// SetCommentRequest payload for the single agent comment.
type SetCommentRequest struct {
	Comment string `json:"comment"`
}

// SubmitReviewRequest payload.
type SubmitReviewRequest struct {
	Text   string `json:"text"`
	Rating int    `json:"rating"`
}

// TicketResponse is the customer-facing ticket view.
type TicketResponse struct {
	ID           int64                 `json:"id"`
	Subject      string                `json:"subject"`
	Description  string                `json:"description"`
	Priority     domain.TicketPriority `json:"priority"`
	Status       domain.TicketStatus   `json:"status"`
	CreatedAt    time.Time             `json:"created_at"`
	ClosedAt     *time.Time            `json:"closed_at,omitempty"`
	Comment      *string               `json:"comment,omitempty"`
	ReviewText   *string               `json:"review_text,omitempty"`
	ReviewRating *int                  `json:"review_rating,omitempty"`
}

// SupportTicketResponse joins the ticket with owner display info for the
// support listing.
type SupportTicketResponse struct {
	TicketResponse
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	CompanyName  string `json:"company_name"`
	Phone        string `json:"phone"`
}
