package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cqms-io/support-center/internal/domain"
	"github.com/cqms-io/support-center/internal/events"
	"github.com/cqms-io/support-center/internal/repository"
	apperrors "github.com/cqms-io/support-center/pkg/util"
)

// TicketService is the lifecycle engine: it is the only writer of ticket
// status transitions and enforces role permissions on every mutation. The
// acting role and identity are always explicit parameters, never ambient
// state.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(tickets repository.TicketRepository, dispatcher events.Dispatcher) *TicketService {
	return &TicketService{tickets: tickets, dispatcher: dispatcher}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Subject     string
	Description string
	Priority    domain.TicketPriority
}

// CreateTicket opens a new ticket for a customer. Empty subject or
// description fails validation and persists nothing.
func (s *TicketService) CreateTicket(ctx context.Context, customerID int64, input TicketCreateInput) (*domain.Ticket, error) {
	subject := strings.TrimSpace(input.Subject)
	description := strings.TrimSpace(input.Description)
	if subject == "" || description == "" {
		return nil, apperrors.NewValidationError("subject and description required", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	ticket := &domain.Ticket{
		CustomerID:  customerID,
		Subject:     subject,
		Description: description,
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    customerActor(customerID),
		Payload: events.TicketCreatedPayload{
			Subject:  ticket.Subject,
			Priority: ticket.Priority,
		},
	})
	return ticket, nil
}

// Transitions support may trigger. Closed -> Open exists too, but only as the
// customer reopen action, which is a separate operation.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusInProgress, domain.TicketStatusClosed},
	domain.TicketStatusInProgress: {domain.TicketStatusClosed},
	domain.TicketStatusClosed:     {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// SetStatus applies a status transition on behalf of a support agent. The
// update is conditional on the current status, so of two concurrent agents
// closing the same ticket exactly one succeeds and the other gets an
// invalid-transition error.
func (s *TicketService) SetStatus(ctx context.Context, actorRole domain.Role, actorAccountID, ticketID int64, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if actorRole != domain.RoleSupport {
		return nil, apperrors.NewForbidden("only support may change ticket status")
	}
	switch newStatus {
	case domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusClosed:
	default:
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewInvalidTransition("cannot transition " + string(ticket.Status) + " to " + string(newStatus))
	}

	oldStatus := ticket.Status
	closedAt, err := s.tickets.UpdateStatus(ctx, ticketID, oldStatus, newStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the race: another writer moved the ticket first.
			return nil, apperrors.NewInvalidTransition("ticket status changed concurrently")
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	ticket.Status = newStatus
	ticket.ClosedAt = closedAt

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    supportActor(actorAccountID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			ClosedAt:  closedAt,
		},
	})
	return ticket, nil
}

// AddComment overwrites the agent comment on a ticket. Only the latest
// comment is retained.
func (s *TicketService) AddComment(ctx context.Context, actorRole domain.Role, actorAccountID, ticketID int64, text string) (*domain.Ticket, error) {
	if actorRole != domain.RoleSupport {
		return nil, apperrors.NewForbidden("only support may comment on tickets")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("comment text required", nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.SetComment(ctx, ticketID, text); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	ticket.Comment = &text

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentUpdated,
		TicketID: ticket.ID,
		Actor:    supportActor(actorAccountID),
		Payload: events.TicketCommentUpdatedPayload{
			CommentPreview: stringPreview(text, 120),
		},
	})
	return ticket, nil
}

// SubmitReview records the customer's review on a closed ticket. One review
// per close-cycle: a second submission fails and leaves the first untouched.
func (s *TicketService) SubmitReview(ctx context.Context, customerID, ticketID int64, text string, rating int) (*domain.Ticket, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("review text required", nil)
	}
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": rating})
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CustomerID != customerID {
		return nil, apperrors.NewForbidden("ticket belongs to another customer")
	}
	if ticket.Status != domain.TicketStatusClosed {
		return nil, apperrors.NewForbidden("only closed tickets can be reviewed")
	}
	if ticket.ReviewText != nil {
		return nil, apperrors.NewAlreadyReviewed()
	}

	if err := s.tickets.SetReview(ctx, ticketID, customerID, text, rating); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Conditional update matched nothing: a concurrent review or
			// reopen got there first.
			return nil, apperrors.NewAlreadyReviewed()
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	ticket.ReviewText = &text
	ticket.ReviewRating = &rating

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketReviewed,
		TicketID: ticket.ID,
		Actor:    customerActor(customerID),
		Payload:  events.TicketReviewedPayload{Rating: rating},
	})
	return ticket, nil
}

// ReopenTicket moves the customer's closed ticket back to OPEN, clearing the
// closed timestamp and review fields so the next close starts a fresh review
// cycle.
func (s *TicketService) ReopenTicket(ctx context.Context, customerID, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CustomerID != customerID {
		return nil, apperrors.NewForbidden("ticket belongs to another customer")
	}
	if ticket.Status != domain.TicketStatusClosed {
		return nil, apperrors.NewInvalidTransition("only closed tickets can be reopened")
	}

	reviewCleared := ticket.ReviewText != nil
	if err := s.tickets.Reopen(ctx, ticketID, customerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidTransition("ticket status changed concurrently")
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	ticket.Status = domain.TicketStatusOpen
	ticket.ClosedAt = nil
	ticket.ReviewText = nil
	ticket.ReviewRating = nil

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketReopened,
		TicketID: ticket.ID,
		Actor:    customerActor(customerID),
		Payload:  events.TicketReopenedPayload{ReviewCleared: reviewCleared},
	})
	return ticket, nil
}

// GetTicketForCustomer fetches a single ticket ensuring ownership.
func (s *TicketService) GetTicketForCustomer(ctx context.Context, customerID, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CustomerID != customerID {
		return nil, apperrors.NewForbidden("ticket belongs to another customer")
	}
	return ticket, nil
}

// ListTicketsForCustomer returns the customer's tickets, newest created first.
func (s *TicketService) ListTicketsForCustomer(ctx context.Context, customerID int64) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return tickets, nil
}

// ListAllTickets returns every ticket joined with owner display info, newest
// created first. Support only.
func (s *TicketService) ListAllTickets(ctx context.Context, actorRole domain.Role) ([]domain.TicketWithCustomer, error) {
	if actorRole != domain.RoleSupport {
		return nil, apperrors.NewForbidden("only support may list all tickets")
	}
	tickets, err := s.tickets.ListAllWithCustomer(ctx)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return tickets, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func customerActor(customerID int64) events.Actor {
	return events.Actor{
		Role:       domain.RoleCustomer,
		CustomerID: &customerID,
	}
}

func supportActor(accountID int64) events.Actor {
	return events.Actor{
		Role:      domain.RoleSupport,
		AccountID: &accountID,
	}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
