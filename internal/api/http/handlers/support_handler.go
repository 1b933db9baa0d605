package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/cqms-io/support-center/internal/api/dto"
	"github.com/cqms-io/support-center/internal/domain"
	"github.com/cqms-io/support-center/internal/service"
	apperrors "github.com/cqms-io/support-center/pkg/util"
)

// SupportHandler manages support-side ticket and analytics endpoints.
type SupportHandler struct {
	tickets   *service.TicketService
	analytics *service.AnalyticsService
}

// NewSupportHandler constructs handler.
func NewSupportHandler(ticketService *service.TicketService, analyticsService *service.AnalyticsService) *SupportHandler {
	return &SupportHandler{tickets: ticketService, analytics: analyticsService}
}

// ListAllTickets GET /support/tickets.
func (h *SupportHandler) ListAllTickets(c *fiber.Ctx) error {
	principal, err := supportPrincipal(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListAllTickets(c.Context(), principal.Role())
	if err != nil {
		return err
	}
	items := make([]dto.SupportTicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, supportTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetStatus PATCH /support/tickets/:id/status.
func (h *SupportHandler) SetStatus(c *fiber.Ctx) error {
	principal, err := supportPrincipal(c)
	if err != nil {
		return err
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.SetStatus(c.Context(), principal.Role(), principal.Account.ID, ticketID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// SetComment PUT /support/tickets/:id/comment.
func (h *SupportHandler) SetComment(c *fiber.Ctx) error {
	principal, err := supportPrincipal(c)
	if err != nil {
		return err
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}
	var req dto.SetCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.AddComment(c.Context(), principal.Role(), principal.Account.ID, ticketID, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// GetAnalytics GET /support/analytics.
func (h *SupportHandler) GetAnalytics(c *fiber.Ctx) error {
	principal, err := supportPrincipal(c)
	if err != nil {
		return err
	}
	topN := 0
	if raw := c.Query("top"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return apperrors.NewValidationError("invalid top parameter", nil)
		}
		topN = parsed
	}

	summary, err := h.analytics.GetSummary(c.Context(), principal.Role(), topN)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

func supportTicketResponse(ticket *domain.TicketWithCustomer) dto.SupportTicketResponse {
	return dto.SupportTicketResponse{
		TicketResponse: ticketResponse(&ticket.Ticket),
		CustomerID:     ticket.CustomerID,
		CustomerName:   ticket.CustomerName,
		CompanyName:    ticket.CompanyName,
		Phone:          ticket.Phone,
	}
}
