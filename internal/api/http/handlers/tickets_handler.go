package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-tracker/internal/api/dto"
	"github.com/spec-kit/helpdesk-tracker/internal/domain"
	"github.com/spec-kit/helpdesk-tracker/internal/store"
	apperrors "github.com/spec-kit/helpdesk-tracker/pkg/util"
)

// TicketsHandler exposes the ticket store over HTTP.
type TicketsHandler struct {
	store *store.TicketStore
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketStore *store.TicketStore) *TicketsHandler {
	return &TicketsHandler{store: ticketStore}
}

// ListTickets GET /tickets. Supports q (substring search) and exact-match
// category/priority/status filters; filters are mutually exclusive with q.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	var tickets []domain.Ticket
	switch {
	case c.Query("q") != "":
		tickets = h.store.Search(c.Query("q"))
	case c.Query("category") != "":
		category := domain.TicketCategory(c.Query("category"))
		if !category.Valid() {
			return apperrors.NewValidationError("unknown category", map[string]any{"category": category})
		}
		tickets = h.store.FilterByCategory(category)
	case c.Query("priority") != "":
		priority := domain.TicketPriority(c.Query("priority"))
		if !priority.Valid() {
			return apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
		}
		tickets = h.store.FilterByPriority(priority)
	case c.Query("status") != "":
		status := domain.TicketStatus(c.Query("status"))
		if !status.Valid() {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": status})
		}
		tickets = h.store.FilterByStatus(status)
	default:
		tickets = h.store.ListAll()
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.store.Create(c.UserContext(), store.TicketDraft{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Status:      req.Status,
		Author:      req.Author,
		Assignee:    req.Assignee,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.store.GetByID(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.store.Update(c.UserContext(), c.Params("id"), store.TicketPatch{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Status:      req.Status,
		Author:      req.Author,
		Assignee:    req.Assignee,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// DeleteTicket DELETE /tickets/:id. Deleting an unknown id is not an error.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	removed := h.store.Delete(c.UserContext(), c.Params("id"))
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": removed}})
}

// ChangeStatus POST /tickets/:id/status. An illegal workflow edge is a
// normal negative outcome for the caller, reported as 409.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !req.Status.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": req.Status})
	}
	ticket, allowed, err := h.store.ChangeStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.NewConflict("status transition not allowed", map[string]any{
			"status": req.Status,
		})
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ListComments GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	comments := h.store.Comments(c.Params("id"))
	return c.JSON(fiber.Map{"data": commentResponses(comments)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.store.AddComment(c.UserContext(), c.Params("id"), store.CommentDraft{
		Author:   req.Author,
		Body:     req.Body,
		Internal: req.Internal,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// ListUrgent GET /tickets/urgent.
func (h *TicketsHandler) ListUrgent(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": ticketSummaries(h.store.UrgentOpen())})
}

// GetStatistics GET /tickets/stats.
func (h *TicketsHandler) GetStatistics(c *fiber.Ctx) error {
	stats := h.store.Statistics()
	return c.JSON(fiber.Map{"data": dto.StatisticsResponse{
		Total:               stats.Total,
		ByStatus:            stats.ByStatus,
		ByPriority:          stats.ByPriority,
		ByCategory:          stats.ByCategory,
		AverageResolutionMS: stats.AverageResolutionTime.Milliseconds(),
	}})
}

func ticketSummaries(tickets []domain.Ticket) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return items
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:            ticket.ID,
		Title:         ticket.Title,
		Category:      ticket.Category,
		CategoryLabel: ticket.Category.Label(),
		CategoryColor: ticket.Category.Color(),
		Priority:      ticket.Priority,
		Status:        ticket.Status,
		Author:        ticket.Author,
		Assignee:      ticket.Assignee,
		CommentCount:  len(ticket.Comments),
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	return dto.TicketDetailResponse{
		ID:            ticket.ID,
		Title:         ticket.Title,
		Description:   ticket.Description,
		Category:      ticket.Category,
		CategoryLabel: ticket.Category.Label(),
		CategoryColor: ticket.Category.Color(),
		Priority:      ticket.Priority,
		Status:        ticket.Status,
		Transitions:   domain.TransitionsFrom(ticket.Status),
		Author:        ticket.Author,
		Assignee:      ticket.Assignee,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
		ResolvedAt:    ticket.ResolvedAt,
		Comments:      commentResponses(ticket.Comments),
	}
}

func commentResponses(comments []domain.Comment) []dto.CommentResponse {
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return items
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        comment.ID,
		TicketID:  comment.TicketID,
		Author:    comment.Author,
		Body:      comment.Body,
		Internal:  comment.Internal,
		CreatedAt: comment.CreatedAt,
	}
}
