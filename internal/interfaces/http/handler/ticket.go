package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appqueue "github.com/smartqueue/backend/internal/application/queue"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/shared"
)

// TicketService issues and moves tickets through their lifecycle
type TicketService interface {
	TakeTicket(ctx context.Context, actor identity.Actor, queueID uuid.UUID, req appqueue.TakeTicketRequest) (*appqueue.TicketResponse, error)
	CallNext(ctx context.Context, actor identity.Actor, queueID uuid.UUID) (*appqueue.TicketResponse, error)
	CallAgain(ctx context.Context, actor identity.Actor, ticketID uuid.UUID) (*appqueue.TicketResponse, error)
	StartServing(ctx context.Context, actor identity.Actor, ticketID uuid.UUID) (*appqueue.TicketResponse, error)
	MarkServed(ctx context.Context, actor identity.Actor, ticketID uuid.UUID) (*appqueue.TicketResponse, error)
	MarkNoShow(ctx context.Context, actor identity.Actor, ticketID uuid.UUID) (*appqueue.TicketResponse, error)
	Skip(ctx context.Context, actor identity.Actor, ticketID uuid.UUID, req appqueue.ReasonRequest) (*appqueue.TicketResponse, error)
	Cancel(ctx context.Context, actor identity.Actor, ticketID uuid.UUID, req appqueue.ReasonRequest) (*appqueue.TicketResponse, error)
	Extend(ctx context.Context, actor identity.Actor, ticketID uuid.UUID, req appqueue.ExtendRequest) (*appqueue.TicketResponse, error)
	Rate(ctx context.Context, actor identity.Actor, ticketID uuid.UUID, req appqueue.RateRequest) (*appqueue.TicketResponse, error)
	Transfer(ctx context.Context, actor identity.Actor, ticketID uuid.UUID, req appqueue.TransferRequest) (*appqueue.TransferResponse, error)
	Get(ctx context.Context, actor identity.Actor, ticketID uuid.UUID) (*appqueue.TicketResponse, error)
	ListForQueue(ctx context.Context, actor identity.Actor, queueID uuid.UUID, filter appqueue.TicketListFilter) (*shared.Paginated[appqueue.TicketResponse], error)
	MyTickets(ctx context.Context, actor identity.Actor) (*appqueue.MyTicketsResponse, error)
	TicketStats(ctx context.Context, actor identity.Actor, organizationID *uuid.UUID) (*appqueue.TicketStatsResponse, error)
	PrintSlip(ctx context.Context, actor identity.Actor, ticketID uuid.UUID) ([]byte, error)
}

// TicketHandler handles ticket endpoints
type TicketHandler struct {
	BaseHandler
	tickets TicketService
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(tickets TicketService) *TicketHandler {
	return &TicketHandler{tickets: tickets}
}

type ticketOp func(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appqueue.TicketResponse, error)

// withTicket runs op on the :id ticket. A body, when given, is bound first
// and may be omitted by the client.
func (h *TicketHandler) withTicket(c *gin.Context, op ticketOp, body ...any) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	for _, req := range body {
		if !h.bindOptionalJSON(c, req) {
			return
		}
	}
	ticket, err := op(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ticket)
}

// Get godoc
// @ID           getTicket
// @Summary      Get a ticket
// @Description  Owners and staff of the organization see a ticket with its estimated wait
// @Tags         tickets
// @Produce      json
// @Param        id path string true "Ticket ID" format(uuid)
// @Success      200 {object} APIResponse[appqueue.TicketResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id} [get]
func (h *TicketHandler) Get(c *gin.Context) {
	h.withTicket(c, h.tickets.Get)
}

// Mine godoc
// @ID           listMyTickets
// @Summary      My tickets
// @Tags         tickets
// @Produce      json
// @Success      200 {object} APIResponse[appqueue.MyTicketsResponse]
// @Security     BearerAuth
// @Router       /tickets/mine [get]
func (h *TicketHandler) Mine(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	mine, err := h.tickets.MyTickets(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mine)
}

// Stats godoc
// @ID           getTicketStats
// @Summary      Ticket statistics
// @Description  A customer's own tickets, or an organization's tickets for staff
// @Tags         tickets
// @Produce      json
// @Param        organization_id query string false "Organization (super admin only)" format(uuid)
// @Success      200 {object} APIResponse[appqueue.TicketStatsResponse]
// @Security     BearerAuth
// @Router       /tickets/stats [get]
func (h *TicketHandler) Stats(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	orgID, ok := h.queryUUID(c, "organization_id")
	if !ok {
		return
	}
	stats, err := h.tickets.TicketStats(c.Request.Context(), actor, orgID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// CallAgain godoc
// @ID           callTicketAgain
// @Summary      Call a ticket again
// @Tags         tickets
// @Produce      json
// @Param        id path string true "Ticket ID" format(uuid)
// @Success      200 {object} APIResponse[appqueue.TicketResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/call-again [post]
func (h *TicketHandler) CallAgain(c *gin.Context) {
	h.withTicket(c, h.tickets.CallAgain)
}

// Start godoc
// @ID           startTicket
// @Summary      Start serving a called ticket
// @Tags         tickets
// @Produce      json
// @Param        id path string true "Ticket ID" format(uuid)
// @Success      200 {object} APIResponse[appqueue.TicketResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/start [post]
func (h *TicketHandler) Start(c *gin.Context) {
	h.withTicket(c, h.tickets.StartServing)
}

// Serve godoc
// @ID           serveTicket
// @Summary      Mark a ticket as served
// @Tags         tickets
// @Produce      json
// @Param        id path string true "Ticket ID" format(uuid)
// @Success      200 {object} APIResponse[appqueue.TicketResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/serve [post]
func (h *TicketHandler) Serve(c *gin.Context) {
	h.withTicket(c, h.tickets.MarkServed)
}

// NoShow godoc
// @ID           noShowTicket
// @Summary      Mark a called ticket as no-show
// @Tags         tickets
// @Produce      json
// @Param        id path string true "Ticket ID" format(uuid)
// @Success      200 {object} APIResponse[appqueue.TicketResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/no-show [post]
func (h *TicketHandler) NoShow(c *gin.Context) {
	h.withTicket(c, h.tickets.MarkNoShow)
}

// Skip godoc
// @ID           skipTicket
// @Summary      Skip a ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id path string true "Ticket ID" format(uuid)
// @Param        request body appqueue.ReasonRequest false "Reason"
// @Success      200 {object} APIResponse[appqueue.TicketResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/skip [post]
func (h *TicketHandler) Skip(c *gin.Context) {
	var req appqueue.ReasonRequest
	h.withTicket(c, func(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appqueue.TicketResponse, error) {
		return h.tickets.Skip(ctx, actor, id, req)
	}, &req)
}

// Cancel godoc
// @ID           cancelTicket
// @Summary      Cancel a ticket
// @Description  The owner or staff cancel a ticket that is not finished yet
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id path string true "Ticket ID" format(uuid)
// @Param        request body appqueue.ReasonRequest false "Reason"
// @Success      200 {object} APIResponse[appqueue.TicketResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/cancel [post]
func (h *TicketHandler) Cancel(c *gin.Context) {
	var req appqueue.ReasonRequest
	h.withTicket(c, func(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appqueue.TicketResponse, error) {
		return h.tickets.Cancel(ctx, actor, id, req)
	}, &req)
}

// Extend godoc
// @ID           extendTicket
// @Summary      Push back the expiry of a waiting ticket
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id path string true "Ticket ID" format(uuid)
// @Param        request body appqueue.ExtendRequest false "Minutes to add"
// @Success      200 {object} APIResponse[appqueue.TicketResponse]
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/extend [post]
func (h *TicketHandler) Extend(c *gin.Context) {
	var req appqueue.ExtendRequest
	h.withTicket(c, func(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appqueue.TicketResponse, error) {
		return h.tickets.Extend(ctx, actor, id, req)
	}, &req)
}

// Rate godoc
// @ID           rateTicket
// @Summary      Rate the service received on a ticket
// @Description  The holder of a served ticket gives a 1 to 5 score, once
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id path string true "Ticket ID" format(uuid)
// @Param        request body appqueue.RateRequest true "Score and comment"
// @Success      200 {object} APIResponse[appqueue.TicketResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/rate [post]
func (h *TicketHandler) Rate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appqueue.RateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ticket, err := h.tickets.Rate(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ticket)
}

// Transfer godoc
// @ID           transferTicket
// @Summary      Transfer a ticket to another queue
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Param        id path string true "Ticket ID" format(uuid)
// @Param        request body appqueue.TransferRequest true "Target queue"
// @Success      200 {object} APIResponse[appqueue.TransferResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tickets/{id}/transfer [post]
func (h *TicketHandler) Transfer(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appqueue.TransferRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.tickets.Transfer(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Slip godoc
// @ID           getTicketSlip
// @Summary      Printable ticket slip
// @Tags         tickets
// @Produce      application/pdf
// @Param        id path string true "Ticket ID" format(uuid)
// @Success      200 {file} file
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse "PRINTING_DISABLED"
// @Security     BearerAuth
// @Router       /tickets/{id}/slip.pdf [get]
func (h *TicketHandler) Slip(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	pdf, err := h.tickets.PrintSlip(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="ticket-`+id.String()+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
