package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appqueue "github.com/smartqueue/backend/internal/application/queue"
	"github.com/smartqueue/backend/internal/application/report"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/shared"
)

// QueueService manages queues
type QueueService interface {
	Create(ctx context.Context, actor identity.Actor, req appqueue.CreateQueueRequest) (*appqueue.QueueResponse, error)
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appqueue.QueueResponse, error)
	List(ctx context.Context, actor identity.Actor, filter appqueue.QueueListFilter) (*shared.Paginated[appqueue.QueueResponse], error)
	Update(ctx context.Context, actor identity.Actor, id uuid.UUID, req appqueue.UpdateQueueRequest) (*appqueue.QueueResponse, error)
	Pause(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appqueue.QueueResponse, error)
	Resume(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appqueue.QueueResponse, error)
	ChangeStatus(ctx context.Context, actor identity.Actor, id uuid.UUID, req appqueue.ChangeStatusRequest) (*appqueue.QueueResponse, error)
	ResetDaily(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appqueue.QueueResponse, error)
	AgentDashboard(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appqueue.DashboardResponse, error)
	Stats(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appqueue.QueueStatsResponse, error)
}

// ReportService renders daily queue reports
type ReportService interface {
	DailyReport(ctx context.Context, actor identity.Actor, queueID uuid.UUID, day time.Time) (*report.Report, error)
}

// QueueHandler handles queue endpoints, including the ticket operations
// addressed through a queue
type QueueHandler struct {
	BaseHandler
	queues  QueueService
	tickets TicketService
	reports ReportService
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(queues QueueService, tickets TicketService, reports ReportService) *QueueHandler {
	return &QueueHandler{queues: queues, tickets: tickets, reports: reports}
}

// Create godoc
// @ID           createQueue
// @Summary      Create a queue
// @Tags         queues
// @Accept       json
// @Produce      json
// @Param        request body appqueue.CreateQueueRequest true "Queue settings"
// @Success      201 {object} APIResponse[appqueue.QueueResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /queues [post]
func (h *QueueHandler) Create(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appqueue.CreateQueueRequest
	if !h.bindJSON(c, &req) {
		return
	}
	q, err := h.queues.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, q)
}

// Get godoc
// @ID           getQueue
// @Summary      Get a queue
// @Tags         queues
// @Produce      json
// @Param        id path string true "Queue ID" format(uuid)
// @Success      200 {object} APIResponse[appqueue.QueueResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /queues/{id} [get]
func (h *QueueHandler) Get(c *gin.Context) {
	h.withQueue(c, h.queues.Get)
}

// List godoc
// @ID           listQueues
// @Summary      List queues
// @Tags         queues
// @Produce      json
// @Param        organization_id query string false "Organization" format(uuid)
// @Param        service_id query string false "Service" format(uuid)
// @Param        status query string false "Queue status" Enums(active, paused, closed, maintenance)
// @Param        queue_type query string false "Queue type"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]appqueue.QueueResponse]
// @Security     BearerAuth
// @Router       /queues [get]
func (h *QueueHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter appqueue.QueueListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.OrganizationID, ok = h.queryUUID(c, "organization_id"); !ok {
		return
	}
	page, err := h.queues.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// Update godoc
// @ID           updateQueue
// @Summary      Update a queue
// @Tags         queues
// @Accept       json
// @Produce      json
// @Param        id path string true "Queue ID" format(uuid)
// @Param        request body appqueue.UpdateQueueRequest true "Changes"
// @Success      200 {object} APIResponse[appqueue.QueueResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /queues/{id} [put]
func (h *QueueHandler) Update(c *gin.Context) {
	var req appqueue.UpdateQueueRequest
	h.withQueue(c, func(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appqueue.QueueResponse, error) {
		return h.queues.Update(ctx, actor, id, req)
	}, &req)
}

// Pause godoc
// @ID           pauseQueue
// @Summary      Pause a queue
// @Tags         queues
// @Produce      json
// @Param        id path string true "Queue ID" format(uuid)
// @Success      200 {object} APIResponse[appqueue.QueueResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /queues/{id}/pause [post]
func (h *QueueHandler) Pause(c *gin.Context) {
	h.withQueue(c, h.queues.Pause)
}

// Resume godoc
// @ID           resumeQueue
// @Summary      Resume a paused queue
// @Tags         queues
// @Produce      json
// @Param        id path string true "Queue ID" format(uuid)
// @Success      200 {object} APIResponse[appqueue.QueueResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /queues/{id}/resume [post]
func (h *QueueHandler) Resume(c *gin.Context) {
	h.withQueue(c, h.queues.Resume)
}

// ChangeStatus godoc
// @ID           changeQueueStatus
// @Summary      Change the status of a queue
// @Tags         queues
// @Accept       json
// @Produce      json
// @Param        id path string true "Queue ID" format(uuid)
// @Param        request body appqueue.ChangeStatusRequest true "Target status"
// @Success      200 {object} APIResponse[appqueue.QueueResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /queues/{id}/status [post]
func (h *QueueHandler) ChangeStatus(c *gin.Context) {
	var req appqueue.ChangeStatusRequest
	h.withQueue(c, func(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appqueue.QueueResponse, error) {
		return h.queues.ChangeStatus(ctx, actor, id, req)
	}, &req)
}

// ResetDaily godoc
// @ID           resetQueueDaily
// @Summary      Reset the daily counters of a queue
// @Tags         queues
// @Produce      json
// @Param        id path string true "Queue ID" format(uuid)
// @Success      200 {object} APIResponse[appqueue.QueueResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /queues/{id}/reset-daily [post]
func (h *QueueHandler) ResetDaily(c *gin.Context) {
	h.withQueue(c, h.queues.ResetDaily)
}

// Dashboard godoc
// @ID           getQueueDashboard
// @Summary      Agent dashboard of a queue
// @Tags         queues
// @Produce      json
// @Param        id path string true "Queue ID" format(uuid)
// @Success      200 {object} APIResponse[appqueue.DashboardResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /queues/{id}/dashboard [get]
func (h *QueueHandler) Dashboard(c *gin.Context) {
	actor, id, ok := h.queueTarget(c)
	if !ok {
		return
	}
	dashboard, err := h.queues.AgentDashboard(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dashboard)
}

// Stats godoc
// @ID           getQueueStats
// @Summary      Today's statistics of a queue
// @Tags         queues
// @Produce      json
// @Param        id path string true "Queue ID" format(uuid)
// @Success      200 {object} APIResponse[appqueue.QueueStatsResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /queues/{id}/stats [get]
func (h *QueueHandler) Stats(c *gin.Context) {
	actor, id, ok := h.queueTarget(c)
	if !ok {
		return
	}
	stats, err := h.queues.Stats(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// TakeTicket godoc
// @ID           takeQueueTicket
// @Summary      Take a ticket in a queue
// @Description  Customers take a ticket for themselves, staff issue one at the counter
// @Tags         queues
// @Accept       json
// @Produce      json
// @Param        id path string true "Queue ID" format(uuid)
// @Param        request body appqueue.TakeTicketRequest false "Ticket options"
// @Success      201 {object} APIResponse[appqueue.TicketResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /queues/{id}/take-ticket [post]
func (h *QueueHandler) TakeTicket(c *gin.Context) {
	actor, id, ok := h.queueTarget(c)
	if !ok {
		return
	}
	var req appqueue.TakeTicketRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	req.CreatedIP = c.ClientIP()
	ticket, err := h.tickets.TakeTicket(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ticket)
}

// CallNext godoc
// @ID           callQueueNext
// @Summary      Call the next ticket
// @Description  Picks the next waiting ticket according to the queue strategy
// @Tags         queues
// @Produce      json
// @Param        id path string true "Queue ID" format(uuid)
// @Success      200 {object} APIResponse[appqueue.TicketResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "QUEUE_EMPTY when nobody is waiting"
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /queues/{id}/call-next [post]
func (h *QueueHandler) CallNext(c *gin.Context) {
	actor, id, ok := h.queueTarget(c)
	if !ok {
		return
	}
	ticket, err := h.tickets.CallNext(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ticket)
}

// Tickets godoc
// @ID           listQueueTickets
// @Summary      List the tickets of a queue
// @Tags         queues
// @Produce      json
// @Param        id path string true "Queue ID" format(uuid)
// @Param        status query []string false "Ticket statuses" collectionFormat(multi)
// @Param        today query bool false "Only today's tickets"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]appqueue.TicketResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /queues/{id}/tickets [get]
func (h *QueueHandler) Tickets(c *gin.Context) {
	actor, id, ok := h.queueTarget(c)
	if !ok {
		return
	}
	var filter appqueue.TicketListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.tickets.ListForQueue(c.Request.Context(), actor, id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// Report godoc
// @ID           getQueueReport
// @Summary      Daily CSV report of a queue
// @Tags         queues
// @Produce      text/csv
// @Param        id path string true "Queue ID" format(uuid)
// @Param        date query string false "Day as YYYY-MM-DD, defaults to today"
// @Success      200 {file} file
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /queues/{id}/report [get]
func (h *QueueHandler) Report(c *gin.Context) {
	actor, id, ok := h.queueTarget(c)
	if !ok {
		return
	}
	day, err := report.ParseDay(c.Query("date"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	r, err := h.reports.DailyReport(c.Request.Context(), actor, id, day)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+r.Filename+`"`)
	c.Data(http.StatusOK, report.ContentType, r.Data)
}

func (h *QueueHandler) queueTarget(c *gin.Context) (identity.Actor, uuid.UUID, bool) {
	actor, ok := h.actor(c)
	if !ok {
		return identity.Actor{}, uuid.Nil, false
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return identity.Actor{}, uuid.Nil, false
	}
	return actor, id, true
}

// withQueue runs a queue operation on the :id queue and answers with the
// result. A body, when given, is bound before the call.
func (h *QueueHandler) withQueue(c *gin.Context,
	op func(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appqueue.QueueResponse, error),
	body ...any,
) {
	actor, id, ok := h.queueTarget(c)
	if !ok {
		return
	}
	for _, req := range body {
		if !h.bindJSON(c, req) {
			return
		}
	}
	q, err := op(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, q)
}
