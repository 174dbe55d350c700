package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appappointment "github.com/smartqueue/backend/internal/application/appointment"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/shared"
)

// AppointmentService books and follows appointments
type AppointmentService interface {
	Book(ctx context.Context, actor identity.Actor, req appappointment.BookAppointmentRequest) (*appappointment.AppointmentResponse, error)
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appappointment.AppointmentResponse, error)
	List(ctx context.Context, actor identity.Actor, filter appappointment.AppointmentListFilter) (*shared.Paginated[appappointment.AppointmentResponse], error)
	Confirm(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appappointment.AppointmentResponse, error)
	Cancel(ctx context.Context, actor identity.Actor, id uuid.UUID, req appappointment.CancelAppointmentRequest) (*appappointment.AppointmentResponse, error)
	Start(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appappointment.AppointmentResponse, error)
	Complete(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appappointment.AppointmentResponse, error)
	NoShow(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appappointment.AppointmentResponse, error)
	Reschedule(ctx context.Context, actor identity.Actor, id uuid.UUID, req appappointment.RescheduleAppointmentRequest) (*appappointment.RescheduleResponse, error)
	CheckIn(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appappointment.CheckInResponse, error)
}

// AppointmentHandler handles appointment endpoints
type AppointmentHandler struct {
	BaseHandler
	appointments AppointmentService
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(appointments AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments}
}

// target returns the actor and the :id appointment, answering on failure
func (h *AppointmentHandler) target(c *gin.Context) (identity.Actor, uuid.UUID, bool) {
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

func (h *AppointmentHandler) transition(c *gin.Context,
	op func(ctx context.Context, actor identity.Actor, id uuid.UUID) (*appappointment.AppointmentResponse, error),
) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	a, err := op(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// Book godoc
// @ID           bookAppointment
// @Summary      Book an appointment
// @Description  Paid services start in pending_payment until the fee is settled
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Param        request body appappointment.BookAppointmentRequest true "Slot"
// @Success      201 {object} APIResponse[appappointment.AppointmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /appointments [post]
func (h *AppointmentHandler) Book(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req appappointment.BookAppointmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	a, err := h.appointments.Book(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, a)
}

// Get godoc
// @ID           getAppointment
// @Summary      Get an appointment
// @Tags         appointments
// @Produce      json
// @Param        id path string true "Appointment ID" format(uuid)
// @Success      200 {object} APIResponse[appappointment.AppointmentResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	h.transition(c, h.appointments.Get)
}

// List godoc
// @ID           listAppointments
// @Summary      List appointments
// @Description  Customers see their own, staff their organization's
// @Tags         appointments
// @Produce      json
// @Param        organization_id query string false "Organization (super admin only)" format(uuid)
// @Param        service_id query string false "Service" format(uuid)
// @Param        status query string false "Status"
// @Param        from query string false "First day, YYYY-MM-DD"
// @Param        to query string false "Last day, YYYY-MM-DD"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]appappointment.AppointmentResponse]
// @Security     BearerAuth
// @Router       /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter appappointment.AppointmentListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.OrganizationID, ok = h.queryUUID(c, "organization_id"); !ok {
		return
	}
	if filter.ServiceID, ok = h.queryUUID(c, "service_id"); !ok {
		return
	}
	page, err := h.appointments.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// Confirm godoc
// @ID           confirmAppointment
// @Summary      Confirm a pending appointment
// @Tags         appointments
// @Produce      json
// @Param        id path string true "Appointment ID" format(uuid)
// @Success      200 {object} APIResponse[appappointment.AppointmentResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /appointments/{id}/confirm [post]
func (h *AppointmentHandler) Confirm(c *gin.Context) {
	h.transition(c, h.appointments.Confirm)
}

// Cancel godoc
// @ID           cancelAppointment
// @Summary      Cancel an appointment
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Param        id path string true "Appointment ID" format(uuid)
// @Param        request body appappointment.CancelAppointmentRequest false "Reason"
// @Success      200 {object} APIResponse[appappointment.AppointmentResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /appointments/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	var req appappointment.CancelAppointmentRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	a, err := h.appointments.Cancel(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, a)
}

// Reschedule godoc
// @ID           rescheduleAppointment
// @Summary      Move an appointment to another slot
// @Description  Closes the appointment as rescheduled and books its replacement
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Param        id path string true "Appointment ID" format(uuid)
// @Param        request body appappointment.RescheduleAppointmentRequest true "New slot"
// @Success      200 {object} APIResponse[appappointment.RescheduleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /appointments/{id}/reschedule [post]
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	var req appappointment.RescheduleAppointmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.appointments.Reschedule(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CheckIn godoc
// @ID           checkInAppointment
// @Summary      Check in for an appointment
// @Description  Issues an appointment-priority ticket in an open queue of the service
// @Tags         appointments
// @Produce      json
// @Param        id path string true "Appointment ID" format(uuid)
// @Success      200 {object} APIResponse[appappointment.CheckInResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /appointments/{id}/check-in [post]
func (h *AppointmentHandler) CheckIn(c *gin.Context) {
	actor, id, ok := h.target(c)
	if !ok {
		return
	}
	result, err := h.appointments.CheckIn(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Start godoc
// @ID           startAppointment
// @Summary      Start a checked-in appointment
// @Tags         appointments
// @Produce      json
// @Param        id path string true "Appointment ID" format(uuid)
// @Success      200 {object} APIResponse[appappointment.AppointmentResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /appointments/{id}/start [post]
func (h *AppointmentHandler) Start(c *gin.Context) {
	h.transition(c, h.appointments.Start)
}

// Complete godoc
// @ID           completeAppointment
// @Summary      Complete an appointment
// @Tags         appointments
// @Produce      json
// @Param        id path string true "Appointment ID" format(uuid)
// @Success      200 {object} APIResponse[appappointment.AppointmentResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /appointments/{id}/complete [post]
func (h *AppointmentHandler) Complete(c *gin.Context) {
	h.transition(c, h.appointments.Complete)
}

// NoShow godoc
// @ID           noShowAppointment
// @Summary      Mark an appointment as no-show
// @Tags         appointments
// @Produce      json
// @Param        id path string true "Appointment ID" format(uuid)
// @Success      200 {object} APIResponse[appappointment.AppointmentResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /appointments/{id}/no-show [post]
func (h *AppointmentHandler) NoShow(c *gin.Context) {
	h.transition(c, h.appointments.NoShow)
}
