package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apppayment "github.com/smartqueue/backend/internal/application/payment"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/domain/payment"
	"github.com/smartqueue/backend/internal/domain/shared"
	"github.com/smartqueue/backend/internal/infrastructure/logger"
	paymentgw "github.com/smartqueue/backend/internal/infrastructure/payment"
	"go.uber.org/zap"
)

// PaymentService initiates payments and applies provider callbacks
type PaymentService interface {
	Providers() []apppayment.ProviderResponse
	Initiate(ctx context.Context, actor identity.Actor, req apppayment.InitiatePaymentRequest) (*apppayment.PaymentResponse, error)
	Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*apppayment.PaymentResponse, error)
	List(ctx context.Context, actor identity.Actor, filter apppayment.PaymentListFilter) (*shared.Paginated[apppayment.PaymentResponse], error)
	ConfirmCash(ctx context.Context, actor identity.Actor, id uuid.UUID) (*apppayment.PaymentResponse, error)
	ProcessCallback(ctx context.Context, provider payment.Provider, body []byte, signature string) (*apppayment.CallbackResult, error)
}

// PaymentHandler handles payment endpoints and provider callbacks
type PaymentHandler struct {
	BaseHandler
	payments PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Providers godoc
// @ID           listPaymentProviders
// @Summary      Enabled payment providers
// @Tags         payments
// @Produce      json
// @Success      200 {object} APIResponse[[]apppayment.ProviderResponse]
// @Security     BearerAuth
// @Router       /payments/providers [get]
func (h *PaymentHandler) Providers(c *gin.Context) {
	h.Success(c, h.payments.Providers())
}

// Initiate godoc
// @ID           initiatePayment
// @Summary      Start a payment
// @Description  Mobile money payments return a checkout URL, cash payments wait for staff confirmation
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body apppayment.InitiatePaymentRequest true "Payment"
// @Success      201 {object} APIResponse[apppayment.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments [post]
func (h *PaymentHandler) Initiate(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req apppayment.InitiatePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	p, err := h.payments.Initiate(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// Get godoc
// @ID           getPayment
// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[apppayment.PaymentResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.payments.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// List godoc
// @ID           listPayments
// @Summary      List payments
// @Tags         payments
// @Produce      json
// @Param        organization_id query string false "Organization (super admin only)" format(uuid)
// @Param        status query string false "Status"
// @Param        provider query string false "Provider"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]apppayment.PaymentResponse]
// @Security     BearerAuth
// @Router       /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var filter apppayment.PaymentListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.OrganizationID, ok = h.queryUUID(c, "organization_id"); !ok {
		return
	}
	page, err := h.payments.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// ConfirmCash godoc
// @ID           confirmPaymentCash
// @Summary      Confirm a cash payment at the counter
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[apppayment.PaymentResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id}/confirm-cash [post]
func (h *PaymentHandler) ConfirmCash(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.payments.ConfirmCash(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Callback godoc
// @ID           handlePaymentCallback
// @Summary      Provider payment callback
// @Description  Called by mobile money operators. The raw body is authenticated with the X-Signature HMAC.
// @Tags         payment-callbacks
// @Accept       json
// @Produce      json
// @Param        provider path string true "Provider" Enums(wave, orange_money, free_money, wizall, wari, postefinance)
// @Param        X-Signature header string true "Hex HMAC-SHA256 of the body"
// @Success      200 {object} map[string]any
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /payments/callback/{provider} [post]
func (h *PaymentHandler) Callback(c *gin.Context) {
	provider := payment.Provider(c.Param("provider"))
	if !provider.IsValid() {
		h.Error(c, http.StatusBadRequest, "UNKNOWN_PROVIDER", "Unknown payment provider")
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Unreadable callback body")
		return
	}

	result, err := h.payments.ProcessCallback(c.Request.Context(), provider, body, c.GetHeader(paymentgw.SignatureHeader))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Duplicate {
		logger.L(c.Request.Context()).Info("Acknowledged duplicate callback",
			zap.String("provider", string(provider)))
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", result.Reply)
}
