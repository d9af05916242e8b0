package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	"github.com/noah-isme/kas-kelas-api/internal/service"
	"github.com/noah-isme/kas-kelas-api/pkg/response"
)

type paymentTypeService interface {
	ListActive(ctx context.Context) ([]models.PaymentType, error)
	Get(ctx context.Context, id string) (*models.PaymentType, error)
	Create(ctx context.Context, req service.CreatePaymentTypeRequest) (*models.PaymentType, error)
	Deactivate(ctx context.Context, id string) error
}

// PaymentTypeHandler exposes dues items.
type PaymentTypeHandler struct {
	paymentTypes paymentTypeService
}

// NewPaymentTypeHandler constructs the handler.
func NewPaymentTypeHandler(paymentTypes paymentTypeService) *PaymentTypeHandler {
	return &PaymentTypeHandler{paymentTypes: paymentTypes}
}

// List godoc
// @Summary List active payment types
// @Tags PaymentTypes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /payment-types [get]
func (h *PaymentTypeHandler) List(c *gin.Context) {
	items, err := h.paymentTypes.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get a payment type
// @Tags PaymentTypes
// @Produce json
// @Param id path string true "Payment type ID"
// @Success 200 {object} response.Envelope
// @Router /payment-types/{id} [get]
func (h *PaymentTypeHandler) Get(c *gin.Context) {
	item, err := h.paymentTypes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create a payment type
// @Tags PaymentTypes
// @Accept json
// @Produce json
// @Param payload body service.CreatePaymentTypeRequest true "Payment type"
// @Success 201 {object} response.Envelope
// @Router /payment-types [post]
func (h *PaymentTypeHandler) Create(c *gin.Context) {
	var req service.CreatePaymentTypeRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.paymentTypes.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Deactivate godoc
// @Summary Deactivate a payment type
// @Tags PaymentTypes
// @Param id path string true "Payment type ID"
// @Success 204
// @Router /payment-types/{id} [delete]
func (h *PaymentTypeHandler) Deactivate(c *gin.Context) {
	if err := h.paymentTypes.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
