package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	"github.com/noah-isme/kas-kelas-api/internal/service"
	"github.com/noah-isme/kas-kelas-api/pkg/response"
)

type paymentService interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, *models.Pagination, error)
	Submit(ctx context.Context, studentID string, req service.SubmitPaymentRequest) (*models.Payment, error)
	Review(ctx context.Context, reviewerID, id string, req service.ReviewPaymentRequest) (*models.Payment, error)
}

// PaymentHandler exposes payment submission and review.
type PaymentHandler struct {
	payments paymentService
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(payments paymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// List godoc
// @Summary List payments
// @Description Students only see their own payments.
// @Tags Payments
// @Produce json
// @Param studentId query string false "Student ID (officers only)"
// @Param paymentTypeId query string false "Payment type ID"
// @Param status query string false "pending, approved or rejected"
// @Param method query string false "transfer, pos or cash"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	filter := models.PaymentFilter{
		StudentID:     c.Query("studentId"),
		PaymentTypeID: c.Query("paymentTypeId"),
		Status:        models.PaymentStatus(c.Query("status")),
		Method:        models.PaymentMethod(c.Query("method")),
	}
	if !claims.IsOfficer() {
		filter.StudentID = claims.StudentID
	}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.payments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Submit godoc
// @Summary Submit a payment for review
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.SubmitPaymentRequest true "Payment"
// @Success 201 {object} response.Envelope
// @Router /payments [post]
func (h *PaymentHandler) Submit(c *gin.Context) {
	claims := requireStudent(c)
	if claims == nil {
		return
	}
	var req service.SubmitPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	payment, err := h.payments.Submit(c.Request.Context(), claims.StudentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// Review godoc
// @Summary Approve or reject a pending payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param payload body service.ReviewPaymentRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payments/{id}/review [post]
func (h *PaymentHandler) Review(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req service.ReviewPaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	payment, err := h.payments.Review(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payment, nil)
}
