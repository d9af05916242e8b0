package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	"github.com/noah-isme/kas-kelas-api/internal/service"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
	"github.com/noah-isme/kas-kelas-api/pkg/response"
)

type expenseService interface {
	List(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, *models.Pagination, error)
	Create(ctx context.Context, recordedBy string, req service.CreateExpenseRequest) (*models.Expense, error)
}

// ExpenseHandler exposes treasury expenses.
type ExpenseHandler struct {
	expenses expenseService
}

// NewExpenseHandler constructs the handler.
func NewExpenseHandler(expenses expenseService) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses}
}

// List godoc
// @Summary List expenses
// @Tags Expenses
// @Produce json
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD), inclusive"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	var filter models.ExpenseFilter
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD"))
			return
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD"))
			return
		}
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}
	filter.Page, filter.PageSize = pageParams(c)

	items, pagination, err := h.expenses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Create godoc
// @Summary Record an expense
// @Tags Expenses
// @Accept json
// @Produce json
// @Param payload body service.CreateExpenseRequest true "Expense"
// @Success 201 {object} response.Envelope
// @Router /expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req service.CreateExpenseRequest
	if !bindJSON(c, &req) {
		return
	}
	expense, err := h.expenses.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, expense)
}
