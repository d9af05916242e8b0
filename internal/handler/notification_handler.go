package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	"github.com/noah-isme/kas-kelas-api/pkg/response"
)

type notificationService interface {
	ListForStudent(ctx context.Context, studentID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, studentID, id string) error
}

// NotificationHandler exposes the signed-in student's notifications.
type NotificationHandler struct {
	notifications notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(notifications notificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List godoc
// @Summary List my notifications
// @Tags Notifications
// @Produce json
// @Param limit query int false "Maximum items (default 20)"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	claims := requireStudent(c)
	if claims == nil {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	items, err := h.notifications.ListForStudent(c.Request.Context(), claims.StudentID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Param id path string true "Notification ID"
// @Success 204
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims := requireStudent(c)
	if claims == nil {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), claims.StudentID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
