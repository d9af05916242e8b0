package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	"github.com/noah-isme/kas-kelas-api/internal/service"
	"github.com/noah-isme/kas-kelas-api/pkg/response"
)

type paymentCodeService interface {
	Format(raw string) string
	Resolve(ctx context.Context, raw string) (*models.ResolvedIntent, error)
	Confirm(ctx context.Context, officerID string, intent models.ResolvedIntent, note string) (*models.ConfirmationSummary, error)
	Generate(ctx context.Context, studentID string, req service.GenerateCodeRequest) (*service.GeneratedCode, error)
	StartSession(ctx context.Context, officerID string) (*models.ScanSession, error)
	GetSession(ctx context.Context, officerID, id string) (*models.ScanSession, error)
	ResolveSession(ctx context.Context, officerID, id, code string) (*models.ScanSession, error)
	ConfirmSession(ctx context.Context, officerID, id, note string) (*models.ScanSession, error)
	CancelSession(ctx context.Context, officerID, id string) error
}

type formatRequest struct {
	Code string `json:"code"`
}

type codeRequest struct {
	Code string `json:"code" binding:"required"`
}

type confirmCodeRequest struct {
	Code string `json:"code" binding:"required"`
	Note string `json:"note"`
}

type confirmSessionRequest struct {
	Note string `json:"note"`
}

// PaymentCodeHandler exposes the cash payment-code flow.
type PaymentCodeHandler struct {
	codes paymentCodeService
}

// NewPaymentCodeHandler constructs the handler.
func NewPaymentCodeHandler(codes paymentCodeService) *PaymentCodeHandler {
	return &PaymentCodeHandler{codes: codes}
}

// Format godoc
// @Summary Format a partially typed payment code
// @Tags PaymentCodes
// @Accept json
// @Produce json
// @Param payload body formatRequest true "Raw input"
// @Success 200 {object} response.Envelope
// @Router /payment-codes/format [post]
func (h *PaymentCodeHandler) Format(c *gin.Context) {
	var req formatRequest
	if !bindJSON(c, &req) {
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"code": h.codes.Format(req.Code)}, nil)
}

// Generate godoc
// @Summary Generate a payment code for the signed-in student
// @Tags PaymentCodes
// @Accept json
// @Produce json
// @Param payload body service.GenerateCodeRequest true "Payment type and optional recipients"
// @Success 201 {object} response.Envelope
// @Router /payment-codes [post]
func (h *PaymentCodeHandler) Generate(c *gin.Context) {
	claims := requireStudent(c)
	if claims == nil {
		return
	}
	var req service.GenerateCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	code, err := h.codes.Generate(c.Request.Context(), claims.StudentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, code)
}

// Resolve godoc
// @Summary Resolve a payment code without a session
// @Tags PaymentCodes
// @Accept json
// @Produce json
// @Param payload body codeRequest true "Payment code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payment-codes/resolve [post]
func (h *PaymentCodeHandler) Resolve(c *gin.Context) {
	var req codeRequest
	if !bindJSON(c, &req) {
		return
	}
	intent, err := h.codes.Resolve(c.Request.Context(), req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, intent, nil)
}

// Confirm godoc
// @Summary Resolve and record a payment code in one call
// @Description The code is resolved again against fresh records before anything is written.
// @Tags PaymentCodes
// @Accept json
// @Produce json
// @Param payload body confirmCodeRequest true "Payment code"
// @Success 200 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /payment-codes/confirm [post]
func (h *PaymentCodeHandler) Confirm(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req confirmCodeRequest
	if !bindJSON(c, &req) {
		return
	}
	intent, err := h.codes.Resolve(c.Request.Context(), req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.codes.Confirm(c.Request.Context(), claims.UserID, *intent, req.Note)
	var data interface{}
	if summary != nil {
		data = summary
	}
	writeSummary(c, data, summary, err)
}

// StartSession godoc
// @Summary Open a scan session
// @Tags PaymentCodes
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /payment-codes/sessions [post]
func (h *PaymentCodeHandler) StartSession(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	session, err := h.codes.StartSession(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// GetSession godoc
// @Summary Get a scan session
// @Tags PaymentCodes
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /payment-codes/sessions/{id} [get]
func (h *PaymentCodeHandler) GetSession(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	session, err := h.codes.GetSession(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// ResolveSession godoc
// @Summary Resolve a code inside a scan session
// @Description A rejected code leaves the session scanning; the session is returned with the error.
// @Tags PaymentCodes
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body codeRequest true "Payment code"
// @Success 200 {object} response.Envelope
// @Router /payment-codes/sessions/{id}/resolve [post]
func (h *PaymentCodeHandler) ResolveSession(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req codeRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.codes.ResolveSession(c.Request.Context(), claims.UserID, c.Param("id"), req.Code)
	if err != nil {
		response.ErrorWithData(c, err, sessionOrNil(session))
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// ConfirmSession godoc
// @Summary Record the payments of a resolved scan session
// @Tags PaymentCodes
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body confirmSessionRequest false "Optional note"
// @Success 200 {object} response.Envelope
// @Success 207 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /payment-codes/sessions/{id}/confirm [post]
func (h *PaymentCodeHandler) ConfirmSession(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req confirmSessionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	session, err := h.codes.ConfirmSession(c.Request.Context(), claims.UserID, c.Param("id"), req.Note)
	var summary *models.ConfirmationSummary
	if session != nil {
		summary = session.Summary
	}
	writeSummary(c, sessionOrNil(session), summary, err)
}

// CancelSession godoc
// @Summary Discard a scan session
// @Tags PaymentCodes
// @Param id path string true "Session ID"
// @Success 204
// @Router /payment-codes/sessions/{id} [delete]
func (h *PaymentCodeHandler) CancelSession(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	if err := h.codes.CancelSession(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// writeSummary maps a confirmation outcome to 200, 207 or the error status.
func writeSummary(c *gin.Context, data interface{}, summary *models.ConfirmationSummary, err error) {
	if err != nil {
		response.ErrorWithData(c, err, data)
		return
	}
	if summary != nil && summary.Partial() {
		response.MultiStatus(c, data)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}

func sessionOrNil(session *models.ScanSession) interface{} {
	if session == nil {
		return nil
	}
	return session
}
