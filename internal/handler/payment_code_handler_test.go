package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kas-kelas-api/internal/middleware"
	"github.com/noah-isme/kas-kelas-api/internal/models"
	"github.com/noah-isme/kas-kelas-api/internal/service"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
	"github.com/noah-isme/kas-kelas-api/pkg/paycode"
)

type fakePaymentCodeService struct {
	intent     *models.ResolvedIntent
	resolveErr error
	summary    *models.ConfirmationSummary
	confirmErr error
	session    *models.ScanSession
	sessionErr error
	generated  *service.GeneratedCode

	resolvedCodes []string
	confirmedBy   string
	lastNote      string
	cancelled     string
}

func (f *fakePaymentCodeService) Format(raw string) string { return paycode.Format(raw) }

func (f *fakePaymentCodeService) Resolve(_ context.Context, raw string) (*models.ResolvedIntent, error) {
	f.resolvedCodes = append(f.resolvedCodes, raw)
	return f.intent, f.resolveErr
}

func (f *fakePaymentCodeService) Confirm(_ context.Context, officerID string, _ models.ResolvedIntent, note string) (*models.ConfirmationSummary, error) {
	f.confirmedBy = officerID
	f.lastNote = note
	return f.summary, f.confirmErr
}

func (f *fakePaymentCodeService) Generate(context.Context, string, service.GenerateCodeRequest) (*service.GeneratedCode, error) {
	return f.generated, nil
}

func (f *fakePaymentCodeService) StartSession(context.Context, string) (*models.ScanSession, error) {
	return f.session, f.sessionErr
}

func (f *fakePaymentCodeService) GetSession(context.Context, string, string) (*models.ScanSession, error) {
	return f.session, f.sessionErr
}

func (f *fakePaymentCodeService) ResolveSession(_ context.Context, _, _, code string) (*models.ScanSession, error) {
	f.resolvedCodes = append(f.resolvedCodes, code)
	return f.session, f.sessionErr
}

func (f *fakePaymentCodeService) ConfirmSession(_ context.Context, _, _, note string) (*models.ScanSession, error) {
	f.lastNote = note
	return f.session, f.sessionErr
}

func (f *fakePaymentCodeService) CancelSession(_ context.Context, _, id string) error {
	f.cancelled = id
	return f.sessionErr
}

func decodeEnvelope(t *testing.T, body []byte) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

func TestPaymentCodeHandlerFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaymentCodeHandler(&fakePaymentCodeService{})

	c, w := newGinContext(http.MethodPost, "/payment-codes/format", []byte(`{"code":"mp7f2p9k13b4x7q"}`))
	handler.Format(c)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := decodeEnvelope(t, w.Body.Bytes())
	assert.Equal(t, "MP-7F2-P9K1-3B4.X7Q", envelope.Data["code"])
}

func TestPaymentCodeHandlerResolveError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaymentCodeHandler(&fakePaymentCodeService{
		resolveErr: appErrors.Clone(appErrors.ErrAllAlreadyPaid, "every recipient has already paid"),
	})

	c, w := newGinContext(http.MethodPost, "/payment-codes/resolve", []byte(`{"code":"MP-7F2-P9K1-3B4"}`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "officer-1", Role: models.RoleTreasurer})
	handler.Resolve(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALL_ALREADY_PAID", decodeEnvelope(t, w.Body.Bytes()).Error.Code)
}

func TestPaymentCodeHandlerResolveRequiresCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaymentCodeHandler(&fakePaymentCodeService{})

	c, w := newGinContext(http.MethodPost, "/payment-codes/resolve", []byte(`{}`))
	handler.Resolve(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentCodeHandlerConfirmPartial(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakePaymentCodeService{
		intent: &models.ResolvedIntent{Code: "MP-7F2-P9K1-3B4.X7Q"},
		summary: &models.ConfirmationSummary{
			Recorded: []models.Payment{{ID: "p-1"}},
			Failed:   []models.RecipientFailure{{Student: models.Student{ID: "s-other"}, Error: "insert failed"}},
			Message:  "Payment confirmed for 1 students, but failed for 1",
		},
	}
	handler := NewPaymentCodeHandler(srv)

	c, w := newGinContext(http.MethodPost, "/payment-codes/confirm", []byte(`{"code":"MP-7F2-P9K1-3B4.X7Q","note":"kas"}`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "officer-1", Role: models.RoleTreasurer})
	handler.Confirm(c)

	require.Equal(t, http.StatusMultiStatus, w.Code)
	envelope := decodeEnvelope(t, w.Body.Bytes())
	assert.Equal(t, true, envelope.Meta["partial"])
	assert.Equal(t, "PARTIAL_WRITE_FAILURE", envelope.Meta["code"])
	assert.Equal(t, "officer-1", srv.confirmedBy)
	assert.Equal(t, "kas", srv.lastNote)
	assert.Equal(t, []string{"MP-7F2-P9K1-3B4.X7Q"}, srv.resolvedCodes)
}

func TestPaymentCodeHandlerConfirmTotalFailureCarriesSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaymentCodeHandler(&fakePaymentCodeService{
		intent: &models.ResolvedIntent{Code: "A1B-7F2-1234"},
		summary: &models.ConfirmationSummary{
			Failed:  []models.RecipientFailure{{Student: models.Student{ID: "s-payer"}, Error: "insert failed"}},
			Message: "Payment failed for all 1 students",
		},
		confirmErr: appErrors.Clone(appErrors.ErrTotalWriteFailure, "Payment failed for all 1 students"),
	})

	c, w := newGinContext(http.MethodPost, "/payment-codes/confirm", []byte(`{"code":"A1B-7F2-1234"}`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "officer-1", Role: models.RoleTreasurer})
	handler.Confirm(c)

	require.Equal(t, http.StatusBadGateway, w.Code)
	envelope := decodeEnvelope(t, w.Body.Bytes())
	assert.Equal(t, "Payment failed for all 1 students", envelope.Data["message"])
}

func TestPaymentCodeHandlerConfirmStopsOnResolveError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakePaymentCodeService{resolveErr: appErrors.Clone(appErrors.ErrInvalidCodeFormat, "bad code")}
	handler := NewPaymentCodeHandler(srv)

	c, w := newGinContext(http.MethodPost, "/payment-codes/confirm", []byte(`{"code":"nope"}`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "officer-1", Role: models.RoleTreasurer})
	handler.Confirm(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, srv.confirmedBy)
}

func TestPaymentCodeHandlerResolveSessionReturnsSessionOnError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaymentCodeHandler(&fakePaymentCodeService{
		session:    &models.ScanSession{ID: "session-1", State: models.ScanStateScanning, LastError: "payer not identified"},
		sessionErr: appErrors.Clone(appErrors.ErrPayerNotIdentified, "payer not identified"),
	})

	c, w := newGinContext(http.MethodPost, "/payment-codes/sessions/session-1/resolve", []byte(`{"code":"MP-7F2-PZZZ-3B4"}`))
	c.Params = gin.Params{{Key: "id", Value: "session-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "officer-1", Role: models.RoleTreasurer})
	handler.ResolveSession(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	envelope := decodeEnvelope(t, w.Body.Bytes())
	assert.Equal(t, "SCANNING", envelope.Data["state"])
	assert.Equal(t, "PAYER_NOT_IDENTIFIED", envelope.Error.Code)
}

func TestPaymentCodeHandlerConfirmSessionWithoutBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakePaymentCodeService{
		session: &models.ScanSession{
			ID:      "session-1",
			State:   models.ScanStateDone,
			Summary: &models.ConfirmationSummary{Recorded: []models.Payment{{ID: "p-1"}}, Message: "Payment confirmed for 1 students"},
		},
	}
	handler := NewPaymentCodeHandler(srv)

	c, w := newGinContext(http.MethodPost, "/payment-codes/sessions/session-1/confirm", nil)
	c.Params = gin.Params{{Key: "id", Value: "session-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "officer-1", Role: models.RoleTreasurer})
	handler.ConfirmSession(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DONE", decodeEnvelope(t, w.Body.Bytes()).Data["state"])
	assert.Empty(t, srv.lastNote)
}

func TestPaymentCodeHandlerCancelSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakePaymentCodeService{}
	handler := NewPaymentCodeHandler(srv)

	c, w := newGinContext(http.MethodDelete, "/payment-codes/sessions/session-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "session-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "officer-1", Role: models.RoleTreasurer})
	handler.CancelSession(c)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "session-1", srv.cancelled)
}

func TestPaymentCodeHandlerGenerateRequiresStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaymentCodeHandler(&fakePaymentCodeService{})

	c, w := newGinContext(http.MethodPost, "/payment-codes", []byte(`{"paymentTypeId":"pt-0007f2"}`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "officer-1", Role: models.RoleTreasurer})
	handler.Generate(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPaymentCodeHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaymentCodeHandler(&fakePaymentCodeService{
		generated: &service.GeneratedCode{Code: "A1B-7F2-1234", Kind: paycode.KindSingle, TotalAmount: 5000},
	})

	c, w := newGinContext(http.MethodPost, "/payment-codes", []byte(`{"paymentTypeId":"pt-0007f2"}`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "user-9", Role: models.RoleStudent, StudentID: "s-payer"})
	handler.Generate(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "A1B-7F2-1234", decodeEnvelope(t, w.Body.Bytes()).Data["code"])
}
