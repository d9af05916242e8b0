package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	"github.com/noah-isme/kas-kelas-api/internal/service"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
)

type fakePaymentTypeSrv struct {
	created     service.CreatePaymentTypeRequest
	deactivated string
}

func (f *fakePaymentTypeSrv) ListActive(context.Context) ([]models.PaymentType, error) {
	return []models.PaymentType{{ID: "pt-1", Title: "Kas Juli", Amount: 5000, Active: true}}, nil
}

func (f *fakePaymentTypeSrv) Get(_ context.Context, id string) (*models.PaymentType, error) {
	return &models.PaymentType{ID: id}, nil
}

func (f *fakePaymentTypeSrv) Create(_ context.Context, req service.CreatePaymentTypeRequest) (*models.PaymentType, error) {
	f.created = req
	return &models.PaymentType{ID: "pt-2", Title: req.Title, Amount: req.Amount, Active: true}, nil
}

func (f *fakePaymentTypeSrv) Deactivate(_ context.Context, id string) error {
	if id == "missing" {
		return appErrors.Clone(appErrors.ErrNotFound, "payment type not found")
	}
	f.deactivated = id
	return nil
}

func TestPaymentTypeHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakePaymentTypeSrv{}
	handler := NewPaymentTypeHandler(srv)

	c, w := newGinContext(http.MethodPost, "/payment-types", []byte(`{"title":"Kas Agustus","amount":5000}`))
	handler.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Kas Agustus", srv.created.Title)
}

func TestPaymentTypeHandlerCreateRejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaymentTypeHandler(&fakePaymentTypeSrv{})

	c, w := newGinContext(http.MethodPost, "/payment-types", []byte(`{"title":`))
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentTypeHandlerCreateRejectsFractionalAmount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakePaymentTypeSrv{}
	handler := NewPaymentTypeHandler(srv)

	c, w := newGinContext(http.MethodPost, "/payment-types", []byte(`{"title":"Kas Agustus","amount":5000.5}`))
	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w.Body.Bytes())
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
	assert.Empty(t, srv.created.Title)
}

func TestPaymentTypeHandlerDeactivate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakePaymentTypeSrv{}
	handler := NewPaymentTypeHandler(srv)

	c, w := newGinContext(http.MethodDelete, "/payment-types/pt-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "pt-1"}}
	handler.Deactivate(c)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "pt-1", srv.deactivated)

	c, w = newGinContext(http.MethodDelete, "/payment-types/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.Deactivate(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
