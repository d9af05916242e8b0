package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
)

type mockPaymentTypeRepo struct {
	items       map[string]models.PaymentType
	created     []models.PaymentType
	deactivated []string
}

func (m *mockPaymentTypeRepo) ListActive(ctx context.Context) ([]models.PaymentType, error) {
	var out []models.PaymentType
	for _, item := range m.items {
		if item.Active {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *mockPaymentTypeRepo) FindByID(ctx context.Context, id string) (*models.PaymentType, error) {
	item, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (m *mockPaymentTypeRepo) Create(ctx context.Context, item *models.PaymentType) error {
	item.ID = "pt-new"
	m.created = append(m.created, *item)
	return nil
}

func (m *mockPaymentTypeRepo) Deactivate(ctx context.Context, id string) error {
	item, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	item.Active = false
	m.items[id] = item
	m.deactivated = append(m.deactivated, id)
	return nil
}

func TestPaymentTypeServiceCreate(t *testing.T) {
	repo := &mockPaymentTypeRepo{items: map[string]models.PaymentType{}}
	cacheRepo := newMemoryCacheRepo()
	cacheRepo.items[CacheKey("dashboard", "summary")] = []byte(`{}`)
	svc := NewPaymentTypeService(repo, NewCacheService(cacheRepo, nil, time.Minute, nil, true), nil, nil)

	item, err := svc.Create(context.Background(), CreatePaymentTypeRequest{Title: "  Kas Agustus ", Amount: 5000})
	require.NoError(t, err)
	assert.Equal(t, "pt-new", item.ID)
	assert.Equal(t, "Kas Agustus", item.Title)
	assert.True(t, item.Active)
	assert.Empty(t, cacheRepo.items)
}

func TestPaymentTypeServiceCreateValidation(t *testing.T) {
	svc := NewPaymentTypeService(&mockPaymentTypeRepo{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), CreatePaymentTypeRequest{Title: "Kas", Amount: 0})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = svc.Create(context.Background(), CreatePaymentTypeRequest{Amount: 100})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestPaymentTypeServiceDeactivate(t *testing.T) {
	repo := &mockPaymentTypeRepo{items: map[string]models.PaymentType{"pt-1": {ID: "pt-1", Amount: 5000, Active: true}}}
	svc := NewPaymentTypeService(repo, nil, nil, nil)

	require.NoError(t, svc.Deactivate(context.Background(), "pt-1"))
	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)

	assert.ErrorIs(t, svc.Deactivate(context.Background(), "missing"), appErrors.ErrNotFound)
	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
