package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardRepositoryTotals(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery("AS collected").
		WillReturnRows(sqlmock.NewRows([]string{"collected", "expenses", "pending"}).AddRow(int64(150000), int64(40000), 3))

	collected, expenses, pending, err := repo.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(150000), collected)
	assert.Equal(t, int64(40000), expenses)
	assert.Equal(t, 3, pending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepositoryPaymentTypeProgress(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery("FROM payment_types t").
		WillReturnRows(sqlmock.NewRows([]string{"payment_type_id", "title", "amount_due", "collected", "paid_students", "total_students", "pending_reviews"}).
			AddRow("pt-1", "Kas Juli", int64(5000), int64(100000), 20, 32, 2))

	items, err := repo.PaymentTypeProgress(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 20, items[0].PaidStudents)
	assert.Equal(t, 32, items[0].TotalStudents)
	assert.NoError(t, mock.ExpectationsWereMet())
}
