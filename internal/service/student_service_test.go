package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
)

type mockStudentRepo struct {
	students   map[string]models.Student
	lastFilter models.StudentFilter
	listTotal  int
	err        error
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, m.listTotal, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func TestStudentServiceListNormalisesPaging(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"1": {ID: "1", FullName: "Ani"}}, listTotal: 41}
	svc := NewStudentService(repo, nil)

	students, pagination, err := svc.List(context.Background(), models.StudentFilter{Page: 0, PageSize: 500, Search: "an"})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 41}, pagination)
	assert.Equal(t, "an", repo.lastFilter.Search)
	assert.Equal(t, 20, repo.lastFilter.PageSize)
}

func TestStudentServiceListError(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{err: errors.New("boom")}, nil)

	_, _, err := svc.List(context.Background(), models.StudentFilter{})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestStudentServiceGet(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"1": {ID: "1", FullName: "Ani"}}}
	svc := NewStudentService(repo, nil)

	student, err := svc.Get(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Ani", student.FullName)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
