package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KotaSaiGoutham/academy-api/internal/models"
	appErrors "github.com/KotaSaiGoutham/academy-api/pkg/errors"
)

func TestStudentServiceCreate(t *testing.T) {
	repo := &studentRepoStub{}
	svc := NewStudentService(repo, validator.New(), zap.NewNop(), nil)

	fee := 1200.0
	student, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName:           "Asha",
		Subject:            "Physics",
		MonthlyFee:         &fee,
		WeeklyAvailability: []string{"Monday-04:00pm", "not-a-slot"},
	})
	require.NoError(t, err)
	assert.True(t, student.Active)
	assert.Len(t, repo.created, 1)
}

func TestStudentServiceCreateValidation(t *testing.T) {
	svc := NewStudentService(&studentRepoStub{}, validator.New(), zap.NewNop(), nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{Subject: "Physics"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceGetNotFound(t *testing.T) {
	svc := NewStudentService(&studentRepoStub{}, validator.New(), zap.NewNop(), nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceUpdate(t *testing.T) {
	repo := &studentRepoStub{
		byID: map[string]*models.Student{
			"s1": {ID: "s1", FullName: "Asha", Subject: "Physics", Active: true},
		},
	}
	svc := NewStudentService(repo, validator.New(), zap.NewNop(), nil)

	updated, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{
		FullName:           "Asha R",
		Subject:            "Maths",
		WeeklyAvailability: []string{"Tuesday-10:00am"},
		Active:             true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha R", updated.FullName)
	assert.Equal(t, "Maths", updated.Subject)
	assert.Len(t, repo.updated, 1)
}

func TestStudentServiceListDefaultsPagination(t *testing.T) {
	repo := &studentRepoStub{listResult: []models.Student{{ID: "s1"}}, listTotal: 1}
	svc := NewStudentService(repo, validator.New(), zap.NewNop(), nil)

	students, pagination, err := svc.List(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}

// --- Fixtures ---

type studentRepoStub struct {
	byID       map[string]*models.Student
	listResult []models.Student
	listTotal  int
	created    []models.Student
	updated    []models.Student
}

func (r *studentRepoStub) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	return r.listResult, r.listTotal, nil
}

func (r *studentRepoStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := r.byID[id]; ok {
		clone := *student
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (r *studentRepoStub) Create(ctx context.Context, student *models.Student) error {
	student.ID = "generated"
	r.created = append(r.created, *student)
	return nil
}

func (r *studentRepoStub) Update(ctx context.Context, student *models.Student) error {
	r.updated = append(r.updated, *student)
	return nil
}

func (r *studentRepoStub) Deactivate(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return sql.ErrNoRows
	}
	return nil
}
