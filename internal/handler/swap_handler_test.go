package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/KotaSaiGoutham/academy-api/internal/models"
	"github.com/KotaSaiGoutham/academy-api/internal/service"
)

type swapRepoStub struct {
	students map[string]*models.Student
}

func (r *swapRepoStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	student, ok := r.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *student
	return &clone, nil
}

func (r *swapRepoStub) UpdateAvailabilityTx(ctx context.Context, exec sqlx.ExtContext, id string, availability pq.StringArray) error {
	r.students[id].WeeklyAvailability = availability
	return nil
}

func newSwapHandlerFixture(t *testing.T) (*SwapHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sqlxDB := sqlx.NewDb(db, "sqlmock")

	repo := &swapRepoStub{students: map[string]*models.Student{
		"a": {ID: "a", FullName: "Asha", Active: true, WeeklyAvailability: pq.StringArray{"Monday-04:00pm"}},
		"b": {ID: "b", FullName: "Bilal", Active: true, WeeklyAvailability: pq.StringArray{"Tuesday-10:00am"}},
	}}
	svc := service.NewSwapService(repo, sqlxDB, nil, nil, nil, nil, 10)
	return NewSwapHandler(svc), mock
}

func TestSwapSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, mock := newSwapHandlerFixture(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/students/swap", bytes.NewReader([]byte(`{"sourceId":"a","targetId":"b"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Swap(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data struct {
			Source models.Student `json:"source"`
			Target models.Student `json:"target"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, pq.StringArray{"Tuesday-10:00am"}, envelope.Data.Source.WeeklyAvailability)
	require.Equal(t, pq.StringArray{"Monday-04:00pm"}, envelope.Data.Target.WeeklyAvailability)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSwapRejectsMissingTarget(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newSwapHandlerFixture(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/students/swap", bytes.NewReader([]byte(`{"sourceId":"a"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Swap(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSwapHistoryEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newSwapHandlerFixture(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/students/swap/history", nil)

	handler.History(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data []models.SwapRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Empty(t, envelope.Data)
}
