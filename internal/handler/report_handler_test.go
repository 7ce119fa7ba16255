package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/KotaSaiGoutham/academy-api/internal/models"
	"github.com/KotaSaiGoutham/academy-api/internal/repository"
	"github.com/KotaSaiGoutham/academy-api/internal/service"
	"github.com/KotaSaiGoutham/academy-api/pkg/jobs"
)

type reportStoreStub struct {
	jobs map[string]*models.ReportJob
}

func (s *reportStoreStub) Create(ctx context.Context, job *models.ReportJob) error {
	if s.jobs == nil {
		s.jobs = make(map[string]*models.ReportJob)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *reportStoreStub) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (s *reportStoreStub) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	return nil
}

func (s *reportStoreStub) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	return nil, nil
}

func (s *reportStoreStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	return nil, nil
}

type queueStub struct {
	enqueued []jobs.Job
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	q.enqueued = append(q.enqueued, job)
	return nil
}

func newReportHandlerFixture() (*ReportHandler, *reportStoreStub, *queueStub) {
	store := &reportStoreStub{jobs: make(map[string]*models.ReportJob)}
	queue := &queueStub{}
	svc := service.NewReportService(store, queue, nil, nil, nil, service.ReportServiceConfig{})
	return NewReportHandler(svc), store, queue
}

func TestReportGenerateQueuesJob(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, store, queue := newReportHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/reports/generate", bytes.NewReader([]byte(`{"type":"timetable","date":"2026-01-05","format":"csv"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Generate(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, queue.enqueued, 1)
	require.Len(t, store.jobs, 1)
	var envelope struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.ID)
	require.Equal(t, string(models.ReportStatusQueued), envelope.Data.Status)
}

func TestReportGenerateRejectsUnknownType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, queue := newReportHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/reports/generate", bytes.NewReader([]byte(`{"type":"grades","date":"2026-01-05","format":"csv"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, queue.enqueued)
}

func TestReportStatusNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _, _ := newReportHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/reports/missing/status", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Status(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}
