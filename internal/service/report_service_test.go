package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KotaSaiGoutham/academy-api/internal/dto"
	"github.com/KotaSaiGoutham/academy-api/internal/models"
	"github.com/KotaSaiGoutham/academy-api/internal/repository"
	appErrors "github.com/KotaSaiGoutham/academy-api/pkg/errors"
	"github.com/KotaSaiGoutham/academy-api/pkg/jobs"
)

func TestReportServiceCreateJobEnqueues(t *testing.T) {
	store := newReportStoreStub()
	queue := &queueStub{}
	svc := NewReportService(store, queue, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportTypeTimetable,
		Date:   "2026-01-05",
		Format: models.ReportFormatCSV,
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.ID, queue.enqueued[0].ID)
}

func TestReportServiceCreateJobValidatesType(t *testing.T) {
	svc := NewReportService(newReportStoreStub(), &queueStub{}, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportType("grades"),
		Date:   "2026-01-05",
		Format: models.ReportFormatCSV,
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceCreateJobMarksFailedOnEnqueueError(t *testing.T) {
	store := newReportStoreStub()
	queue := &queueStub{err: errors.New("queue full")}
	svc := NewReportService(store, queue, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportTypeSummary,
		Date:   "2026-01-05",
		Format: models.ReportFormatPDF,
	}, "admin-1")
	require.Error(t, err)
	require.Len(t, store.jobs, 1)
	for _, job := range store.jobs {
		assert.Equal(t, models.ReportStatusFailed, job.Status)
	}
}

func TestReportServiceGetStatusNotFound(t *testing.T) {
	svc := NewReportService(newReportStoreStub(), &queueStub{}, nil, validator.New(), zap.NewNop(), ReportServiceConfig{})

	_, err := svc.GetStatus(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportWorkerMarksFinished(t *testing.T) {
	store := newReportStoreStub()
	job := &models.ReportJob{
		Type:   models.ReportTypeTimetable,
		Params: models.ReportJobParams{Date: "2026-01-05", Format: models.ReportFormatCSV},
	}
	require.NoError(t, store.Create(context.Background(), job))

	worker := NewReportWorker(store, generatorStub{result: &ExportResult{URL: "/api/v1/export/token-1"}}, 3, zap.NewNop())
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID}))

	stored := store.jobs[job.ID]
	assert.Equal(t, models.ReportStatusFinished, stored.Status)
	assert.Equal(t, 100, stored.Progress)
	require.NotNil(t, stored.ResultURL)
	assert.Equal(t, "/api/v1/export/token-1", *stored.ResultURL)
	require.NotNil(t, stored.FinishedAt)
}

func TestReportWorkerRequeuesUntilRetriesExhausted(t *testing.T) {
	store := newReportStoreStub()
	job := &models.ReportJob{
		Type:   models.ReportTypeTimetable,
		Params: models.ReportJobParams{Date: "2026-01-05", Format: models.ReportFormatCSV},
	}
	require.NoError(t, store.Create(context.Background(), job))

	worker := NewReportWorker(store, generatorStub{err: errors.New("render failed")}, 2, zap.NewNop())

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 1}))
	assert.Equal(t, models.ReportStatusQueued, store.jobs[job.ID].Status)

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 2}))
	assert.Equal(t, models.ReportStatusFailed, store.jobs[job.ID].Status)
}

// --- Fixtures ---

type reportStoreStub struct {
	jobs map[string]*models.ReportJob
	seq  int
}

func newReportStoreStub() *reportStoreStub {
	return &reportStoreStub{jobs: make(map[string]*models.ReportJob)}
}

func (s *reportStoreStub) Create(ctx context.Context, job *models.ReportJob) error {
	s.seq++
	if job.ID == "" {
		job.ID = time.Now().UTC().Format("20060102150405") + "-" + string(rune('a'+s.seq))
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

func (s *reportStoreStub) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *job
	return &clone, nil
}

func (s *reportStoreStub) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (s *reportStoreStub) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range s.jobs {
		if job.Status == models.ReportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (s *reportStoreStub) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	return nil, nil
}

type queueStub struct {
	enqueued []jobs.Job
	err      error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

type generatorStub struct {
	result *ExportResult
	err    error
}

func (g generatorStub) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	return g.result, g.err
}
