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
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/KotaSaiGoutham/academy-api/internal/models"
	"github.com/KotaSaiGoutham/academy-api/internal/service"
)

type studentListerStub struct {
	students []models.Student
}

func (s *studentListerStub) ListActive(ctx context.Context) ([]models.Student, error) {
	return s.students, nil
}

type entryRepoStub struct {
	entries []models.TimetableEntry
	updated map[string]string
}

func (r *entryRepoStub) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error {
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *entryRepoStub) ListByDate(ctx context.Context, date time.Time) ([]models.TimetableEntry, error) {
	return r.entries, nil
}

func (r *entryRepoStub) FindByID(ctx context.Context, id string) (*models.TimetableEntry, error) {
	for i := range r.entries {
		if r.entries[i].ID == id {
			return &r.entries[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *entryRepoStub) UpdateTopic(ctx context.Context, id, topic string) error {
	if r.updated == nil {
		r.updated = make(map[string]string)
	}
	r.updated[id] = topic
	return nil
}

func newTimetableHandler(repo *entryRepoStub) *TimetableHandler {
	svc := service.NewTimetableService(&studentListerStub{}, repo, nil, nil, nil, nil, nil, service.TimetableConfig{})
	return NewTimetableHandler(svc)
}

func TestTimetableListByDateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	start := time.Date(2026, 1, 5, 16, 0, 0, 0, time.UTC)
	repo := &entryRepoStub{entries: []models.TimetableEntry{{
		ID:          "entry-1",
		StudentID:   "s1",
		StudentName: "Asha",
		ClassDate:   start.Truncate(24 * time.Hour),
		StartAt:     start,
		EndAt:       start.Add(time.Hour),
	}}}
	handler := newTimetableHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/timetables?date=2026-01-05", nil)

	handler.ListByDate(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data struct {
			Date    string `json:"date"`
			Entries []struct {
				StudentName string `json:"studentName"`
				FeePerClass string `json:"feePerClass"`
			} `json:"entries"`
		} `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "2026-01-05", envelope.Data.Date)
	require.Len(t, envelope.Data.Entries, 1)
	require.Equal(t, "Asha", envelope.Data.Entries[0].StudentName)
	require.Equal(t, "N/A", envelope.Data.Entries[0].FeePerClass)
	require.Contains(t, envelope.Meta, "processing_time_ms")
}

func TestTimetableListByDateRequiresDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTimetableHandler(&entryRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/timetables", nil)

	handler.ListByDate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableGenerateRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTimetableHandler(&entryRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader([]byte(`{"date":`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableWeekGridSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := service.NewTimetableService(&studentListerStub{students: []models.Student{{
		ID:                 "s1",
		FullName:           "Asha",
		Active:             true,
		WeeklyAvailability: []string{"Monday-04:00pm"},
	}}}, &entryRepoStub{}, nil, nil, nil, nil, nil, service.TimetableConfig{})
	handler := NewTimetableHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/timetables/week?date=2026-01-07", nil)

	handler.WeekGrid(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data struct {
			WeekOf string `json:"weekOf"`
			Days   []struct {
				Weekday string `json:"weekday"`
			} `json:"days"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "2026-01-05", envelope.Data.WeekOf)
	require.Len(t, envelope.Data.Days, 7)
	require.Equal(t, "Monday", envelope.Data.Days[0].Weekday)
}

func TestTimetableSummaryRequiresDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newTimetableHandler(&entryRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/timetables/summary", nil)

	handler.Summary(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
