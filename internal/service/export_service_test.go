package service

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KotaSaiGoutham/academy-api/internal/models"
	"github.com/KotaSaiGoutham/academy-api/pkg/storage"
)

func TestExportServiceGeneratesTimetableCSV(t *testing.T) {
	fee := 100.0
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	entries := []models.TimetableEntry{
		timedEntry("s1", "Asha", day, 16, &fee),
		timedEntry("s2", "Bilal", day, 9, nil),
	}
	svc, store := newExportFixture(t, entries)

	result, err := svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypeTimetable,
		Params: models.ReportJobParams{Date: "2026-01-05", Format: models.ReportFormatCSV},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Contains(t, result.URL, "/export/")

	payload := string(store.files[result.RelativePath])
	lines := strings.Split(strings.TrimSpace(payload), "\n")
	require.Len(t, lines, 4) // header, two rows, totals footer
	assert.Equal(t, "Student,Start,End,Fee,Topic", lines[0])
	// Bilal's 9am class is ordered first and has no known fee
	assert.True(t, strings.HasPrefix(lines[1], "Bilal,09:00,10:00,N/A"))
	assert.True(t, strings.HasPrefix(lines[2], "Asha,16:00,17:00,100.00"))
	assert.True(t, strings.HasPrefix(lines[3], "Total,2.0 h"))
	assert.Contains(t, lines[3], "100.00")
}

func TestExportServiceFeesGroupsByStudent(t *testing.T) {
	fee := 50.0
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	entries := []models.TimetableEntry{
		timedEntry("s1", "Asha", day, 9, &fee),
		timedEntry("s1", "Asha", day, 11, &fee),
		timedEntry("s2", "Bilal", day, 10, nil),
	}
	svc, store := newExportFixture(t, entries)

	result, err := svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-2",
		Type:   models.ReportTypeFees,
		Params: models.ReportJobParams{Date: "2026-01-05", Format: models.ReportFormatCSV},
	})
	require.NoError(t, err)

	payload := string(store.files[result.RelativePath])
	lines := strings.Split(strings.TrimSpace(payload), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Asha,2,50.00,100.00", lines[1])
	assert.Equal(t, "Bilal,1,N/A,N/A", lines[2])
	// the grand total only includes known fees
	assert.Contains(t, lines[3], "100.00")
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc, _ := newExportFixture(t, nil)

	_, err := svc.Generate(context.Background(), &models.ReportJob{
		ID:     "job-3",
		Type:   models.ReportTypeSummary,
		Params: models.ReportJobParams{Date: "2026-01-05", Format: models.ReportFormat("xlsx")},
	})
	require.Error(t, err)
}

// --- Fixtures ---

func newExportFixture(t *testing.T, entries []models.TimetableEntry) (*ExportService, *memoryStorageStub) {
	store := &memoryStorageStub{files: make(map[string][]byte)}
	signer := storage.NewDownloadTokenSigner("test-secret", time.Hour)
	svc := NewExportService(
		exportEntrySourceStub{entries: entries},
		store,
		signer,
		ExportConfig{APIPrefix: "/api/v1", ResultTTL: time.Hour},
		zap.NewNop(),
		nil,
		nil,
	)
	return svc, store
}

type exportEntrySourceStub struct {
	entries []models.TimetableEntry
}

func (s exportEntrySourceStub) ListByDate(ctx context.Context, date time.Time) ([]models.TimetableEntry, error) {
	return s.entries, nil
}

type memoryStorageStub struct {
	files map[string][]byte
}

func (m *memoryStorageStub) Save(filename string, data []byte) (string, error) {
	m.files[filename] = data
	return filename, nil
}

func (m *memoryStorageStub) Open(filename string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func (m *memoryStorageStub) Delete(filename string) error {
	delete(m.files, filename)
	return nil
}

func (m *memoryStorageStub) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	return nil, nil
}

func timedEntry(studentID, name string, day time.Time, hour int, fee *float64) models.TimetableEntry {
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
	return models.TimetableEntry{
		ID:          studentID + start.Format("15"),
		StudentID:   studentID,
		StudentName: name,
		ClassDate:   day,
		StartAt:     start,
		EndAt:       start.Add(time.Hour),
		FeePerClass: fee,
	}
}
