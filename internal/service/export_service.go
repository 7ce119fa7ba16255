package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KotaSaiGoutham/academy-api/internal/dto"
	"github.com/KotaSaiGoutham/academy-api/internal/models"
	"github.com/KotaSaiGoutham/academy-api/pkg/export"
	"github.com/KotaSaiGoutham/academy-api/pkg/storage"
)

type exportEntrySource interface {
	ListByDate(ctx context.Context, date time.Time) ([]models.TimetableEntry, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets from the day's schedule and persists
// rendered files.
type ExportService struct {
	entries exportEntrySource
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.DownloadTokenSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(entries exportEntrySource, store fileStorage, signer *storage.DownloadTokenSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		entries: entries,
		storage: store,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate builds the dataset for the job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	datePart := sanitizeFilename(job.Params.Date)
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), datePart, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	date, err := time.ParseInLocation(dateLayout, job.Params.Date, time.UTC)
	if err != nil {
		return export.Dataset{}, "", fmt.Errorf("invalid report date %q", job.Params.Date)
	}
	entries, err := s.entries.ListByDate(ctx, date)
	if err != nil {
		return export.Dataset{}, "", err
	}
	entries = OrderEntries(entries)

	switch job.Type {
	case models.ReportTypeTimetable:
		return buildTimetableDataset(entries, job.Params.Date)
	case models.ReportTypeFees:
		return buildFeesDataset(entries, job.Params.Date)
	case models.ReportTypeSummary:
		return buildSummaryDataset(entries, job.Params.Date)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func buildTimetableDataset(entries []models.TimetableEntry, date string) (export.Dataset, string, error) {
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, map[string]string{
			"Student": entry.StudentName,
			"Start":   entry.StartAt.Format("15:04"),
			"End":     entry.EndAt.Format("15:04"),
			"Fee":     feeLabel(entry.FeePerClass),
			"Topic":   entry.Topic,
		})
	}
	summary := Summarize(entries)
	dataset := export.Dataset{
		Headers: []string{"Student", "Start", "End", "Fee", "Topic"},
		Rows:    rows,
		Footer: map[string]string{
			"Student": "Total",
			"Start":   fmt.Sprintf("%.1f h", summary.TotalHours),
			"Fee":     fmt.Sprintf("%.2f", summary.TotalFee),
		},
	}
	return dataset, fmt.Sprintf("Timetable %s", date), nil
}

func buildFeesDataset(entries []models.TimetableEntry, date string) (export.Dataset, string, error) {
	type feeLine struct {
		name    string
		classes int
		fee     *float64
		total   float64
	}
	byStudent := make(map[string]*feeLine)
	for _, entry := range entries {
		line := byStudent[entry.StudentID]
		if line == nil {
			line = &feeLine{name: entry.StudentName, fee: entry.FeePerClass}
			byStudent[entry.StudentID] = line
		}
		line.classes++
		if entry.FeePerClass != nil {
			line.total += *entry.FeePerClass
		}
	}
	lines := make([]*feeLine, 0, len(byStudent))
	for _, line := range byStudent {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool {
		return strings.ToLower(lines[i].name) < strings.ToLower(lines[j].name)
	})

	var grandTotal float64
	rows := make([]map[string]string, 0, len(lines))
	for _, line := range lines {
		grandTotal += line.total
		feeTotal := dto.FeeUnknownLabel
		if line.fee != nil {
			feeTotal = fmt.Sprintf("%.2f", line.total)
		}
		rows = append(rows, map[string]string{
			"Student":       line.name,
			"Classes":       fmt.Sprintf("%d", line.classes),
			"Fee Per Class": feeLabel(line.fee),
			"Fee Total":     feeTotal,
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Student", "Classes", "Fee Per Class", "Fee Total"},
		Rows:    rows,
		Footer: map[string]string{
			"Student":   "Total",
			"Fee Total": fmt.Sprintf("%.2f", roundMoney(grandTotal)),
		},
	}
	return dataset, fmt.Sprintf("Fees %s", date), nil
}

func buildSummaryDataset(entries []models.TimetableEntry, date string) (export.Dataset, string, error) {
	students := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		students[entry.StudentID] = struct{}{}
	}
	summary := Summarize(entries)
	rows := []map[string]string{
		{"Metric": "Date", "Value": date},
		{"Metric": "Classes", "Value": fmt.Sprintf("%d", len(entries))},
		{"Metric": "Students", "Value": fmt.Sprintf("%d", len(students))},
		{"Metric": "Total Hours", "Value": fmt.Sprintf("%.1f", summary.TotalHours)},
		{"Metric": "Total Fee", "Value": fmt.Sprintf("%.2f", summary.TotalFee)},
	}
	dataset := export.Dataset{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}
	return dataset, fmt.Sprintf("Summary %s", date), nil
}

func feeLabel(fee *float64) string {
	if fee == nil {
		return dto.FeeUnknownLabel
	}
	return fmt.Sprintf("%.2f", *fee)
}
