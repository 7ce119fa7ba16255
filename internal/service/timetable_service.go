package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/KotaSaiGoutham/academy-api/internal/dto"
	"github.com/KotaSaiGoutham/academy-api/internal/models"
	"github.com/KotaSaiGoutham/academy-api/internal/schedule"
	appErrors "github.com/KotaSaiGoutham/academy-api/pkg/errors"
)

const dateLayout = "2006-01-02"

type activeStudentLister interface {
	ListActive(ctx context.Context) ([]models.Student, error)
}

type timetableRepository interface {
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error
	ListByDate(ctx context.Context, date time.Time) ([]models.TimetableEntry, error)
	FindByID(ctx context.Context, id string) (*models.TimetableEntry, error)
	UpdateTopic(ctx context.Context, id, topic string) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// TimetableConfig governs generation behaviour.
type TimetableConfig struct {
	ClassDuration   time.Duration
	ClassesPerMonth int
	DayCacheTTL     time.Duration
}

// TimetableService expands weekly availability into dated class entries and
// serves day and week views of the generated schedule.
type TimetableService struct {
	students  activeStudentLister
	entries   timetableRepository
	tx        txProvider
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableConfig
}

// NewTimetableService wires the generator dependencies.
func NewTimetableService(
	students activeStudentLister,
	entries timetableRepository,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ClassDuration <= 0 {
		cfg.ClassDuration = time.Hour
	}
	if cfg.ClassesPerMonth <= 0 {
		cfg.ClassesPerMonth = 12
	}
	return &TimetableService{
		students:  students,
		entries:   entries,
		tx:        tx,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate expands every active student's weekly availability against the
// requested date and persists the resulting entries in one transaction.
// Re-running for the same date upserts on (student, start time), so already
// generated entries keep their id and topic.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}

	students, err := s.students.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active students")
	}

	entries, skipped := s.expandDay(students, date, req.GeneratedBy)

	if len(entries) > 0 {
		if s.tx == nil {
			return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
		}
		tx, err := s.tx.BeginTxx(ctx, nil)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
		}
		if err := s.entries.UpsertBatch(ctx, tx, entries); err != nil {
			_ = tx.Rollback()
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to persist timetable entries")
		}
		if err := tx.Commit(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit timetable entries")
		}
	}

	if s.metrics != nil {
		s.metrics.RecordEntriesGenerated(len(entries))
		s.metrics.RecordSlotSkips(skipped)
	}
	s.invalidateDay(ctx, req.Date)

	stored, err := s.entries.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload generated timetable")
	}

	resp := &dto.GenerateTimetableResponse{
		Date:         req.Date,
		Entries:      toEntryResponses(OrderEntries(stored)),
		SkippedSlots: skipped,
	}
	return resp, nil
}

// ListByDate returns the ordered schedule for one calendar date. The second
// return value reports whether the payload came from cache.
func (s *TimetableService) ListByDate(ctx context.Context, rawDate string) (*dto.GenerateTimetableResponse, bool, error) {
	date, err := time.ParseInLocation(dateLayout, rawDate, time.UTC)
	if err != nil {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}

	key := dayCacheKey(rawDate)
	var cached dto.GenerateTimetableResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	stored, err := s.entries.ListByDate(ctx, date)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable entries")
	}

	resp := &dto.GenerateTimetableResponse{
		Date:    rawDate,
		Entries: toEntryResponses(OrderEntries(stored)),
	}
	if err := s.cache.Set(ctx, key, resp, s.cfg.DayCacheTTL); err != nil {
		s.logger.Warn("failed to cache day schedule", zap.String("date", rawDate), zap.Error(err))
	}
	return resp, false, nil
}

// WeekGrid renders the Monday-first weekly view for the week containing the
// given date. The grid is computed from current availability, it is a
// preview and is not persisted. Every day cell is ordered by the week-wide
// student ranking, so a student whose earliest class falls on another day
// still leads the cells they appear in.
func (s *TimetableService) WeekGrid(ctx context.Context, rawDate string) (*dto.WeekGridResponse, error) {
	date, err := time.ParseInLocation(dateLayout, rawDate, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}

	students, err := s.students.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active students")
	}
	ranks := weekRanks(students, schedule.Weekdays)

	monday := date.AddDate(0, 0, -((int(date.Weekday()) + 6) % 7))
	resp := &dto.WeekGridResponse{
		WeekOf: monday.Format(dateLayout),
		Days:   make([]dto.WeekGridDay, 0, len(schedule.Weekdays)),
	}
	for offset := range schedule.Weekdays {
		day := monday.AddDate(0, 0, offset)
		entries, _ := s.expandDay(students, day, "")
		resp.Days = append(resp.Days, dto.WeekGridDay{
			Weekday: day.Weekday().String(),
			Date:    day.Format(dateLayout),
			Entries: toEntryResponses(orderEntriesRanked(entries, ranks)),
		})
	}
	return resp, nil
}

// UpdateTopic fills in the lesson topic on one generated entry.
func (s *TimetableService) UpdateTopic(ctx context.Context, id string, req dto.UpdateTopicRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid topic payload")
	}
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entry")
	}
	if err := s.entries.UpdateTopic(ctx, id, req.Topic); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to update topic")
	}
	entry.Topic = req.Topic
	s.invalidateDay(ctx, entry.ClassDate.Format(dateLayout))
	return entry, nil
}

// Summarize aggregates one day's schedule: total class hours and the fee
// total across entries with a known fee. Entries without a fee still count
// toward hours.
func (s *TimetableService) Summarize(ctx context.Context, rawDate string) (*dto.TimetableSummaryResponse, error) {
	date, err := time.ParseInLocation(dateLayout, rawDate, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted as YYYY-MM-DD")
	}
	stored, err := s.entries.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable entries")
	}
	summary := Summarize(stored)
	return &dto.TimetableSummaryResponse{
		Date:       rawDate,
		TotalHours: summary.TotalHours,
		TotalFee:   summary.TotalFee,
	}, nil
}

// Summarize reduces entries to their hour and fee totals.
func Summarize(entries []models.TimetableEntry) models.TimetableSummary {
	var summary models.TimetableSummary
	for _, entry := range entries {
		summary.TotalHours += entry.EndAt.Sub(entry.StartAt).Hours()
		if entry.FeePerClass != nil {
			summary.TotalFee += *entry.FeePerClass
		}
	}
	summary.TotalFee = roundMoney(summary.TotalFee)
	return summary
}

// expandDay is the pure generation step: it selects every availability slot
// matching the date's weekday, skipping unparsable strings, and returns the
// dated entries plus the skip count. Student and slot order is preserved.
func (s *TimetableService) expandDay(students []models.Student, date time.Time, generatedBy string) ([]models.TimetableEntry, int) {
	now := time.Now().UTC()
	var entries []models.TimetableEntry
	skipped := 0
	for _, student := range students {
		if !student.Active {
			continue
		}
		for _, raw := range student.WeeklyAvailability {
			slot, ok := schedule.Parse(raw)
			if !ok {
				skipped++
				s.logger.Debug("skipping unparsable availability slot",
					zap.String("student_id", student.ID),
					zap.String("slot", raw))
				continue
			}
			if slot.Weekday != date.Weekday() {
				continue
			}
			start := slot.At(date)
			entries = append(entries, models.TimetableEntry{
				ID:            uuid.NewString(),
				StudentID:     student.ID,
				StudentName:   student.FullName,
				ClassDate:     date,
				StartAt:       start,
				EndAt:         start.Add(s.cfg.ClassDuration),
				FeePerClass:   s.feePerClass(student.MonthlyFee),
				AutoGenerated: true,
				GeneratedBy:   generatedBy,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		}
	}
	return entries, skipped
}

// feePerClass amortizes the monthly fee over the configured class count.
// Missing, zero or negative fees yield nil, rendered as "N/A" downstream.
func (s *TimetableService) feePerClass(monthlyFee *float64) *float64 {
	if monthlyFee == nil || *monthlyFee <= 0 {
		return nil
	}
	fee := roundMoney(*monthlyFee / float64(s.cfg.ClassesPerMonth))
	return &fee
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func toEntryResponses(entries []models.TimetableEntry) []dto.TimetableEntryResponse {
	out := make([]dto.TimetableEntryResponse, 0, len(entries))
	for _, entry := range entries {
		fee := dto.FeeUnknownLabel
		if entry.FeePerClass != nil {
			fee = fmt.Sprintf("%.2f", *entry.FeePerClass)
		}
		minutes := entry.StartAt.Hour()*60 + entry.StartAt.Minute()
		slot := schedule.AvailabilitySlot{Weekday: entry.StartAt.Weekday(), ClockMinutes: minutes}
		out = append(out, dto.TimetableEntryResponse{
			ID:            entry.ID,
			StudentID:     entry.StudentID,
			StudentName:   entry.StudentName,
			Date:          entry.ClassDate.Format(dateLayout),
			StartAt:       entry.StartAt,
			EndAt:         entry.EndAt,
			StartLabel:    slot.Format(),
			FeePerClass:   fee,
			Topic:         entry.Topic,
			AutoGenerated: entry.AutoGenerated,
		})
	}
	return out
}

func dayCacheKey(date string) string {
	return "timetable:day:" + date
}

func (s *TimetableService) invalidateDay(ctx context.Context, date string) {
	if err := s.cache.Invalidate(ctx, dayCacheKey(date)); err != nil {
		s.logger.Warn("failed to invalidate day cache", zap.String("date", date), zap.Error(err))
	}
}
