package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/KotaSaiGoutham/academy-api/internal/dto"
	"github.com/KotaSaiGoutham/academy-api/internal/models"
	appErrors "github.com/KotaSaiGoutham/academy-api/pkg/errors"
)

type swapStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	UpdateAvailabilityTx(ctx context.Context, exec sqlx.ExtContext, id string, availability pq.StringArray) error
}

// SwapService exchanges the full weekly availability of two students. Both
// updates run in a single transaction so a half-applied swap can never
// become visible. At most one swap involving a given student may be in
// flight at a time.
type SwapService struct {
	students  swapStudentRepository
	tx        txProvider
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger

	historySize int

	mu       sync.Mutex
	inflight map[string]struct{}
	history  []models.SwapRecord
}

// NewSwapService constructs the swap engine.
func NewSwapService(
	students swapStudentRepository,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	historySize int,
) *SwapService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if historySize <= 0 {
		historySize = 10
	}
	return &SwapService{
		students:    students,
		tx:          tx,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		historySize: historySize,
		inflight:    make(map[string]struct{}),
	}
}

// Swap exchanges the availability lists of the two students and records an
// audit entry on success. The raw strings move between students unparsed,
// including any malformed ones.
func (s *SwapService) Swap(ctx context.Context, req dto.SwapRequest) (*dto.SwapResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid swap payload")
	}
	if req.SourceID == req.TargetID {
		s.recordOutcome("rejected")
		return nil, appErrors.Clone(appErrors.ErrInvalidOperation, "cannot swap a student with themselves")
	}

	if !s.acquire(req.SourceID, req.TargetID) {
		s.recordOutcome("rejected")
		return nil, appErrors.Clone(appErrors.ErrConflict, "another swap involving these students is in progress")
	}
	defer s.release(req.SourceID, req.TargetID)

	source, err := s.loadStudent(ctx, req.SourceID)
	if err != nil {
		s.recordOutcome("rejected")
		return nil, err
	}
	target, err := s.loadStudent(ctx, req.TargetID)
	if err != nil {
		s.recordOutcome("rejected")
		return nil, err
	}

	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		s.recordOutcome("failure")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	if err := s.students.UpdateAvailabilityTx(ctx, tx, source.ID, target.WeeklyAvailability); err != nil {
		_ = tx.Rollback()
		s.recordOutcome("failure")
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to update source availability")
	}
	if err := s.students.UpdateAvailabilityTx(ctx, tx, target.ID, source.WeeklyAvailability); err != nil {
		_ = tx.Rollback()
		s.recordOutcome("failure")
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to update target availability")
	}
	if err := tx.Commit(); err != nil {
		s.recordOutcome("failure")
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit swap")
	}

	record := models.SwapRecord{
		SourceStudentID: source.ID,
		TargetStudentID: target.ID,
		SwappedAt:       time.Now().UTC(),
	}
	s.appendHistory(record)
	s.recordOutcome("success")

	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, "timetable:day:*"); err != nil {
			s.logger.Warn("failed to invalidate day cache after swap", zap.Error(err))
		}
	}
	s.logger.Info("availability swapped",
		zap.String("source_id", source.ID),
		zap.String("target_id", target.ID))

	updatedSource := *source
	updatedTarget := *target
	updatedSource.WeeklyAvailability = target.WeeklyAvailability
	updatedTarget.WeeklyAvailability = source.WeeklyAvailability
	return &dto.SwapResponse{Source: updatedSource, Target: updatedTarget, Record: record}, nil
}

// History returns swap audit records, newest first. The history is bounded
// and purely in-memory.
func (s *SwapService) History() []models.SwapRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SwapRecord, len(s.history))
	for i, record := range s.history {
		out[len(s.history)-1-i] = record
	}
	return out
}

func (s *SwapService) loadStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student "+id+" not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *SwapService) acquire(ids ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, busy := s.inflight[id]; busy {
			return false
		}
	}
	for _, id := range ids {
		s.inflight[id] = struct{}{}
	}
	return true
}

func (s *SwapService) release(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.inflight, id)
	}
}

func (s *SwapService) appendHistory(record models.SwapRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, record)
	if len(s.history) > s.historySize {
		s.history = s.history[len(s.history)-s.historySize:]
	}
}

func (s *SwapService) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordSwap(outcome)
	}
}
