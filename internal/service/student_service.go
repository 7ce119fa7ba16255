package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/KotaSaiGoutham/academy-api/internal/models"
	"github.com/KotaSaiGoutham/academy-api/internal/schedule"
	appErrors "github.com/KotaSaiGoutham/academy-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, id string) error
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	FullName           string   `json:"full_name" validate:"required"`
	Subject            string   `json:"subject" validate:"required"`
	Phone              string   `json:"phone"`
	MonthlyFee         *float64 `json:"monthly_fee" validate:"omitempty,gte=0"`
	WeeklyAvailability []string `json:"weekly_availability"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	FullName           string   `json:"full_name" validate:"required"`
	Subject            string   `json:"subject" validate:"required"`
	Phone              string   `json:"phone"`
	MonthlyFee         *float64 `json:"monthly_fee" validate:"omitempty,gte=0"`
	WeeklyAvailability []string `json:"weekly_availability"`
	Active             bool     `json:"active"`
}

// StudentService handles roster use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger, metrics: metrics}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns one student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student. Malformed availability strings are kept
// as-is and skipped later at generation time, but they are logged here so
// the admin has a chance to correct them.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	s.warnUnparsable(req.FullName, req.WeeklyAvailability)
	student := &models.Student{
		FullName:           req.FullName,
		Subject:            req.Subject,
		Phone:              req.Phone,
		MonthlyFee:         req.MonthlyFee,
		WeeklyAvailability: pq.StringArray(req.WeeklyAvailability),
		Active:             true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update replaces mutable student fields.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	s.warnUnparsable(req.FullName, req.WeeklyAvailability)
	existing.FullName = req.FullName
	existing.Subject = req.Subject
	existing.Phone = req.Phone
	existing.MonthlyFee = req.MonthlyFee
	existing.WeeklyAvailability = pq.StringArray(req.WeeklyAvailability)
	existing.Active = req.Active
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return existing, nil
}

// Deactivate soft-deletes a student from the active roster.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	return nil
}

func (s *StudentService) warnUnparsable(name string, availability []string) {
	skipped := 0
	for _, raw := range availability {
		if _, ok := schedule.Parse(raw); !ok {
			skipped++
			s.logger.Warn("unparsable availability slot",
				zap.String("student", name),
				zap.String("slot", raw))
		}
	}
	if skipped > 0 && s.metrics != nil {
		s.metrics.RecordSlotSkips(skipped)
	}
}
