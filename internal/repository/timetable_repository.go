package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/KotaSaiGoutham/academy-api/internal/models"
)

// TimetableRepository persists generated class entries.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

const timetableColumns = "id, student_id, student_name, class_date, start_at, end_at, fee_per_class, topic, auto_generated, generated_by, created_at, updated_at"

// UpsertBatch writes generated entries on the supplied executor. The
// (student_id, start_at) key dedupes re-generation for the same date: an
// existing row keeps its id and topic, picking up the refreshed fee and name.
func (r *TimetableRepository) UpsertBatch(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error {
	if len(entries) == 0 {
		return nil
	}
	const query = `INSERT INTO timetable_entries (id, student_id, student_name, class_date, start_at, end_at, fee_per_class, topic, auto_generated, generated_by, created_at, updated_at)
        VALUES (:id, :student_id, :student_name, :class_date, :start_at, :end_at, :fee_per_class, :topic, :auto_generated, :generated_by, :created_at, :updated_at)
        ON CONFLICT (student_id, start_at) DO UPDATE SET
            student_name = EXCLUDED.student_name,
            end_at = EXCLUDED.end_at,
            fee_per_class = EXCLUDED.fee_per_class,
            generated_by = EXCLUDED.generated_by,
            updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
		entries[i].UpdatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, exec, query, entries[i]); err != nil {
			return fmt.Errorf("upsert timetable entry: %w", err)
		}
	}
	return nil
}

// ListByDate returns the stored entries for one calendar date ordered by
// start time, then student name.
func (r *TimetableRepository) ListByDate(ctx context.Context, date time.Time) ([]models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE class_date = $1 ORDER BY start_at ASC, LOWER(student_name) ASC", timetableColumns)
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, date.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// FindByID fetches one entry.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM timetable_entries WHERE id = $1", timetableColumns)
	var entry models.TimetableEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateTopic sets the lesson topic filled in after generation.
func (r *TimetableRepository) UpdateTopic(ctx context.Context, id, topic string) error {
	const query = `UPDATE timetable_entries SET topic = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, topic, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update topic: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update topic: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update topic: entry %s not found", id)
	}
	return nil
}
