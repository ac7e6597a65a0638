package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hankpharris/tempora-ai-sub000/internal/models"
)

// ScheduleRepository persists schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListByOwner returns all schedules owned by a user.
func (r *ScheduleRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Schedule, error) {
	const query = `SELECT id, owner_id, name, is_primary, created_at, updated_at FROM schedules WHERE owner_id = $1 ORDER BY is_primary DESC, created_at ASC`
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, ownerID); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// GetByID fetches a schedule.
func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	const query = `SELECT id, owner_id, name, is_primary, created_at, updated_at FROM schedules WHERE id = $1 LIMIT 1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// FindPrimary returns the owner's primary schedule, if one exists.
func (r *ScheduleRepository) FindPrimary(ctx context.Context, ownerID string) (*models.Schedule, error) {
	const query = `SELECT id, owner_id, name, is_primary, created_at, updated_at FROM schedules WHERE owner_id = $1 AND is_primary = TRUE LIMIT 1`
	var schedule models.Schedule
	if err := r.db.GetContext(ctx, &schedule, query, ownerID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find primary schedule: %w", err)
	}
	return &schedule, nil
}

// Create inserts a schedule.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now
	const query = `INSERT INTO schedules (id, owner_id, name, is_primary, created_at, updated_at)
VALUES (:id, :owner_id, :name, :is_primary, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}
