package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hankpharris/tempora-ai-sub000/internal/models"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
)

type scheduleRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Schedule, error)
	GetByID(ctx context.Context, id string) (*models.Schedule, error)
	FindPrimary(ctx context.Context, ownerID string) (*models.Schedule, error)
	Create(ctx context.Context, schedule *models.Schedule) error
}

// ScheduleService manages a user's schedules.
type ScheduleService struct {
	repo      scheduleRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs the service.
func NewScheduleService(repo scheduleRepository, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, validator: validate, logger: logger}
}

// CreateScheduleRequest describes the create payload.
type CreateScheduleRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// List returns the caller's schedules.
func (s *ScheduleService) List(ctx context.Context, ownerID string) ([]models.Schedule, error) {
	schedules, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return schedules, nil
}

// Create adds a named schedule for the caller.
func (s *ScheduleService) Create(ctx context.Context, ownerID string, req CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	schedule := &models.Schedule{OwnerID: ownerID, Name: req.Name}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return schedule, nil
}

// EnsurePrimary returns the owner's primary schedule, creating it on first
// use.
func (s *ScheduleService) EnsurePrimary(ctx context.Context, ownerID string) (*models.Schedule, error) {
	schedule, err := s.repo.FindPrimary(ctx, ownerID)
	if err == nil {
		return schedule, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up primary schedule")
	}

	schedule = &models.Schedule{OwnerID: ownerID, Name: "My Calendar", IsPrimary: true}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create primary schedule")
	}
	s.logger.Info("created primary schedule", zap.String("owner_id", ownerID), zap.String("schedule_id", schedule.ID))
	return schedule, nil
}

// GetOwned loads a schedule and verifies the caller owns it.
func (s *ScheduleService) GetOwned(ctx context.Context, scheduleID, callerID string) (*models.Schedule, error) {
	schedule, err := s.repo.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if schedule.OwnerID != callerID {
		return nil, appErrors.Clone(appErrors.ErrOwnership, "schedule does not belong to the caller")
	}
	return schedule, nil
}
