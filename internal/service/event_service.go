package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hankpharris/tempora-ai-sub000/internal/models"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
)

type eventRepository interface {
	ListBySchedule(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
	GetOwner(ctx context.Context, eventID string) (string, error)
	Create(ctx context.Context, event *models.Event) error
	CreateMirrored(ctx context.Context, first, second *models.Event) error
	Update(ctx context.Context, event *models.Event, replaceSlots bool) error
	Delete(ctx context.Context, id string) error
}

type friendshipChecker interface {
	AcceptedBetween(ctx context.Context, userA, userB string) (bool, error)
}

type primaryScheduleProvider interface {
	EnsurePrimary(ctx context.Context, ownerID string) (*models.Schedule, error)
	GetOwned(ctx context.Context, scheduleID, callerID string) (*models.Schedule, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// EventService manages events on behalf of their owners. Every operation
// re-checks that the touched schedule belongs to the caller; callers are
// identified by user id, never by what they claim to own.
type EventService struct {
	repo        eventRepository
	schedules   primaryScheduleProvider
	friendships friendshipChecker
	users       userReader
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEventService constructs the service.
func NewEventService(repo eventRepository, schedules primaryScheduleProvider, friendships friendshipChecker, users userReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{
		repo:        repo,
		schedules:   schedules,
		friendships: friendships,
		users:       users,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// TimeSlotInput is one start/end pair in a write payload.
type TimeSlotInput struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

// CreateEventRequest describes the create payload.
type CreateEventRequest struct {
	ScheduleID  string           `json:"schedule_id" validate:"required"`
	Name        string           `json:"name" validate:"required,max=200"`
	Description *string          `json:"description"`
	TimeSlots   []TimeSlotInput  `json:"time_slots" validate:"required,min=1,dive"`
	Frequency   models.Frequency `json:"frequency"`
	RepeatUntil *time.Time       `json:"repeat_until"`
}

// UpdateEventRequest applies only the provided fields.
type UpdateEventRequest struct {
	Name             *string           `json:"name" validate:"omitempty,max=200"`
	Description      *string           `json:"description"`
	TimeSlots        []TimeSlotInput   `json:"time_slots" validate:"omitempty,min=1,dive"`
	Frequency        *models.Frequency `json:"frequency"`
	RepeatUntil      *time.Time        `json:"repeat_until"`
	ClearRepeatUntil bool              `json:"clear_repeat_until"`
	TargetScheduleID *string           `json:"target_schedule_id"`
}

// SharedEventRequest creates mirrored events on the caller's and a
// confirmed friend's primary schedules.
type SharedEventRequest struct {
	FriendID    string           `json:"friend_id" validate:"required"`
	Name        string           `json:"name" validate:"required,max=200"`
	Description *string          `json:"description"`
	TimeSlots   []TimeSlotInput  `json:"time_slots" validate:"required,min=1,dive"`
	Frequency   models.Frequency `json:"frequency"`
	RepeatUntil *time.Time       `json:"repeat_until"`
}

// List returns events on a caller-owned schedule, optionally filtered to
// those with any slot overlapping [from, to].
func (s *EventService) List(ctx context.Context, callerID, scheduleID string, from, to *time.Time) ([]models.Event, error) {
	if _, err := s.schedules.GetOwned(ctx, scheduleID, callerID); err != nil {
		return nil, err
	}
	events, err := s.repo.ListBySchedule(ctx, models.EventFilter{ScheduleID: scheduleID, From: from, To: to})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return events, nil
}

// ListForFriend reads a friend's schedule, gated on an accepted friendship
// in either row order.
func (s *EventService) ListForFriend(ctx context.Context, callerID, friendID, scheduleID string, from, to *time.Time) ([]models.Event, error) {
	if err := s.assertFriendship(ctx, callerID, friendID); err != nil {
		return nil, err
	}
	if _, err := s.schedules.GetOwned(ctx, scheduleID, friendID); err != nil {
		return nil, err
	}
	events, err := s.repo.ListBySchedule(ctx, models.EventFilter{ScheduleID: scheduleID, From: from, To: to})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list friend events")
	}
	return events, nil
}

// assertFriendship fails with an ownership error unless an ACCEPTED
// friendship links the two users. It must run before any lazy schedule
// creation so denied requests leave no rows behind.
func (s *EventService) assertFriendship(ctx context.Context, callerID, friendID string) error {
	accepted, err := s.friendships.AcceptedBetween(ctx, callerID, friendID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check friendship")
	}
	if !accepted {
		return appErrors.Clone(appErrors.ErrOwnership, "no accepted friendship with that user")
	}
	return nil
}

// Get loads a single caller-owned event.
func (s *EventService) Get(ctx context.Context, callerID, eventID string) (*models.Event, error) {
	event, err := s.loadOwned(ctx, callerID, eventID)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Create validates the payload and inserts the event with its slots.
func (s *EventService) Create(ctx context.Context, callerID string, req CreateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	frequency := req.Frequency
	if frequency == "" {
		frequency = models.FrequencyNever
	}
	if err := validateSlots(req.TimeSlots, frequency, req.RepeatUntil); err != nil {
		return nil, err
	}
	if _, err := s.schedules.GetOwned(ctx, req.ScheduleID, callerID); err != nil {
		return nil, err
	}

	event := &models.Event{
		ScheduleID:  req.ScheduleID,
		Name:        req.Name,
		Description: req.Description,
		Frequency:   frequency,
		RepeatUntil: req.RepeatUntil,
		Slots:       slotsFromInput(req.TimeSlots),
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.invalidateViews(ctx, callerID)
	return event, nil
}

// Update applies a partial update to a caller-owned event, optionally
// re-parenting it onto another of the caller's schedules.
func (s *EventService) Update(ctx context.Context, callerID, eventID string, req UpdateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	event, err := s.loadOwned(ctx, callerID, eventID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		event.Name = *req.Name
	}
	if req.Description != nil {
		event.Description = req.Description
	}
	if req.Frequency != nil {
		if !models.KnownFrequency(*req.Frequency) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown frequency %q", *req.Frequency))
		}
		event.Frequency = *req.Frequency
	}
	if req.ClearRepeatUntil {
		event.RepeatUntil = nil
	} else if req.RepeatUntil != nil {
		event.RepeatUntil = req.RepeatUntil
	}

	replaceSlots := req.TimeSlots != nil
	if replaceSlots {
		event.Slots = slotsFromInput(req.TimeSlots)
	}

	slots := make([]TimeSlotInput, len(event.Slots))
	for i, slot := range event.Slots {
		slots[i] = TimeSlotInput{Start: slot.StartsAt, End: slot.EndsAt}
	}
	if err := validateSlots(slots, event.Frequency, event.RepeatUntil); err != nil {
		return nil, err
	}

	if req.TargetScheduleID != nil && *req.TargetScheduleID != event.ScheduleID {
		if _, err := s.schedules.GetOwned(ctx, *req.TargetScheduleID, callerID); err != nil {
			return nil, err
		}
		event.ScheduleID = *req.TargetScheduleID
	}

	if err := s.repo.Update(ctx, event, replaceSlots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event")
	}
	s.invalidateViews(ctx, callerID)
	return event, nil
}

// Delete removes a caller-owned event.
func (s *EventService) Delete(ctx context.Context, callerID, eventID string) error {
	if _, err := s.loadOwned(ctx, callerID, eventID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, eventID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event")
	}
	s.invalidateViews(ctx, callerID)
	return nil
}

// CreateShared inserts mirrored events on the caller's and a confirmed
// friend's primary schedules in one transaction, each description noting
// the other party.
func (s *EventService) CreateShared(ctx context.Context, callerID string, req SharedEventRequest) (*models.Event, *models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid shared event payload")
	}
	frequency := req.Frequency
	if frequency == "" {
		frequency = models.FrequencyNever
	}
	if err := validateSlots(req.TimeSlots, frequency, req.RepeatUntil); err != nil {
		return nil, nil, err
	}
	if req.FriendID == callerID {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "cannot share an event with yourself")
	}

	if err := s.assertFriendship(ctx, callerID, req.FriendID); err != nil {
		return nil, nil, err
	}

	caller, err := s.users.FindByID(ctx, callerID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load caller")
	}
	friend, err := s.users.FindByID(ctx, req.FriendID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load friend")
	}

	callerSchedule, err := s.schedules.EnsurePrimary(ctx, callerID)
	if err != nil {
		return nil, nil, err
	}
	friendSchedule, err := s.schedules.EnsurePrimary(ctx, req.FriendID)
	if err != nil {
		return nil, nil, err
	}

	callerEvent := &models.Event{
		ScheduleID:  callerSchedule.ID,
		Name:        req.Name,
		Description: annotate(req.Description, friend.FullName),
		Frequency:   frequency,
		RepeatUntil: req.RepeatUntil,
		Slots:       slotsFromInput(req.TimeSlots),
	}
	friendEvent := &models.Event{
		ScheduleID:  friendSchedule.ID,
		Name:        req.Name,
		Description: annotate(req.Description, caller.FullName),
		Frequency:   frequency,
		RepeatUntil: req.RepeatUntil,
		Slots:       slotsFromInput(req.TimeSlots),
	}

	if err := s.repo.CreateMirrored(ctx, callerEvent, friendEvent); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create shared event")
	}
	s.invalidateViews(ctx, callerID)
	s.invalidateViews(ctx, req.FriendID)
	return callerEvent, friendEvent, nil
}

func (s *EventService) loadOwned(ctx context.Context, callerID, eventID string) (*models.Event, error) {
	ownerID, err := s.repo.GetOwner(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve event owner")
	}
	if ownerID != callerID {
		return nil, appErrors.Clone(appErrors.ErrOwnership, "event does not belong to the caller")
	}
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

func (s *EventService) invalidateViews(ctx context.Context, ownerID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, viewCachePattern(ownerID))
	}
}

func validateSlots(slots []TimeSlotInput, frequency models.Frequency, repeatUntil *time.Time) error {
	if !models.KnownFrequency(frequency) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown frequency %q", frequency))
	}
	for i, slot := range slots {
		if !slot.End.After(slot.Start) {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("slot %d: end must be after start", i))
		}
	}
	if frequency != models.FrequencyNever && repeatUntil != nil && len(slots) > 0 {
		if !repeatUntil.After(slots[0].Start) {
			return appErrors.Clone(appErrors.ErrValidation, "repeat_until must be after the first slot start")
		}
	}
	return nil
}

func slotsFromInput(inputs []TimeSlotInput) []models.EventSlot {
	slots := make([]models.EventSlot, len(inputs))
	for i, input := range inputs {
		slots[i] = models.EventSlot{Position: i, StartsAt: input.Start, EndsAt: input.End}
	}
	return slots
}

func annotate(description *string, otherParty string) *string {
	suffix := fmt.Sprintf("Shared with %s.", otherParty)
	if description == nil || *description == "" {
		return &suffix
	}
	combined := fmt.Sprintf("%s %s", *description, suffix)
	return &combined
}
