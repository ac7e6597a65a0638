package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hankpharris/tempora-ai-sub000/internal/models"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
)

type eventRepoStub struct {
	events   map[string]*models.Event
	owners   map[string]string
	created  []*models.Event
	mirrored [][2]*models.Event
	deleted  []string
	err      error
}

func (s *eventRepoStub) ListBySchedule(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Event
	for _, ev := range s.events {
		if ev.ScheduleID == filter.ScheduleID {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (s *eventRepoStub) GetByID(ctx context.Context, id string) (*models.Event, error) {
	if ev, ok := s.events[id]; ok {
		copied := *ev
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *eventRepoStub) GetOwner(ctx context.Context, eventID string) (string, error) {
	if owner, ok := s.owners[eventID]; ok {
		return owner, nil
	}
	return "", sql.ErrNoRows
}

func (s *eventRepoStub) Create(ctx context.Context, event *models.Event) error {
	if s.err != nil {
		return s.err
	}
	event.ID = "ev-created"
	s.created = append(s.created, event)
	return nil
}

func (s *eventRepoStub) CreateMirrored(ctx context.Context, first, second *models.Event) error {
	if s.err != nil {
		return s.err
	}
	first.ID = "ev-mine"
	second.ID = "ev-theirs"
	s.mirrored = append(s.mirrored, [2]*models.Event{first, second})
	return nil
}

func (s *eventRepoStub) Update(ctx context.Context, event *models.Event, replaceSlots bool) error {
	if s.err != nil {
		return s.err
	}
	s.events[event.ID] = event
	return nil
}

func (s *eventRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type scheduleProviderStub struct {
	owned     map[string]string
	primaries map[string]*models.Schedule
}

func (s *scheduleProviderStub) GetOwned(ctx context.Context, scheduleID, callerID string) (*models.Schedule, error) {
	owner, ok := s.owned[scheduleID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	if owner != callerID {
		return nil, appErrors.Clone(appErrors.ErrOwnership, "schedule does not belong to the caller")
	}
	return &models.Schedule{ID: scheduleID, OwnerID: owner}, nil
}

func (s *scheduleProviderStub) EnsurePrimary(ctx context.Context, ownerID string) (*models.Schedule, error) {
	if schedule, ok := s.primaries[ownerID]; ok {
		return schedule, nil
	}
	return nil, appErrors.Clone(appErrors.ErrInternal, "no primary schedule")
}

type friendCheckerStub struct {
	accepted map[string]bool
}

func pairKey(a, b string) string {
	if a < b {
		return a + "|" + b
	}
	return b + "|" + a
}

func (s *friendCheckerStub) AcceptedBetween(ctx context.Context, userA, userB string) (bool, error) {
	return s.accepted[pairKey(userA, userB)], nil
}

type userReaderStub struct {
	users map[string]*models.User
}

func (s *userReaderStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func newEventServiceForTest(repo *eventRepoStub, schedules *scheduleProviderStub, friends *friendCheckerStub, users *userReaderStub) *EventService {
	if schedules == nil {
		schedules = &scheduleProviderStub{owned: map[string]string{}}
	}
	if friends == nil {
		friends = &friendCheckerStub{accepted: map[string]bool{}}
	}
	if users == nil {
		users = &userReaderStub{users: map[string]*models.User{}}
	}
	return NewEventService(repo, schedules, friends, users, nil, nil, nil)
}

func validSlot(start time.Time) TimeSlotInput {
	return TimeSlotInput{Start: start, End: start.Add(time.Hour)}
}

func TestEventServiceCreateRejectsInvertedSlot(t *testing.T) {
	repo := &eventRepoStub{events: map[string]*models.Event{}}
	svc := newEventServiceForTest(repo, &scheduleProviderStub{owned: map[string]string{"sch1": "u1"}}, nil, nil)

	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), "u1", CreateEventRequest{
		ScheduleID: "sch1",
		Name:       "Broken",
		TimeSlots:  []TimeSlotInput{{Start: start, End: start.Add(-time.Hour)}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestEventServiceCreateRejectsUnknownFrequency(t *testing.T) {
	repo := &eventRepoStub{events: map[string]*models.Event{}}
	svc := newEventServiceForTest(repo, &scheduleProviderStub{owned: map[string]string{"sch1": "u1"}}, nil, nil)

	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), "u1", CreateEventRequest{
		ScheduleID: "sch1",
		Name:       "Odd",
		TimeSlots:  []TimeSlotInput{validSlot(start)},
		Frequency:  models.Frequency("YEARLY"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEventServiceCreateRejectsRepeatUntilBeforeFirstSlot(t *testing.T) {
	repo := &eventRepoStub{events: map[string]*models.Event{}}
	svc := newEventServiceForTest(repo, &scheduleProviderStub{owned: map[string]string{"sch1": "u1"}}, nil, nil)

	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	until := start.AddDate(0, 0, -7)
	_, err := svc.Create(context.Background(), "u1", CreateEventRequest{
		ScheduleID:  "sch1",
		Name:        "Weekly",
		TimeSlots:   []TimeSlotInput{validSlot(start)},
		Frequency:   models.FrequencyWeekly,
		RepeatUntil: &until,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEventServiceCreateDefaultsToNever(t *testing.T) {
	repo := &eventRepoStub{events: map[string]*models.Event{}}
	svc := newEventServiceForTest(repo, &scheduleProviderStub{owned: map[string]string{"sch1": "u1"}}, nil, nil)

	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	event, err := svc.Create(context.Background(), "u1", CreateEventRequest{
		ScheduleID: "sch1",
		Name:       "One-off",
		TimeSlots:  []TimeSlotInput{validSlot(start), validSlot(start.Add(3 * time.Hour))},
	})
	require.NoError(t, err)
	assert.Equal(t, models.FrequencyNever, event.Frequency)
	require.Len(t, event.Slots, 2)
	assert.Equal(t, 0, event.Slots[0].Position)
	assert.Equal(t, 1, event.Slots[1].Position)
}

func TestEventServiceCreateRejectsForeignSchedule(t *testing.T) {
	repo := &eventRepoStub{events: map[string]*models.Event{}}
	svc := newEventServiceForTest(repo, &scheduleProviderStub{owned: map[string]string{"sch1": "other"}}, nil, nil)

	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	_, err := svc.Create(context.Background(), "u1", CreateEventRequest{
		ScheduleID: "sch1",
		Name:       "Sneaky",
		TimeSlots:  []TimeSlotInput{validSlot(start)},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOwnership.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestEventServiceUpdatePartial(t *testing.T) {
	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	repo := &eventRepoStub{
		events: map[string]*models.Event{
			"e1": {ID: "e1", ScheduleID: "sch1", Name: "Old", Frequency: models.FrequencyNever,
				Slots: []models.EventSlot{{ID: "s1", EventID: "e1", StartsAt: start, EndsAt: start.Add(time.Hour)}}},
		},
		owners: map[string]string{"e1": "u1"},
	}
	svc := newEventServiceForTest(repo, &scheduleProviderStub{owned: map[string]string{"sch1": "u1"}}, nil, nil)

	newName := "New"
	event, err := svc.Update(context.Background(), "u1", "e1", UpdateEventRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "New", event.Name)
	require.Len(t, event.Slots, 1)
	assert.Equal(t, "s1", event.Slots[0].ID)
}

func TestEventServiceUpdateRejectsForeignTargetSchedule(t *testing.T) {
	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	repo := &eventRepoStub{
		events: map[string]*models.Event{
			"e1": {ID: "e1", ScheduleID: "sch1", Name: "Old", Frequency: models.FrequencyNever,
				Slots: []models.EventSlot{{StartsAt: start, EndsAt: start.Add(time.Hour)}}},
		},
		owners: map[string]string{"e1": "u1"},
	}
	svc := newEventServiceForTest(repo, &scheduleProviderStub{owned: map[string]string{"sch1": "u1", "sch2": "other"}}, nil, nil)

	target := "sch2"
	_, err := svc.Update(context.Background(), "u1", "e1", UpdateEventRequest{TargetScheduleID: &target})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOwnership.Code, appErrors.FromError(err).Code)
}

func TestEventServiceDeleteChecksOwnership(t *testing.T) {
	repo := &eventRepoStub{
		events: map[string]*models.Event{"e1": {ID: "e1", ScheduleID: "sch1"}},
		owners: map[string]string{"e1": "other"},
	}
	svc := newEventServiceForTest(repo, &scheduleProviderStub{owned: map[string]string{"sch1": "other"}}, nil, nil)

	err := svc.Delete(context.Background(), "u1", "e1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOwnership.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestEventServiceDeleteMissingEvent(t *testing.T) {
	repo := &eventRepoStub{events: map[string]*models.Event{}, owners: map[string]string{}}
	svc := newEventServiceForTest(repo, nil, nil, nil)

	err := svc.Delete(context.Background(), "u1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEventServiceCreateSharedRequiresFriendship(t *testing.T) {
	repo := &eventRepoStub{events: map[string]*models.Event{}}
	svc := newEventServiceForTest(repo, nil, &friendCheckerStub{accepted: map[string]bool{}}, &userReaderStub{users: map[string]*models.User{
		"u1": {ID: "u1", FullName: "Alex"},
		"u2": {ID: "u2", FullName: "Blair"},
	}})

	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	_, _, err := svc.CreateShared(context.Background(), "u1", SharedEventRequest{
		FriendID:  "u2",
		Name:      "Lunch",
		TimeSlots: []TimeSlotInput{validSlot(start)},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOwnership.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.mirrored)
}

func TestEventServiceCreateSharedMirrorsWithAnnotations(t *testing.T) {
	repo := &eventRepoStub{events: map[string]*models.Event{}}
	schedules := &scheduleProviderStub{
		owned: map[string]string{},
		primaries: map[string]*models.Schedule{
			"u1": {ID: "p1", OwnerID: "u1", IsPrimary: true},
			"u2": {ID: "p2", OwnerID: "u2", IsPrimary: true},
		},
	}
	friends := &friendCheckerStub{accepted: map[string]bool{pairKey("u1", "u2"): true}}
	users := &userReaderStub{users: map[string]*models.User{
		"u1": {ID: "u1", FullName: "Alex"},
		"u2": {ID: "u2", FullName: "Blair"},
	}}
	svc := newEventServiceForTest(repo, schedules, friends, users)

	start := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	desc := "Team lunch"
	mine, theirs, err := svc.CreateShared(context.Background(), "u1", SharedEventRequest{
		FriendID:    "u2",
		Name:        "Lunch",
		Description: &desc,
		TimeSlots:   []TimeSlotInput{validSlot(start)},
	})
	require.NoError(t, err)
	require.Len(t, repo.mirrored, 1)
	assert.Equal(t, "p1", mine.ScheduleID)
	assert.Equal(t, "p2", theirs.ScheduleID)
	require.NotNil(t, mine.Description)
	require.NotNil(t, theirs.Description)
	assert.Contains(t, *mine.Description, "Blair")
	assert.Contains(t, *theirs.Description, "Alex")
	assert.Equal(t, mine.Name, theirs.Name)
}

func TestEventServiceCreateSharedRejectsSelf(t *testing.T) {
	repo := &eventRepoStub{events: map[string]*models.Event{}}
	svc := newEventServiceForTest(repo, nil, nil, nil)

	start := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	_, _, err := svc.CreateShared(context.Background(), "u1", SharedEventRequest{
		FriendID:  "u1",
		Name:      "Solo",
		TimeSlots: []TimeSlotInput{validSlot(start)},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEventServiceListForFriendRequiresAcceptance(t *testing.T) {
	repo := &eventRepoStub{events: map[string]*models.Event{}}
	svc := newEventServiceForTest(repo, &scheduleProviderStub{owned: map[string]string{"sch2": "u2"}},
		&friendCheckerStub{accepted: map[string]bool{}}, nil)

	_, err := svc.ListForFriend(context.Background(), "u1", "u2", "sch2", nil, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOwnership.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
	assert.Empty(t, repo.mirrored)
}

func TestEventServiceListForFriendAccepted(t *testing.T) {
	start := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	repo := &eventRepoStub{events: map[string]*models.Event{
		"e1": {ID: "e1", ScheduleID: "sch2", Name: "Yoga",
			Slots: []models.EventSlot{{StartsAt: start, EndsAt: start.Add(time.Hour)}}},
	}}
	svc := newEventServiceForTest(repo, &scheduleProviderStub{owned: map[string]string{"sch2": "u2"}},
		&friendCheckerStub{accepted: map[string]bool{pairKey("u1", "u2"): true}}, nil)

	events, err := svc.ListForFriend(context.Background(), "u1", "u2", "sch2", nil, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Yoga", events[0].Name)
}
