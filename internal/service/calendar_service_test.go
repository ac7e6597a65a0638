package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hankpharris/tempora-ai-sub000/internal/calendar"
	"github.com/hankpharris/tempora-ai-sub000/internal/models"
)

func newCalendarFixture(events map[string]*models.Event) *CalendarService {
	scheduleRepo := &scheduleRepoStub{schedules: map[string]*models.Schedule{
		"sch1": {ID: "sch1", OwnerID: "u1", Name: "My Calendar", IsPrimary: true},
	}}
	eventRepo := &eventRepoStub{events: events}
	svc := NewCalendarService(scheduleRepo, eventRepo, nil, nil, calendar.Options{}, 45*time.Minute, 0, nil)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestCalendarServiceMonthViewShape(t *testing.T) {
	start := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	svc := newCalendarFixture(map[string]*models.Event{
		"e1": {ID: "e1", ScheduleID: "sch1", Name: "Standup", Frequency: models.FrequencyNever,
			Slots: []models.EventSlot{{EventID: "e1", StartsAt: start, EndsAt: start.Add(time.Hour)}}},
	})

	view, err := svc.MonthView(context.Background(), "u1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2025, view.Year)
	assert.Equal(t, 6, view.Month)
	require.NotEmpty(t, view.Weeks)
	for _, week := range view.Weeks {
		assert.Len(t, week, 7)
	}

	// June 2025 starts on a Sunday, so the first cell is June 1.
	assert.Equal(t, "2025-06-01", view.Weeks[0][0].Date)
	assert.True(t, view.Weeks[0][0].InMonth)

	var found bool
	for _, week := range view.Weeks {
		for _, cell := range week {
			if cell.Date == "2025-06-16" {
				require.Len(t, cell.Occurrences, 1)
				assert.Equal(t, "Standup", cell.Occurrences[0].Name)
				found = true
			}
		}
	}
	assert.True(t, found)
}

func TestCalendarServiceWeekViewHasSevenDays(t *testing.T) {
	svc := newCalendarFixture(map[string]*models.Event{})

	view, err := svc.WeekView(context.Background(), "u1", time.Date(2025, 6, 18, 0, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	require.Len(t, view.Days, 7)
	assert.Equal(t, "2025-06-15", view.Start)
	assert.Equal(t, "2025-06-21", view.End)
}

func TestCalendarServiceWeekViewUsesViewerLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	// 15:00 UTC is already the next day in the viewer's zone.
	start := time.Date(2025, 6, 15, 15, 0, 0, 0, time.UTC)
	svc := newCalendarFixture(map[string]*models.Event{
		"e1": {ID: "e1", ScheduleID: "sch1", Name: "Standup", Frequency: models.FrequencyNever,
			Slots: []models.EventSlot{{EventID: "e1", StartsAt: start, EndsAt: start.Add(time.Hour)}}},
	})

	view, err := svc.WeekView(context.Background(), "u1", time.Date(2025, 6, 16, 0, 0, 0, 0, loc), loc)
	require.NoError(t, err)
	require.Len(t, view.Days, 7)
	assert.Equal(t, "2025-06-15", view.Start)
	assert.Equal(t, "2025-06-21", view.End)

	var found bool
	for _, day := range view.Days {
		if day.Date == "2025-06-16" {
			require.Len(t, day.Occurrences, 1)
			assert.Equal(t, "Standup", day.Occurrences[0].Name)
			found = true
		} else {
			assert.Empty(t, day.Occurrences)
		}
	}
	assert.True(t, found)
}

func TestCalendarServiceDayViewPositionsBlocks(t *testing.T) {
	start := time.Date(2025, 6, 16, 6, 0, 0, 0, time.UTC)
	svc := newCalendarFixture(map[string]*models.Event{
		"e1": {ID: "e1", ScheduleID: "sch1", Name: "Run", Frequency: models.FrequencyNever,
			Slots: []models.EventSlot{{EventID: "e1", StartsAt: start, EndsAt: start.Add(6 * time.Hour)}}},
	})

	view, err := svc.DayView(context.Background(), "u1", time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	require.Len(t, view.Blocks, 1)
	assert.InDelta(t, 25.0, view.Blocks[0].LeftPercent, 0.01)
	assert.InDelta(t, 25.0, view.Blocks[0].WidthPercent, 0.01)
}

func TestCalendarServiceExpandsRecurringEvents(t *testing.T) {
	start := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	svc := newCalendarFixture(map[string]*models.Event{
		"e1": {ID: "e1", ScheduleID: "sch1", Name: "Standup", Frequency: models.FrequencyWeekly,
			Slots: []models.EventSlot{{EventID: "e1", StartsAt: start, EndsAt: start.Add(30 * time.Minute)}}},
	})

	occurrences, err := svc.Occurrences(context.Background(), "u1")
	require.NoError(t, err)
	assert.Greater(t, len(occurrences), 10)
	for _, occ := range occurrences {
		assert.Equal(t, "e1", occ.EventID)
		assert.Equal(t, time.Monday, occ.Start.Weekday())
	}
}
