package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hankpharris/tempora-ai-sub000/internal/models"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
)

func TestExportServiceAgendaCSV(t *testing.T) {
	start := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	calendarSvc := newCalendarFixture(map[string]*models.Event{
		"e1": {ID: "e1", ScheduleID: "sch1", Name: "Standup", Frequency: models.FrequencyNever,
			Slots: []models.EventSlot{{EventID: "e1", StartsAt: start, EndsAt: start.Add(time.Hour)}}},
	})
	svc := NewExportService(calendarSvc, nil)

	from := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	result, err := svc.Agenda(context.Background(), "u1", from, to, ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "agenda_20250616_20250623.csv", result.Filename)

	body := string(result.Data)
	assert.Contains(t, body, "Date,Start,End,Event,Description")
	assert.Contains(t, body, "2025-06-16,09:00,10:00,Standup")
}

func TestExportServiceAgendaPDF(t *testing.T) {
	start := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	calendarSvc := newCalendarFixture(map[string]*models.Event{
		"e1": {ID: "e1", ScheduleID: "sch1", Name: "Standup", Frequency: models.FrequencyNever,
			Slots: []models.EventSlot{{EventID: "e1", StartsAt: start, EndsAt: start.Add(time.Hour)}}},
	})
	svc := NewExportService(calendarSvc, nil)

	from := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	result, err := svc.Agenda(context.Background(), "u1", from, from.AddDate(0, 0, 7), ExportPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasPrefix(string(result.Data), "%PDF"))
}

func TestExportServiceAgendaFiltersRange(t *testing.T) {
	start := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	calendarSvc := newCalendarFixture(map[string]*models.Event{
		"e1": {ID: "e1", ScheduleID: "sch1", Name: "Standup", Frequency: models.FrequencyNever,
			Slots: []models.EventSlot{{EventID: "e1", StartsAt: start, EndsAt: start.Add(time.Hour)}}},
	})
	svc := NewExportService(calendarSvc, nil)

	from := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	result, err := svc.Agenda(context.Background(), "u1", from, from.AddDate(0, 0, 7), ExportCSV)
	require.NoError(t, err)
	assert.NotContains(t, string(result.Data), "Standup")
}

func TestExportServiceRejectsInvertedRange(t *testing.T) {
	svc := NewExportService(newCalendarFixture(map[string]*models.Event{}), nil)

	from := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	_, err := svc.Agenda(context.Background(), "u1", from, from, ExportCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(newCalendarFixture(map[string]*models.Event{}), nil)

	from := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	_, err := svc.Agenda(context.Background(), "u1", from, from.AddDate(0, 0, 1), ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
