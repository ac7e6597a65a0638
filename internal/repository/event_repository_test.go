package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hankpharris/tempora-ai-sub000/internal/models"
)

func newEventRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEventRepositoryListBySchedule(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "schedule_id", "name", "description", "frequency", "repeat_until", "created_at", "updated_at"}).
		AddRow("e1", "sch1", "Standup", nil, "WEEKLY", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, schedule_id, name, description, frequency, repeat_until, created_at, updated_at FROM events WHERE schedule_id = $1 ORDER BY created_at ASC")).
		WithArgs("sch1").
		WillReturnRows(rows)

	slotRows := sqlmock.NewRows([]string{"id", "event_id", "position", "starts_at", "ends_at"}).
		AddRow("s1", "e1", 0, now, now.Add(time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, event_id, position, starts_at, ends_at FROM event_slots WHERE event_id = ANY($1) ORDER BY event_id, position ASC")).
		WillReturnRows(slotRows)

	events, err := repo.ListBySchedule(context.Background(), models.EventFilter{ScheduleID: "sch1"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Standup", events[0].Name)
	require.Len(t, events[0].Slots, 1)
	assert.Equal(t, "e1", events[0].Slots[0].EventID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListByScheduleWithRange(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	mock.ExpectQuery(regexp.QuoteMeta("AND EXISTS (SELECT 1 FROM event_slots s WHERE s.event_id = events.id AND s.ends_at >= $2 AND s.starts_at <= $3)")).
		WithArgs("sch1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"id", "schedule_id", "name", "description", "frequency", "repeat_until", "created_at", "updated_at"}))

	events, err := repo.ListBySchedule(context.Background(), models.EventFilter{ScheduleID: "sch1", From: &from, To: &to})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListByScheduleFromOnly(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("AND EXISTS (SELECT 1 FROM event_slots s WHERE s.event_id = events.id AND s.ends_at >= $2)")).
		WithArgs("sch1", from).
		WillReturnRows(sqlmock.NewRows([]string{"id", "schedule_id", "name", "description", "frequency", "repeat_until", "created_at", "updated_at"}))

	events, err := repo.ListBySchedule(context.Background(), models.EventFilter{ScheduleID: "sch1", From: &from})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListByScheduleToOnly(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("AND EXISTS (SELECT 1 FROM event_slots s WHERE s.event_id = events.id AND s.starts_at <= $2)")).
		WithArgs("sch1", to).
		WillReturnRows(sqlmock.NewRows([]string{"id", "schedule_id", "name", "description", "frequency", "repeat_until", "created_at", "updated_at"}))

	events, err := repo.ListBySchedule(context.Background(), models.EventFilter{ScheduleID: "sch1", To: &to})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryGetOwner(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.owner_id FROM events e JOIN schedules s ON s.id = e.schedule_id WHERE e.id = $1 LIMIT 1")).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"owner_id"}).AddRow("u1"))

	owner, err := repo.GetOwner(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryCreateInsertsSlots(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	event := &models.Event{
		ScheduleID: "sch1",
		Name:       "Gym",
		Frequency:  models.FrequencyDaily,
		Slots: []models.EventSlot{
			{StartsAt: start, EndsAt: start.Add(time.Hour)},
			{StartsAt: start.Add(4 * time.Hour), EndsAt: start.Add(5 * time.Hour)},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO event_slots").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO event_slots").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, 0, event.Slots[0].Position)
	assert.Equal(t, 1, event.Slots[1].Position)
	assert.Equal(t, event.ID, event.Slots[0].EventID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryCreateMirroredSingleTransaction(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	first := &models.Event{ScheduleID: "sch1", Name: "Lunch", Frequency: models.FrequencyNever,
		Slots: []models.EventSlot{{StartsAt: start, EndsAt: start.Add(time.Hour)}}}
	second := &models.Event{ScheduleID: "sch2", Name: "Lunch", Frequency: models.FrequencyNever,
		Slots: []models.EventSlot{{StartsAt: start, EndsAt: start.Add(time.Hour)}}}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO event_slots").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO event_slots").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateMirrored(context.Background(), first, second))
	assert.NotEqual(t, first.ID, second.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryCreateMirroredRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	first := &models.Event{ScheduleID: "sch1", Name: "Lunch",
		Slots: []models.EventSlot{{StartsAt: start, EndsAt: start.Add(time.Hour)}}}
	second := &models.Event{ScheduleID: "sch2", Name: "Lunch",
		Slots: []models.EventSlot{{StartsAt: start, EndsAt: start.Add(time.Hour)}}}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO event_slots").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO events").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.CreateMirrored(context.Background(), first, second)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdateReplacesSlots(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	event := &models.Event{ID: "e1", ScheduleID: "sch1", Name: "Gym", Frequency: models.FrequencyWeekly,
		Slots: []models.EventSlot{{StartsAt: start, EndsAt: start.Add(time.Hour)}}}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE events SET").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM event_slots WHERE event_id = $1")).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO event_slots").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), event, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM events WHERE id = $1")).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), "e1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
