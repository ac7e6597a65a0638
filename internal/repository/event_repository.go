package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hankpharris/tempora-ai-sub000/internal/models"
)

// EventRepository persists events and their time slots.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = "id, schedule_id, name, description, frequency, repeat_until, created_at, updated_at"

// ListBySchedule returns a schedule's events with slots attached. Range
// bounds apply independently: only events with a slot ending at or after
// From and starting at or before To match.
func (r *EventRepository) ListBySchedule(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE schedule_id = $1", eventColumns)
	args := []interface{}{filter.ScheduleID}
	var slotConds []string
	if filter.From != nil {
		args = append(args, *filter.From)
		slotConds = append(slotConds, fmt.Sprintf("s.ends_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		slotConds = append(slotConds, fmt.Sprintf("s.starts_at <= $%d", len(args)))
	}
	if len(slotConds) > 0 {
		query += " AND EXISTS (SELECT 1 FROM event_slots s WHERE s.event_id = events.id AND " + strings.Join(slotConds, " AND ") + ")"
	}
	query += " ORDER BY created_at ASC"

	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if err := r.attachSlots(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetByID fetches an event with its slots.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE id = $1 LIMIT 1", eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	events := []models.Event{event}
	if err := r.attachSlots(ctx, events); err != nil {
		return nil, err
	}
	return &events[0], nil
}

// GetOwner returns the id of the user owning the schedule the event sits on.
func (r *EventRepository) GetOwner(ctx context.Context, eventID string) (string, error) {
	const query = `SELECT s.owner_id FROM events e JOIN schedules s ON s.id = e.schedule_id WHERE e.id = $1 LIMIT 1`
	var ownerID string
	if err := r.db.GetContext(ctx, &ownerID, query, eventID); err != nil {
		return "", err
	}
	return ownerID, nil
}

// Create inserts an event and its slots atomically.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create event: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertEventTx(ctx, tx, event); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create event: %w", err)
	}
	return nil
}

// CreateMirrored inserts two events in a single transaction so that a
// shared event either lands on both schedules or on neither.
func (r *EventRepository) CreateMirrored(ctx context.Context, first, second *models.Event) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create shared event: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertEventTx(ctx, tx, first); err != nil {
		return err
	}
	if err := insertEventTx(ctx, tx, second); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create shared event: %w", err)
	}
	return nil
}

// Update modifies an event row and, when replaceSlots is set, swaps its
// slots for the provided set.
func (r *EventRepository) Update(ctx context.Context, event *models.Event, replaceSlots bool) error {
	event.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update event: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE events SET schedule_id = :schedule_id, name = :name, description = :description, frequency = :frequency, repeat_until = :repeat_until, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}

	if replaceSlots {
		if _, err := tx.ExecContext(ctx, "DELETE FROM event_slots WHERE event_id = $1", event.ID); err != nil {
			return fmt.Errorf("delete event slots: %w", err)
		}
		if err := insertSlotsTx(ctx, tx, event); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update event: %w", err)
	}
	return nil
}

// Delete removes an event; slots go with it via cascade.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func insertEventTx(ctx context.Context, tx *sqlx.Tx, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	const query = `INSERT INTO events (id, schedule_id, name, description, frequency, repeat_until, created_at, updated_at)
VALUES (:id, :schedule_id, :name, :description, :frequency, :repeat_until, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return insertSlotsTx(ctx, tx, event)
}

func insertSlotsTx(ctx context.Context, tx *sqlx.Tx, event *models.Event) error {
	const query = `INSERT INTO event_slots (id, event_id, position, starts_at, ends_at)
VALUES (:id, :event_id, :position, :starts_at, :ends_at)`
	for i := range event.Slots {
		slot := &event.Slots[i]
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		slot.EventID = event.ID
		slot.Position = i
		if _, err := tx.NamedExecContext(ctx, query, slot); err != nil {
			return fmt.Errorf("insert event slot: %w", err)
		}
	}
	return nil
}

func (r *EventRepository) attachSlots(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	index := make(map[string]*models.Event, len(events))
	for i := range events {
		ids[i] = events[i].ID
		index[events[i].ID] = &events[i]
	}

	const query = `SELECT id, event_id, position, starts_at, ends_at FROM event_slots WHERE event_id = ANY($1) ORDER BY event_id, position ASC`
	var slots []models.EventSlot
	if err := r.db.SelectContext(ctx, &slots, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("load event slots: %w", err)
	}
	for _, slot := range slots {
		if ev, ok := index[slot.EventID]; ok {
			ev.Slots = append(ev.Slots, slot)
		}
	}
	return nil
}
