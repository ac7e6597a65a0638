package models

import "time"

// Frequency is the repeat cadence of an event.
type Frequency string

const (
	FrequencyNever   Frequency = "NEVER"
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
)

// KnownFrequency reports whether f is one of the supported cadences.
func KnownFrequency(f Frequency) bool {
	switch f {
	case FrequencyNever, FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Event is a logical calendar entry on a schedule. Its concrete meeting
// times live in Slots; all slots share one recurrence rule.
type Event struct {
	ID          string     `db:"id" json:"id"`
	ScheduleID  string     `db:"schedule_id" json:"schedule_id"`
	Name        string     `db:"name" json:"name"`
	Description *string    `db:"description" json:"description,omitempty"`
	Frequency   Frequency  `db:"frequency" json:"frequency"`
	RepeatUntil *time.Time `db:"repeat_until" json:"repeat_until,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	Slots []EventSlot `db:"-" json:"slots"`
}

// EventSlot is one start/end pair within an event.
type EventSlot struct {
	ID       string    `db:"id" json:"id"`
	EventID  string    `db:"event_id" json:"event_id"`
	Position int       `db:"position" json:"position"`
	StartsAt time.Time `db:"starts_at" json:"starts_at"`
	EndsAt   time.Time `db:"ends_at" json:"ends_at"`
}

// EventFilter narrows event lookups to a schedule and optional time range.
// The range matches events with any slot overlapping [From, To].
type EventFilter struct {
	ScheduleID string
	From       *time.Time
	To         *time.Time
}
