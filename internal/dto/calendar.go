package dto

import "time"

// OccurrenceDTO is one concrete occurrence of an event, rendered for a view.
type OccurrenceDTO struct {
	EventID     string    `json:"event_id"`
	ScheduleID  string    `json:"schedule_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	SlotIndex   int       `json:"slot_index"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
}

// TimelineBlockDTO positions an occurrence on a day timeline as percentages
// of the 24 hour track.
type TimelineBlockDTO struct {
	Occurrence   OccurrenceDTO `json:"occurrence"`
	LeftPercent  float64       `json:"left_percent"`
	WidthPercent float64       `json:"width_percent"`
}

// DayViewDTO is the single day view.
type DayViewDTO struct {
	Date   string             `json:"date"`
	Blocks []TimelineBlockDTO `json:"blocks"`
}

// WeekDayDTO is one column of the week view.
type WeekDayDTO struct {
	Date        string          `json:"date"`
	Occurrences []OccurrenceDTO `json:"occurrences"`
}

// WeekViewDTO is a Sunday through Saturday week.
type WeekViewDTO struct {
	Start string       `json:"start"`
	End   string       `json:"end"`
	Days  []WeekDayDTO `json:"days"`
}

// MonthCellDTO is one cell of the month grid. InMonth is false for leading
// and trailing days borrowed from adjacent months.
type MonthCellDTO struct {
	Date        string          `json:"date"`
	InMonth     bool            `json:"in_month"`
	Occurrences []OccurrenceDTO `json:"occurrences"`
}

// MonthViewDTO is the month grid, one row per week.
type MonthViewDTO struct {
	Year  int              `json:"year"`
	Month int              `json:"month"`
	Weeks [][]MonthCellDTO `json:"weeks"`
}
