package calendar

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hankpharris/tempora-ai-sub000/internal/models"
)

// Occurrence is one concrete calendar appearance of an event, derived at
// render time from a stored slot and its recurrence rule. Occurrences are
// recomputed per request and have no identity of their own.
type Occurrence struct {
	EventID     string  `json:"event_id"`
	ScheduleID  string  `json:"schedule_id"`
	EventName   string  `json:"event_name"`
	Description *string `json:"description,omitempty"`
	SlotIndex   int     `json:"slot_index"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Options bounds occurrence generation. Zero values fall back to the
// defaults used for display: 90 days back, 365 days forward, 500 per slot.
type Options struct {
	PastWindowDays   int
	FutureWindowDays int
	MaxPerSlot       int
}

func (o Options) withDefaults() Options {
	if o.PastWindowDays <= 0 {
		o.PastWindowDays = 90
	}
	if o.FutureWindowDays <= 0 {
		o.FutureWindowDays = 365
	}
	if o.MaxPerSlot <= 0 {
		o.MaxPerSlot = 500
	}
	return o
}

// Expand turns stored events into the flat, time-ordered occurrence list to
// render around the anchor timestamp. It performs no I/O and never fails:
// slots it cannot make sense of are skipped with a warning, since this is a
// rendering aid rather than a validated write path.
func Expand(events []models.Event, today time.Time, opts Options, logger *zap.Logger) []Occurrence {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()

	windowStart := today.AddDate(0, 0, -opts.PastWindowDays)
	windowEnd := today.AddDate(0, 0, opts.FutureWindowDays)

	var out []Occurrence
	for i := range events {
		ev := &events[i]
		for _, slot := range ev.Slots {
			duration := slot.EndsAt.Sub(slot.StartsAt)
			if duration <= 0 {
				logger.Warn("skipping malformed event slot",
					zap.String("event_id", ev.ID),
					zap.Int("slot", slot.Position),
					zap.Time("starts_at", slot.StartsAt),
					zap.Time("ends_at", slot.EndsAt))
				continue
			}

			if ev.Frequency == models.FrequencyNever {
				if !slot.StartsAt.Before(windowStart) && !slot.StartsAt.After(windowEnd) {
					out = append(out, occurrence(ev, slot, slot.StartsAt, duration))
				}
				continue
			}

			// Repeat-until defaults to the display cap; "repeat forever"
			// is capped for rendering only, never persisted. The repeat-until
			// boundary is a date: occurrences on that calendar day still run.
			limit := windowEnd
			if ev.RepeatUntil != nil {
				until := endOfDayUTC(*ev.RepeatUntil)
				if until.Before(limit) {
					limit = until
				}
			}

			generated := 0
			for cur := slot.StartsAt; !cur.After(limit) && generated < opts.MaxPerSlot; cur = step(ev.Frequency, cur) {
				generated++
				if cur.Before(windowStart) {
					continue
				}
				out = append(out, occurrence(ev, slot, cur, duration))
			}
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Start.Before(out[b].Start)
	})
	return out
}

func occurrence(ev *models.Event, slot models.EventSlot, start time.Time, duration time.Duration) Occurrence {
	return Occurrence{
		EventID:     ev.ID,
		ScheduleID:  ev.ScheduleID,
		EventName:   ev.Name,
		Description: ev.Description,
		SlotIndex:   slot.Position,
		Start:       start,
		End:         start.Add(duration),
	}
}

func endOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

// step advances one period. An unrecognized frequency gets a single
// far-future jump so the event degrades to non-repeating instead of looping.
func step(freq models.Frequency, cur time.Time) time.Time {
	switch freq {
	case models.FrequencyDaily:
		return cur.AddDate(0, 0, 1)
	case models.FrequencyWeekly:
		return cur.AddDate(0, 0, 7)
	case models.FrequencyMonthly:
		return cur.AddDate(0, 1, 0)
	default:
		return cur.AddDate(1000, 0, 0)
	}
}
