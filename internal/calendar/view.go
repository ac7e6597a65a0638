package calendar

import "time"

// DayKeyFormat is the map key layout used for day buckets.
const DayKeyFormat = "2006-01-02"

// DayKey renders the bucket key for a timestamp in the given location.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayKeyFormat)
}

// BucketByDay attaches every occurrence to each calendar day it touches,
// start day through end day inclusive. Day boundaries are taken in the
// viewer's location, so an occurrence spanning midnight shows up on both
// days.
func BucketByDay(occurrences []Occurrence, loc *time.Location) map[string][]Occurrence {
	if loc == nil {
		loc = time.Local
	}
	buckets := make(map[string][]Occurrence)
	for _, occ := range occurrences {
		day := startOfDay(occ.Start, loc)
		last := startOfDay(occ.End, loc)
		for !day.After(last) {
			key := day.Format(DayKeyFormat)
			buckets[key] = append(buckets[key], occ)
			day = day.AddDate(0, 0, 1)
		}
	}
	return buckets
}

// MonthGrid returns the full month containing anchor as Sunday-start weeks,
// padded with leading and trailing days from the adjacent months.
func MonthGrid(anchor time.Time, loc *time.Location) [][]time.Time {
	if loc == nil {
		loc = time.Local
	}
	anchor = anchor.In(loc)
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	cur := first.AddDate(0, 0, -int(first.Weekday()))
	var grid [][]time.Time
	for !cur.After(last) {
		week := make([]time.Time, 7)
		for i := 0; i < 7; i++ {
			week[i] = cur
			cur = cur.AddDate(0, 0, 1)
		}
		grid = append(grid, week)
	}
	return grid
}

// WeekDays returns the 7-day Sunday-start week containing the anchor.
func WeekDays(anchor time.Time, loc *time.Location) []time.Time {
	if loc == nil {
		loc = time.Local
	}
	day := startOfDay(anchor, loc)
	day = day.AddDate(0, 0, -int(day.Weekday()))
	days := make([]time.Time, 7)
	for i := 0; i < 7; i++ {
		days[i] = day
		day = day.AddDate(0, 0, 1)
	}
	return days
}

// TimelineBlock places one occurrence on a single day's 24-hour strip.
type TimelineBlock struct {
	Occurrence
	LeftPercent  float64 `json:"left_percent"`
	WidthPercent float64 `json:"width_percent"`
}

// DayTimeline lays out the occurrences touching the given day across a
// 24-hour span. Blocks shorter than minBlock are widened to minBlock so
// degenerate events stay visible and clickable.
func DayTimeline(occurrences []Occurrence, day time.Time, loc *time.Location, minBlock time.Duration) []TimelineBlock {
	if loc == nil {
		loc = time.Local
	}
	if minBlock <= 0 {
		minBlock = 45 * time.Minute
	}
	dayStart := startOfDay(day, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var blocks []TimelineBlock
	for _, occ := range occurrences {
		overlaps := occ.Start.Before(dayEnd) && occ.End.After(dayStart)
		// Zero-width occurrences have no overlap interval but still render.
		pointOnDay := occ.Start.Equal(occ.End) && !occ.Start.Before(dayStart) && occ.Start.Before(dayEnd)
		if !overlaps && !pointOnDay {
			continue
		}

		start := occ.Start
		if start.Before(dayStart) {
			start = dayStart
		}
		end := occ.End
		if end.After(dayEnd) {
			end = dayEnd
		}
		width := end.Sub(start)
		if width < minBlock {
			width = minBlock
		}

		left := float64(start.Sub(dayStart)) / float64(24*time.Hour) * 100
		widthPct := float64(width) / float64(24*time.Hour) * 100
		if left+widthPct > 100 {
			left = 100 - widthPct
			if left < 0 {
				left = 0
				widthPct = 100
			}
		}

		blocks = append(blocks, TimelineBlock{Occurrence: occ, LeftPercent: left, WidthPercent: widthPct})
	}
	return blocks
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
