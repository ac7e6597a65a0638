package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hankpharris/tempora-ai-sub000/internal/calendar"
	"github.com/hankpharris/tempora-ai-sub000/internal/dto"
	"github.com/hankpharris/tempora-ai-sub000/internal/models"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
)

type scheduleLister interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Schedule, error)
}

type calendarEventLister interface {
	ListBySchedule(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
}

// CalendarService expands events into occurrences and shapes them into
// month, week, and day views. Views are computed over all of the caller's
// schedules and cached per user, so event writes must invalidate with
// the pattern from viewCachePattern.
type CalendarService struct {
	schedules scheduleLister
	events    calendarEventLister
	cache     *CacheService
	metrics   *MetricsService
	opts      calendar.Options
	minBlock  time.Duration
	cacheTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewCalendarService constructs the service. minBlock is the smallest
// rendered width of a timeline block.
func NewCalendarService(schedules scheduleLister, events calendarEventLister, cache *CacheService, metrics *MetricsService, opts calendar.Options, minBlock, cacheTTL time.Duration, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if minBlock <= 0 {
		minBlock = 45 * time.Minute
	}
	return &CalendarService{
		schedules: schedules,
		events:    events,
		cache:     cache,
		metrics:   metrics,
		opts:      opts,
		minBlock:  minBlock,
		cacheTTL:  cacheTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// MonthView renders the month containing anchor as a Sunday-start grid.
func (s *CalendarService) MonthView(ctx context.Context, callerID string, anchor time.Time, loc *time.Location) (*dto.MonthViewDTO, error) {
	key := viewCacheKey(callerID, "month", anchor.In(loc).Format("2006-01"), loc)
	var cached dto.MonthViewDTO
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	occurrences, err := s.expandForUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	byDay := calendar.BucketByDay(occurrences, loc)
	grid := calendar.MonthGrid(anchor, loc)

	view := &dto.MonthViewDTO{
		Year:  anchor.In(loc).Year(),
		Month: int(anchor.In(loc).Month()),
		Weeks: make([][]dto.MonthCellDTO, len(grid)),
	}
	for w, week := range grid {
		cells := make([]dto.MonthCellDTO, len(week))
		for d, day := range week {
			key := calendar.DayKey(day, loc)
			cells[d] = dto.MonthCellDTO{
				Date:        key,
				InMonth:     int(day.Month()) == view.Month,
				Occurrences: toOccurrenceDTOs(byDay[key]),
			}
		}
		view.Weeks[w] = cells
	}

	s.cacheSet(ctx, key, view)
	return view, nil
}

// WeekView renders the Sunday-start week containing anchor.
func (s *CalendarService) WeekView(ctx context.Context, callerID string, anchor time.Time, loc *time.Location) (*dto.WeekViewDTO, error) {
	days := calendar.WeekDays(anchor, loc)
	key := viewCacheKey(callerID, "week", calendar.DayKey(days[0], loc), loc)
	var cached dto.WeekViewDTO
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	occurrences, err := s.expandForUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	byDay := calendar.BucketByDay(occurrences, loc)

	view := &dto.WeekViewDTO{
		Start: calendar.DayKey(days[0], loc),
		End:   calendar.DayKey(days[len(days)-1], loc),
		Days:  make([]dto.WeekDayDTO, len(days)),
	}
	for i, day := range days {
		dayKey := calendar.DayKey(day, loc)
		view.Days[i] = dto.WeekDayDTO{
			Date:        dayKey,
			Occurrences: toOccurrenceDTOs(byDay[dayKey]),
		}
	}

	s.cacheSet(ctx, key, view)
	return view, nil
}

// DayView renders a single day as positioned timeline blocks.
func (s *CalendarService) DayView(ctx context.Context, callerID string, day time.Time, loc *time.Location) (*dto.DayViewDTO, error) {
	key := viewCacheKey(callerID, "day", day.In(loc).Format(calendar.DayKeyFormat), loc)
	var cached dto.DayViewDTO
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	occurrences, err := s.expandForUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	blocks := calendar.DayTimeline(occurrences, day, loc, s.minBlock)

	view := &dto.DayViewDTO{
		Date:   day.In(loc).Format(calendar.DayKeyFormat),
		Blocks: make([]dto.TimelineBlockDTO, len(blocks)),
	}
	for i, block := range blocks {
		view.Blocks[i] = dto.TimelineBlockDTO{
			Occurrence:   toOccurrenceDTO(block.Occurrence),
			LeftPercent:  block.LeftPercent,
			WidthPercent: block.WidthPercent,
		}
	}

	s.cacheSet(ctx, key, view)
	return view, nil
}

// Occurrences expands all of the caller's events within the rolling window.
func (s *CalendarService) Occurrences(ctx context.Context, callerID string) ([]calendar.Occurrence, error) {
	return s.expandForUser(ctx, callerID)
}

func (s *CalendarService) expandForUser(ctx context.Context, callerID string) ([]calendar.Occurrence, error) {
	schedules, err := s.schedules.ListByOwner(ctx, callerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}

	var events []models.Event
	for _, schedule := range schedules {
		scheduleEvents, err := s.events.ListBySchedule(ctx, models.EventFilter{ScheduleID: schedule.ID})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
		}
		events = append(events, scheduleEvents...)
	}

	occurrences := calendar.Expand(events, s.now().UTC(), s.opts, s.logger)
	if s.metrics != nil {
		s.metrics.ObserveExpansion(len(occurrences))
	}
	return occurrences, nil
}

func (s *CalendarService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	return err == nil && hit
}

func (s *CalendarService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache calendar view", zap.String("key", key), zap.Error(err))
	}
}

func viewCacheKey(userID, kind, anchor string, loc *time.Location) string {
	return fmt.Sprintf("calendar:view:%s:%s:%s:%s", userID, kind, anchor, loc.String())
}

func viewCachePattern(userID string) string {
	return fmt.Sprintf("calendar:view:%s:*", userID)
}

func toOccurrenceDTO(occ calendar.Occurrence) dto.OccurrenceDTO {
	return dto.OccurrenceDTO{
		EventID:     occ.EventID,
		ScheduleID:  occ.ScheduleID,
		Name:        occ.EventName,
		Description: occ.Description,
		SlotIndex:   occ.SlotIndex,
		Start:       occ.Start,
		End:         occ.End,
	}
}

func toOccurrenceDTOs(occs []calendar.Occurrence) []dto.OccurrenceDTO {
	out := make([]dto.OccurrenceDTO, len(occs))
	for i, occ := range occs {
		out[i] = toOccurrenceDTO(occ)
	}
	return out
}
