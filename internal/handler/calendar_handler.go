package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hankpharris/tempora-ai-sub000/internal/calendar"
	"github.com/hankpharris/tempora-ai-sub000/internal/service"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
	"github.com/hankpharris/tempora-ai-sub000/pkg/response"
)

// CalendarHandler serves the month, week, and day views.
type CalendarHandler struct {
	service *service.CalendarService
}

// NewCalendarHandler creates a new handler.
func NewCalendarHandler(svc *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

// Month godoc
// @Summary Month view
// @Description Render the month containing date as a Sunday-start grid
// @Tags Calendar
// @Produce json
// @Param date query string false "Anchor date (YYYY-MM-DD, default today)"
// @Param tz query string false "IANA time zone (default UTC)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar/month [get]
func (h *CalendarHandler) Month(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	anchor, loc, err := viewParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.service.MonthView(c.Request.Context(), claims.UserID, anchor, loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Week godoc
// @Summary Week view
// @Description Render the Sunday-start week containing date
// @Tags Calendar
// @Produce json
// @Param date query string false "Anchor date (YYYY-MM-DD, default today)"
// @Param tz query string false "IANA time zone (default UTC)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar/week [get]
func (h *CalendarHandler) Week(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	anchor, loc, err := viewParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.service.WeekView(c.Request.Context(), claims.UserID, anchor, loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Day godoc
// @Summary Day view
// @Description Render one day as positioned timeline blocks
// @Tags Calendar
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD, default today)"
// @Param tz query string false "IANA time zone (default UTC)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar/day [get]
func (h *CalendarHandler) Day(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	anchor, loc, err := viewParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.service.DayView(c.Request.Context(), claims.UserID, anchor, loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

func viewParams(c *gin.Context) (time.Time, *time.Location, error) {
	loc := time.UTC
	if tz := c.Query("tz"); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return time.Time{}, nil, appErrors.Clone(appErrors.ErrValidation, "tz must be a valid IANA time zone")
		}
		loc = parsed
	}

	anchor := time.Now().In(loc)
	if date := c.Query("date"); date != "" {
		parsed, err := time.ParseInLocation(calendar.DayKeyFormat, date, loc)
		if err != nil {
			return time.Time{}, nil, appErrors.Clone(appErrors.ErrValidation, "date must be formatted YYYY-MM-DD")
		}
		anchor = parsed
	}
	return anchor, loc, nil
}
