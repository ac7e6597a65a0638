package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hankpharris/tempora-ai-sub000/internal/models"
	"github.com/hankpharris/tempora-ai-sub000/internal/service"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
	"github.com/hankpharris/tempora-ai-sub000/pkg/response"
)

// FriendshipHandler serves friend requests and the friend list.
type FriendshipHandler struct {
	service *service.FriendshipService
	events  *service.EventService
}

// NewFriendshipHandler creates a new handler.
func NewFriendshipHandler(svc *service.FriendshipService, events *service.EventService) *FriendshipHandler {
	return &FriendshipHandler{service: svc, events: events}
}

// Request godoc
// @Summary Send friend request
// @Description Create a pending friendship from the caller to another user
// @Tags Friends
// @Accept json
// @Produce json
// @Param payload body service.FriendRequestInput true "Addressee"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /friends/requests [post]
func (h *FriendshipHandler) Request(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var input service.FriendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid friend request payload"))
		return
	}

	friendship, err := h.service.Request(c.Request.Context(), claims.UserID, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, friendship)
}

// Respond godoc
// @Summary Respond to friend request
// @Description Accept or decline a pending request addressed to the caller
// @Tags Friends
// @Accept json
// @Produce json
// @Param id path string true "Friendship id"
// @Param payload body service.RespondInput true "Accept or decline"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /friends/requests/{id} [post]
func (h *FriendshipHandler) Respond(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var input service.RespondInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid response payload"))
		return
	}

	friendship, err := h.service.Respond(c.Request.Context(), claims.UserID, c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, friendship, nil)
}

// List godoc
// @Summary List friends
// @Description List the caller's accepted friends
// @Tags Friends
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /friends [get]
func (h *FriendshipHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	friends, err := h.service.ListFriends(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, friends, nil)
}

// Pending godoc
// @Summary List pending requests
// @Description List friend requests awaiting the caller's response
// @Tags Friends
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /friends/requests [get]
func (h *FriendshipHandler) Pending(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	pending, err := h.service.ListPending(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, pending, nil)
}

// SearchUsers godoc
// @Summary Search users
// @Description Search users by name or email to befriend
// @Tags Friends
// @Produce json
// @Param q query string false "Search term"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /friends/search [get]
func (h *FriendshipHandler) SearchUsers(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.UserFilter{Search: c.Query("q"), Page: 1, PageSize: 20}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.Query("page_size")); err == nil && size > 0 && size <= 100 {
		filter.PageSize = size
	}

	users, total, err := h.service.SearchUsers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// FriendEvents godoc
// @Summary List a friend's events
// @Description List events on an accepted friend's schedule
// @Tags Friends
// @Produce json
// @Param id path string true "Friend user id"
// @Param schedule_id query string true "Friend's schedule id"
// @Param from query string false "RFC 3339 range start"
// @Param to query string false "RFC 3339 range end"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /friends/{id}/events [get]
func (h *FriendshipHandler) FriendEvents(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	scheduleID := c.Query("schedule_id")
	if scheduleID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "schedule_id is required"))
		return
	}
	from, err := optionalTimeQuery(c, "from")
	if err != nil {
		response.Error(c, err)
		return
	}
	to, err := optionalTimeQuery(c, "to")
	if err != nil {
		response.Error(c, err)
		return
	}

	events, err := h.events.ListForFriend(c.Request.Context(), claims.UserID, c.Param("id"), scheduleID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, events, nil)
}
