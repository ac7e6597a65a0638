package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hankpharris/tempora-ai-sub000/internal/models"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
	"github.com/hankpharris/tempora-ai-sub000/pkg/llm"
)

// toolRouter maps LLM tool calls onto the same services the HTTP handlers
// use. Every call runs with the chatting user's identity, so ownership and
// friendship checks apply exactly as they do over HTTP.
type toolRouter struct {
	events      *EventService
	friendships *FriendshipService
	schedules   *ScheduleService
}

func newToolRouter(events *EventService, friendships *FriendshipService, schedules *ScheduleService) *toolRouter {
	return &toolRouter{events: events, friendships: friendships, schedules: schedules}
}

var slotSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"start": map[string]interface{}{"type": "string", "format": "date-time"},
		"end":   map[string]interface{}{"type": "string", "format": "date-time"},
	},
	"required": []string{"start", "end"},
}

var frequencySchema = map[string]interface{}{
	"type": "string",
	"enum": []string{"NEVER", "DAILY", "WEEKLY", "MONTHLY"},
}

func (r *toolRouter) definitions() []llm.Tool {
	return []llm.Tool{
		llm.NewTool("list_schedule_events",
			"List events on one of the user's schedules, optionally limited to a time range.",
			map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"schedule_id": map[string]interface{}{"type": "string"},
					"from":        map[string]interface{}{"type": "string", "format": "date-time"},
					"to":          map[string]interface{}{"type": "string", "format": "date-time"},
				},
				"required": []string{"schedule_id"},
			}),
		llm.NewTool("create_calendar_event",
			"Create an event with one or more time slots on one of the user's schedules.",
			map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"schedule_id":  map[string]interface{}{"type": "string"},
					"name":         map[string]interface{}{"type": "string"},
					"description":  map[string]interface{}{"type": "string"},
					"time_slots":   map[string]interface{}{"type": "array", "items": slotSchema, "minItems": 1},
					"frequency":    frequencySchema,
					"repeat_until": map[string]interface{}{"type": "string", "format": "date-time"},
				},
				"required": []string{"schedule_id", "name", "time_slots"},
			}),
		llm.NewTool("update_calendar_event",
			"Update an event the user owns. Only the provided fields change; time_slots, when given, replaces all slots.",
			map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"event_id":           map[string]interface{}{"type": "string"},
					"name":               map[string]interface{}{"type": "string"},
					"description":        map[string]interface{}{"type": "string"},
					"time_slots":         map[string]interface{}{"type": "array", "items": slotSchema, "minItems": 1},
					"frequency":          frequencySchema,
					"repeat_until":       map[string]interface{}{"type": "string", "format": "date-time"},
					"clear_repeat_until": map[string]interface{}{"type": "boolean"},
					"target_schedule_id": map[string]interface{}{"type": "string"},
				},
				"required": []string{"event_id"},
			}),
		llm.NewTool("delete_calendar_event",
			"Delete an event the user owns.",
			map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"event_id": map[string]interface{}{"type": "string"},
				},
				"required": []string{"event_id"},
			}),
		llm.NewTool("list_friends",
			"List the user's accepted friends.",
			map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			}),
		llm.NewTool("get_friend_events",
			"List events on an accepted friend's schedule. Defaults to the friend's primary schedule.",
			map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"friend_id":   map[string]interface{}{"type": "string"},
					"schedule_id": map[string]interface{}{"type": "string"},
					"from":        map[string]interface{}{"type": "string", "format": "date-time"},
					"to":          map[string]interface{}{"type": "string", "format": "date-time"},
				},
				"required": []string{"friend_id"},
			}),
		llm.NewTool("create_shared_event",
			"Create matching events on both the user's and an accepted friend's primary schedules.",
			map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"friend_id":    map[string]interface{}{"type": "string"},
					"name":         map[string]interface{}{"type": "string"},
					"description":  map[string]interface{}{"type": "string"},
					"time_slots":   map[string]interface{}{"type": "array", "items": slotSchema, "minItems": 1},
					"frequency":    frequencySchema,
					"repeat_until": map[string]interface{}{"type": "string", "format": "date-time"},
				},
				"required": []string{"friend_id", "name", "time_slots"},
			}),
	}
}

// execute runs one tool call and returns its JSON result. Errors come back
// as values so the caller can surface them to the model as tool output.
func (r *toolRouter) execute(ctx context.Context, callerID, name, arguments string) (string, error) {
	switch name {
	case "list_schedule_events":
		return r.listScheduleEvents(ctx, callerID, arguments)
	case "create_calendar_event":
		return r.createEvent(ctx, callerID, arguments)
	case "update_calendar_event":
		return r.updateEvent(ctx, callerID, arguments)
	case "delete_calendar_event":
		return r.deleteEvent(ctx, callerID, arguments)
	case "list_friends":
		return r.listFriends(ctx, callerID)
	case "get_friend_events":
		return r.getFriendEvents(ctx, callerID, arguments)
	case "create_shared_event":
		return r.createSharedEvent(ctx, callerID, arguments)
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown tool %q", name))
	}
}

type listEventsArgs struct {
	ScheduleID string     `json:"schedule_id"`
	From       *time.Time `json:"from"`
	To         *time.Time `json:"to"`
}

func (r *toolRouter) listScheduleEvents(ctx context.Context, callerID, arguments string) (string, error) {
	var args listEventsArgs
	if err := decodeToolArgs(arguments, &args); err != nil {
		return "", err
	}
	events, err := r.events.List(ctx, callerID, args.ScheduleID, args.From, args.To)
	if err != nil {
		return "", err
	}
	return encodeToolResult(map[string]interface{}{"events": events})
}

type createEventArgs struct {
	ScheduleID  string           `json:"schedule_id"`
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	TimeSlots   []TimeSlotInput  `json:"time_slots"`
	Frequency   models.Frequency `json:"frequency"`
	RepeatUntil *time.Time       `json:"repeat_until"`
}

func (r *toolRouter) createEvent(ctx context.Context, callerID, arguments string) (string, error) {
	var args createEventArgs
	if err := decodeToolArgs(arguments, &args); err != nil {
		return "", err
	}
	event, err := r.events.Create(ctx, callerID, CreateEventRequest{
		ScheduleID:  args.ScheduleID,
		Name:        args.Name,
		Description: args.Description,
		TimeSlots:   args.TimeSlots,
		Frequency:   args.Frequency,
		RepeatUntil: args.RepeatUntil,
	})
	if err != nil {
		return "", err
	}
	return encodeToolResult(map[string]interface{}{"event": event})
}

type updateEventArgs struct {
	EventID          string            `json:"event_id"`
	Name             *string           `json:"name"`
	Description      *string           `json:"description"`
	TimeSlots        []TimeSlotInput   `json:"time_slots"`
	Frequency        *models.Frequency `json:"frequency"`
	RepeatUntil      *time.Time        `json:"repeat_until"`
	ClearRepeatUntil bool              `json:"clear_repeat_until"`
	TargetScheduleID *string           `json:"target_schedule_id"`
}

func (r *toolRouter) updateEvent(ctx context.Context, callerID, arguments string) (string, error) {
	var args updateEventArgs
	if err := decodeToolArgs(arguments, &args); err != nil {
		return "", err
	}
	event, err := r.events.Update(ctx, callerID, args.EventID, UpdateEventRequest{
		Name:             args.Name,
		Description:      args.Description,
		TimeSlots:        args.TimeSlots,
		Frequency:        args.Frequency,
		RepeatUntil:      args.RepeatUntil,
		ClearRepeatUntil: args.ClearRepeatUntil,
		TargetScheduleID: args.TargetScheduleID,
	})
	if err != nil {
		return "", err
	}
	return encodeToolResult(map[string]interface{}{"event": event})
}

type deleteEventArgs struct {
	EventID string `json:"event_id"`
}

func (r *toolRouter) deleteEvent(ctx context.Context, callerID, arguments string) (string, error) {
	var args deleteEventArgs
	if err := decodeToolArgs(arguments, &args); err != nil {
		return "", err
	}
	if err := r.events.Delete(ctx, callerID, args.EventID); err != nil {
		return "", err
	}
	return encodeToolResult(map[string]interface{}{"deleted": true, "event_id": args.EventID})
}

func (r *toolRouter) listFriends(ctx context.Context, callerID string) (string, error) {
	friends, err := r.friendships.ListFriends(ctx, callerID)
	if err != nil {
		return "", err
	}
	return encodeToolResult(map[string]interface{}{"friends": friends})
}

type friendEventsArgs struct {
	FriendID   string     `json:"friend_id"`
	ScheduleID string     `json:"schedule_id"`
	From       *time.Time `json:"from"`
	To         *time.Time `json:"to"`
}

func (r *toolRouter) getFriendEvents(ctx context.Context, callerID, arguments string) (string, error) {
	var args friendEventsArgs
	if err := decodeToolArgs(arguments, &args); err != nil {
		return "", err
	}
	if err := r.events.assertFriendship(ctx, callerID, args.FriendID); err != nil {
		return "", err
	}
	scheduleID := args.ScheduleID
	if scheduleID == "" {
		primary, err := r.schedules.EnsurePrimary(ctx, args.FriendID)
		if err != nil {
			return "", err
		}
		scheduleID = primary.ID
	}
	events, err := r.events.ListForFriend(ctx, callerID, args.FriendID, scheduleID, args.From, args.To)
	if err != nil {
		return "", err
	}
	return encodeToolResult(map[string]interface{}{"events": events})
}

type sharedEventArgs struct {
	FriendID    string           `json:"friend_id"`
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	TimeSlots   []TimeSlotInput  `json:"time_slots"`
	Frequency   models.Frequency `json:"frequency"`
	RepeatUntil *time.Time       `json:"repeat_until"`
}

func (r *toolRouter) createSharedEvent(ctx context.Context, callerID, arguments string) (string, error) {
	var args sharedEventArgs
	if err := decodeToolArgs(arguments, &args); err != nil {
		return "", err
	}
	mine, theirs, err := r.events.CreateShared(ctx, callerID, SharedEventRequest{
		FriendID:    args.FriendID,
		Name:        args.Name,
		Description: args.Description,
		TimeSlots:   args.TimeSlots,
		Frequency:   args.Frequency,
		RepeatUntil: args.RepeatUntil,
	})
	if err != nil {
		return "", err
	}
	return encodeToolResult(map[string]interface{}{"event": mine, "friend_event": theirs})
}

func decodeToolArgs(arguments string, dest interface{}) error {
	if arguments == "" {
		arguments = "{}"
	}
	if err := json.Unmarshal([]byte(arguments), dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed tool arguments")
	}
	return nil
}

func encodeToolResult(payload interface{}) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode tool result")
	}
	return string(raw), nil
}
