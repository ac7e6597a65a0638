package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hankpharris/tempora-ai-sub000/internal/dto"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
	"github.com/hankpharris/tempora-ai-sub000/pkg/llm"
)

type chatCompleter interface {
	Complete(ctx context.Context, messages []llm.Message, tools []llm.Tool) (*llm.Message, error)
}

// ChatService runs the assistant loop: it forwards the conversation to the
// model with the tool catalog, executes any requested tool calls as the
// chatting user, feeds results back, and repeats until the model answers in
// plain text or the round cap is reached.
type ChatService struct {
	client    chatCompleter
	router    *toolRouter
	metrics   *MetricsService
	maxRounds int
	enabled   bool
	logger    *zap.Logger
	now       func() time.Time
}

// NewChatService constructs the service. A nil client or enabled=false
// makes Converse return ErrChatDisabled.
func NewChatService(client chatCompleter, events *EventService, friendships *FriendshipService, schedules *ScheduleService, metrics *MetricsService, maxRounds int, enabled bool, logger *zap.Logger) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRounds <= 0 {
		maxRounds = 5
	}
	return &ChatService{
		client:    client,
		router:    newToolRouter(events, friendships, schedules),
		metrics:   metrics,
		maxRounds: maxRounds,
		enabled:   enabled && client != nil,
		logger:    logger,
		now:       time.Now,
	}
}

// Converse answers the latest user message, tool-calling as needed. It
// returns the assistant's final text.
func (s *ChatService) Converse(ctx context.Context, callerID string, history []dto.ChatTurn) (string, error) {
	if !s.enabled {
		return "", appErrors.Clone(appErrors.ErrChatDisabled, "chat assistant is not enabled")
	}
	if len(history) == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "conversation is empty")
	}

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: s.systemPrompt()})
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: turn.Role, Content: turn.Content})
	}

	tools := s.router.definitions()
	for round := 0; round < s.maxRounds; round++ {
		reply, err := s.client.Complete(ctx, messages, tools)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "chat provider call failed")
		}

		if len(reply.ToolCalls) == 0 {
			return reply.Content, nil
		}

		messages = append(messages, *reply)
		for _, call := range reply.ToolCalls {
			result, execErr := s.router.execute(ctx, callerID, call.Function.Name, call.Function.Arguments)
			if s.metrics != nil {
				s.metrics.RecordChatToolCall(call.Function.Name, execErr)
			}
			if execErr != nil {
				s.logger.Warn("chat tool call failed",
					zap.String("tool", call.Function.Name),
					zap.String("user_id", callerID),
					zap.Error(execErr))
				result = toolErrorPayload(execErr)
			}
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
		}
	}

	return "", appErrors.Clone(appErrors.ErrInternal, "chat assistant exceeded the tool round limit")
}

func (s *ChatService) systemPrompt() string {
	return fmt.Sprintf(
		"You are Tempora's scheduling assistant. Today is %s (UTC). "+
			"Use the provided tools to read and change the user's calendar; never invent event data. "+
			"All times you pass to tools must be RFC 3339 timestamps. "+
			"Confirm destructive changes back to the user in plain language.",
		s.now().UTC().Format("Monday, 2 January 2006"))
}

// toolErrorPayload shapes an execution failure as tool output so the model
// can recover or report it instead of the whole turn aborting.
func toolErrorPayload(err error) string {
	appErr := appErrors.FromError(err)
	return fmt.Sprintf(`{"error":%q,"code":%q}`, appErr.Message, appErr.Code)
}
