package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hankpharris/tempora-ai-sub000/internal/dto"
	"github.com/hankpharris/tempora-ai-sub000/internal/service"
	appErrors "github.com/hankpharris/tempora-ai-sub000/pkg/errors"
	"github.com/hankpharris/tempora-ai-sub000/pkg/response"
)

// ChatHandler exposes the scheduling assistant.
type ChatHandler struct {
	service *service.ChatService
}

// NewChatHandler creates a new handler.
func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// Converse godoc
// @Summary Chat with the assistant
// @Description Send the conversation so far and receive the assistant's reply
// @Tags Chat
// @Accept json
// @Produce json
// @Param payload body dto.ChatRequest true "Conversation turns"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /chat [post]
func (h *ChatHandler) Converse(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid chat payload"))
		return
	}

	reply, err := h.service.Converse(c.Request.Context(), claims.UserID, req.Messages)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.ChatResponse{Reply: reply}, nil)
}
