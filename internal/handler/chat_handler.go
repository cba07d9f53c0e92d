package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/swiaape-api/internal/dto"
	"github.com/noah-isme/swiaape-api/pkg/response"
)

type chatService interface {
	Reply(ctx context.Context, req dto.ChatRequest) (*dto.ChatResponse, error)
}

// ChatHandler serves the AI assistant.
type ChatHandler struct {
	service chatService
}

// NewChatHandler constructs a ChatHandler.
func NewChatHandler(svc chatService) *ChatHandler {
	return &ChatHandler{service: svc}
}

// Send godoc
// @Summary Talk to the assistant
// @Description "plan <studentId>" summarises a student's plan, anything else goes to the model
// @Tags Chat
// @Accept json
// @Produce json
// @Param payload body dto.ChatRequest true "Message"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /chat [post]
func (h *ChatHandler) Send(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "invalid chat payload"))
		return
	}
	reply, err := h.service.Reply(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, reply)
}
