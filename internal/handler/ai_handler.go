package handler

import (
	"github.com/gin-gonic/gin"

	"facturaia/internal/service"
)

// AIHandler serves the invoice assistant.
type AIHandler struct {
	assistant service.AssistantService
}

// NewAIHandler creates a new AIHandler.
func NewAIHandler(assistant service.AssistantService) *AIHandler {
	return &AIHandler{assistant: assistant}
}

// Chat handles POST /api/v1/ai/chat
func (h *AIHandler) Chat(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}

	var input service.ChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondValidation(c, err)
		return
	}
	if input.CompanyID == nil {
		if input.CompanyID, ok = companyQuery(c); !ok {
			return
		}
	}

	reply, err := h.assistant.Chat(c.Request.Context(), actor, input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, reply)
}

// Status handles GET /api/v1/ai/status
func (h *AIHandler) Status(c *gin.Context) {
	actor, ok := extractActor(c)
	if !ok {
		return
	}

	statuses, err := h.assistant.Status(c.Request.Context(), actor)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"providers": statuses})
}
