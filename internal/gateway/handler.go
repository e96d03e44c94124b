package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/chat"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/checkpoint"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/models"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/workflow"
)

var tracer = otel.Tracer("chat-gateway")

// Handler serves the HTTP chat API.
type Handler struct {
	chatService *chat.Service
	tracer      trace.Tracer
}

// NewHandler creates a chat API handler.
func NewHandler(chatService *chat.Service) *Handler {
	return &Handler{
		chatService: chatService,
		tracer:      tracer,
	}
}

// Chat handles POST /api/v1/chat.
//
//	@Summary		Send a chat message
//	@Description	Runs the message through the assistant workflow and returns the reply
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			request	body		models.ChatRequest	true	"Chat message"
//	@Success		200		{object}	models.ChatResponse
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		500		{object}	models.ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/chat [post]
func (h *Handler) Chat(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "gateway.chat")
	defer span.End()

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}

	span.SetAttributes(
		attribute.String("session.id", req.SessionID),
		attribute.Bool("debug", req.Debug),
	)

	resp, err := h.chatService.ProcessMessage(ctx, req)
	if err != nil {
		span.RecordError(err)
		status, code := classifyError(err)
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("chat request failed")
		c.JSON(status, models.ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ChatHistory handles GET /api/v1/chat/history/:session_id.
//
//	@Summary		Get session history
//	@Description	Returns the ordered message log of one chat session
//	@Tags			chat
//	@Produce		json
//	@Param			session_id	path		string	true	"Session ID"
//	@Success		200			{object}	models.ChatHistory
//	@Failure		500			{object}	models.ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/chat/history/{session_id} [get]
func (h *Handler) ChatHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "gateway.chat_history")
	defer span.End()

	sessionID := c.Param("session_id")
	span.SetAttributes(attribute.String("session.id", sessionID))

	history, err := h.chatService.History(ctx, sessionID)
	if err != nil {
		span.RecordError(err)
		log.Error().Err(err).Str("session_id", sessionID).Msg("history lookup failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "failed to load history",
			Code:  models.ErrCodeInternalError,
		})
		return
	}

	c.JSON(http.StatusOK, history)
}

func classifyError(err error) (int, string) {
	var pe *checkpoint.PersistenceError
	switch {
	case errors.Is(err, workflow.ErrInvalidRequest):
		return http.StatusBadRequest, models.ErrCodeInvalidRequest
	case errors.As(err, &pe):
		return http.StatusInternalServerError, models.ErrCodePersistenceFault
	default:
		return http.StatusInternalServerError, models.ErrCodeInternalError
	}
}
