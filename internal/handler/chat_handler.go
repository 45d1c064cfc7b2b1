package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/models"
	"github.com/noah-isme/lms-insight-api/internal/service"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
	"github.com/noah-isme/lms-insight-api/pkg/response"
)

type chatService interface {
	Converse(ctx context.Context, claims *models.JWTClaims, message, sessionID string) (string, error)
}

type chatHistoryService interface {
	ListFor(ctx context.Context, claims *models.JWTClaims, studentID string) ([]models.ChatHistory, error)
	Delete(ctx context.Context, claims *models.JWTClaims, id string) error
}

// ChatHandler exposes the assistant conversation endpoint and the transcript
// management endpoints.
type ChatHandler struct {
	chat    chatService
	history chatHistoryService
	logger  *zap.Logger
}

// NewChatHandler constructs the chat handler.
func NewChatHandler(chat chatService, history chatHistoryService, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{chat: chat, history: history, logger: logger}
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// Converse godoc
// @Summary Send one message to the attendance assistant
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body chatRequest true "User message"
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /chat [post]
func (h *ChatHandler) Converse(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	text, err := h.chat.Converse(c.Request.Context(), claimsFromContext(c), req.Message, req.SessionID)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrValidation.Code {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
			return
		}
		h.logger.Error("conversation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"response": service.ApologyMessage,
			"status":   "error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response": text,
		"status":   "success",
	})
}

// History godoc
// @Summary List conversation transcripts visible to the caller
// @Tags Chat
// @Produce json
// @Param student_id query string false "Restrict to one student (staff only)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /chat-history [get]
func (h *ChatHandler) History(c *gin.Context) {
	rows, err := h.history.ListFor(c.Request.Context(), claimsFromContext(c), c.Query("student_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// DeleteHistory godoc
// @Summary Delete one conversation transcript
// @Tags Chat
// @Param id path string true "Transcript ID"
// @Success 204
// @Security BearerAuth
// @Router /chat-history/{id} [delete]
func (h *ChatHandler) DeleteHistory(c *gin.Context) {
	if err := h.history.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
