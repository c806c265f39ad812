package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fixly_backend/internal/dto"
	"fixly_backend/internal/middleware"
	"fixly_backend/internal/services"
	"fixly_backend/pkg/apperrors"
)

type MessageHandler struct {
	*BaseHandler
	messageService services.MessageService
	commentService services.CommentService
}

func NewMessageHandler(base *BaseHandler, messageService services.MessageService, commentService services.CommentService) *MessageHandler {
	return &MessageHandler{
		BaseHandler:    base,
		messageService: messageService,
		commentService: commentService,
	}
}

func (h *MessageHandler) RegisterRoutes(r *gin.RouterGroup) {
	jobs := r.Group("/jobs")
	{
		jobs.GET("/:jobId/comments", h.ListComments)
	}

	protected := r.Group("/jobs")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.POST("/:jobId/comments", h.CreateComment)
		protected.POST("/:jobId/messages/:recipientId", h.SendMessage)
		protected.GET("/:jobId/messages/:recipientId", h.GetDialog)
	}
}

func (h *MessageHandler) CreateComment(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CommentRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	comment, err := h.commentService.Create(userID, c.Param("jobId"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (h *MessageHandler) ListComments(c *gin.Context) {
	comments, err := h.commentService.ListByJob(c.Param("jobId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	recipientID := c.Param("recipientId")
	if recipientID == "" {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Missing recipient id"))
		return
	}

	var req dto.MessageRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	message, err := h.messageService.Send(userID, c.Param("jobId"), recipientID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

func (h *MessageHandler) GetDialog(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	messages, err := h.messageService.GetDialog(userID, c.Param("jobId"), c.Param("recipientId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
