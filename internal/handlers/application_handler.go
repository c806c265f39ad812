package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fixly_backend/internal/dto"
	"fixly_backend/internal/middleware"
	"fixly_backend/internal/models"
	"fixly_backend/internal/services"
	"fixly_backend/pkg/apperrors"
)

type ApplicationHandler struct {
	*BaseHandler
	applicationService services.ApplicationService
}

func NewApplicationHandler(base *BaseHandler, applicationService services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		BaseHandler:        base,
		applicationService: applicationService,
	}
}

func (h *ApplicationHandler) RegisterRoutes(r *gin.RouterGroup) {
	jobs := r.Group("/jobs")
	jobs.Use(middleware.AuthMiddleware())
	{
		jobs.POST("/:jobId/apply", middleware.RequireRoles(models.UserRoleFixer), h.Apply)
		jobs.POST("/:jobId/quick-apply", middleware.RequireRoles(models.UserRoleFixer), h.QuickApply)
		jobs.GET("/:jobId/applications", middleware.RequireRoles(models.UserRoleHirer), h.ListByJob)
	}

	applications := r.Group("/applications")
	applications.Use(middleware.AuthMiddleware())
	{
		applications.GET("/my", middleware.RequireRoles(models.UserRoleFixer), h.ListMine)
		applications.PUT("/:applicationId/withdraw", middleware.RequireRoles(models.UserRoleFixer), h.Withdraw)
	}
}

func (h *ApplicationHandler) Apply(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.ApplyRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	app, err := h.applicationService.Apply(userID, c.Param("jobId"), &req)
	if err != nil {
		h.handleApplyError(c, err)
		return
	}

	c.JSON(http.StatusCreated, app)
}

func (h *ApplicationHandler) QuickApply(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	app, err := h.applicationService.QuickApply(userID, c.Param("jobId"))
	if err != nil {
		h.handleApplyError(c, err)
		return
	}

	c.JSON(http.StatusCreated, app)
}

func (h *ApplicationHandler) handleApplyError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrQuotaExceeded) {
		middleware.CountQuotaBlocked()
	}
	h.HandleServiceError(c, err)
}

func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.applicationService.Withdraw(userID, c.Param("applicationId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Application withdrawn"})
}

func (h *ApplicationHandler) ListByJob(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	apps, err := h.applicationService.ListByJob(userID, c.Param("jobId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": apps})
}

func (h *ApplicationHandler) ListMine(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	apps, err := h.applicationService.ListMine(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": apps})
}
