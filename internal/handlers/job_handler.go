package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fixly_backend/internal/dto"
	"fixly_backend/internal/middleware"
	"fixly_backend/internal/models"
	"fixly_backend/internal/services"
)

type JobHandler struct {
	*BaseHandler
	jobService services.JobService
}

func NewJobHandler(base *BaseHandler, jobService services.JobService) *JobHandler {
	return &JobHandler{
		BaseHandler: base,
		jobService:  jobService,
	}
}

func (h *JobHandler) RegisterRoutes(r *gin.RouterGroup) {
	jobs := r.Group("/jobs")
	{
		jobs.GET("", h.List)
		jobs.GET("/:jobId", h.Get)
	}

	protected := r.Group("/jobs")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.POST("", middleware.RequireRoles(models.UserRoleHirer), h.Create)
		protected.POST("/:jobId/assign", middleware.RequireRoles(models.UserRoleHirer), h.Assign)
		protected.PUT("/:jobId/close", middleware.RequireRoles(models.UserRoleHirer), h.Close)
		protected.PUT("/:jobId/cancel", middleware.RequireRoles(models.UserRoleHirer), h.Cancel)
	}
}

func (h *JobHandler) Create(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.CreateJobRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	job, err := h.jobService.Create(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.jobService.Get(c.Param("jobId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) List(c *gin.Context) {
	var query dto.JobListQuery
	if !h.BindAndValidateQuery(c, &query) {
		return
	}
	if query.Page <= 0 || query.PageSize <= 0 {
		query.Page, query.PageSize = ParsePagination(c)
	}

	jobs, total, err := h.jobService.List(&query)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":      jobs,
		"total":     total,
		"page":      query.Page,
		"page_size": query.PageSize,
	})
}

func (h *JobHandler) Assign(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.AssignRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.jobService.Assign(userID, c.Param("jobId"), &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job assigned"})
}

func (h *JobHandler) Close(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.jobService.Close(userID, c.Param("jobId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job closed"})
}

func (h *JobHandler) Cancel(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.jobService.Cancel(userID, c.Param("jobId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job cancelled"})
}
