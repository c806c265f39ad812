package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fixly_backend/internal/dto"
	"fixly_backend/internal/middleware"
	"fixly_backend/internal/models"
	"fixly_backend/internal/services"
	"fixly_backend/pkg/apperrors"
)

type SubscriptionHandler struct {
	*BaseHandler
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandler(base *BaseHandler, subscriptionService services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
	}
}

func (h *SubscriptionHandler) RegisterRoutes(r *gin.RouterGroup) {
	plans := r.Group("/plans")
	{
		plans.GET("", h.GetPlans)
		plans.GET("/:planId", h.GetPlan)
	}

	subscriptions := r.Group("/subscriptions")
	subscriptions.Use(middleware.AuthMiddleware())
	{
		subscriptions.GET("/my", h.GetMyPlan)
		subscriptions.PUT("/cancel", h.CancelSubscription)
	}

	payments := r.Group("/payments")
	{
		payments.POST("/init", middleware.AuthMiddleware(), h.InitPayment)
		// Callback приходит от платежного шлюза, аутентификация -
		// подпись в теле запроса.
		payments.POST("/callback", h.PaymentCallback)
	}

	adminPlans := r.Group("/admin/plans")
	adminPlans.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleAdmin))
	{
		adminPlans.POST("", h.CreatePlan)
		adminPlans.PUT("/:planId", h.UpdatePlan)
		adminPlans.DELETE("/:planId", h.DeletePlan)
	}

	adminSubscriptions := r.Group("/admin/subscriptions")
	adminSubscriptions.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleAdmin))
	{
		adminSubscriptions.GET("/stats", h.GetPlatformStats)
		adminSubscriptions.GET("/expiring", h.GetExpiringSubscriptions)
		adminSubscriptions.POST("/process-expired", h.ProcessExpiredSubscriptions)
	}
}

func (h *SubscriptionHandler) GetPlans(c *gin.Context) {
	plans, err := h.subscriptionService.GetPlans()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

func (h *SubscriptionHandler) GetPlan(c *gin.Context) {
	plan, err := h.subscriptionService.GetPlan(c.Param("planId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (h *SubscriptionHandler) GetMyPlan(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	state, err := h.subscriptionService.GetMyPlan(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	if err := h.subscriptionService.CancelSubscription(userID); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscription cancelled"})
}

func (h *SubscriptionHandler) InitPayment(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.InitPaymentRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.subscriptionService.InitPayment(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *SubscriptionHandler) PaymentCallback(c *gin.Context) {
	var req dto.PaymentCallbackRequest
	if !h.BindAndValidateJSON(c, &req) {
		middleware.CountPaymentCallback("rejected")
		return
	}

	if err := h.subscriptionService.ProcessPaymentCallback(&req); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrPaymentAlreadyProcessed):
			middleware.CountPaymentCallback("duplicate")
		default:
			middleware.CountPaymentCallback("rejected")
		}
		h.HandleServiceError(c, err)
		return
	}

	middleware.CountPaymentCallback("accepted")
	c.JSON(http.StatusOK, gin.H{"message": "Payment verified"})
}

func (h *SubscriptionHandler) GetPlatformStats(c *gin.Context) {
	stats, err := h.subscriptionService.GetPlatformStats()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *SubscriptionHandler) GetExpiringSubscriptions(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 {
		apperrors.HandleError(c, apperrors.NewBadRequestError("days must be a positive integer"))
		return
	}

	expiring, err := h.subscriptionService.ListExpiring(days)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expiring": expiring})
}

func (h *SubscriptionHandler) ProcessExpiredSubscriptions(c *gin.Context) {
	count, err := h.subscriptionService.ProcessExpiredSubscriptions()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expired": count})
}

func (h *SubscriptionHandler) CreatePlan(c *gin.Context) {
	var req dto.CreatePlanRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	plan, err := h.subscriptionService.CreatePlan(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, plan)
}

func (h *SubscriptionHandler) UpdatePlan(c *gin.Context) {
	var req dto.UpdatePlanRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.subscriptionService.UpdatePlan(c.Param("planId"), &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plan updated"})
}

func (h *SubscriptionHandler) DeletePlan(c *gin.Context) {
	if err := h.subscriptionService.DeletePlan(c.Param("planId")); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Plan deleted"})
}
