package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gorm.io/datatypes"

	"fixly_backend/internal/dto"
	"fixly_backend/internal/email"
	"fixly_backend/internal/logger"
	"fixly_backend/internal/models"
	"fixly_backend/internal/payments"
	"fixly_backend/internal/quota"
	"fixly_backend/internal/repositories"
	"fixly_backend/pkg/apperrors"
)

const plansCacheKey = "subscription_plans_active"

type SubscriptionService interface {
	// Каталог тарифов.
	GetPlans() ([]*models.SubscriptionPlan, error)
	GetPlan(planID string) (*models.SubscriptionPlan, error)
	CreatePlan(req *dto.CreatePlanRequest) (*models.SubscriptionPlan, error)
	UpdatePlan(planID string, req *dto.UpdatePlanRequest) error
	DeletePlan(planID string) error

	// Состояние тарифа пользователя.
	GetMyPlan(userID string) (*dto.PlanStateResponse, error)
	CancelSubscription(userID string) error

	// Платежи.
	InitPayment(userID string, req *dto.InitPaymentRequest) (*dto.InitPaymentResponse, error)
	ProcessPaymentCallback(req *dto.PaymentCallbackRequest) error

	// Обслуживание подписок.
	ProcessExpiredSubscriptions() (int64, error)
	NotifyExpiringSubscriptions(days int) error

	// Админская статистика.
	GetPlatformStats() (*dto.SubscriptionStatsResponse, error)
	ListExpiring(days int) ([]*dto.ExpiringSubscriptionResponse, error)
}

type subscriptionService struct {
	planRepo         repositories.PlanRepository
	userPlanRepo     repositories.UserPlanRepository
	paymentRepo      repositories.PaymentRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	usageRepo        repositories.UsageRepository
	gateway          *payments.RazorpayService
	emailProvider    email.Provider
	cache            *gocache.Cache
}

func NewSubscriptionService(
	planRepo repositories.PlanRepository,
	userPlanRepo repositories.UserPlanRepository,
	paymentRepo repositories.PaymentRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	usageRepo repositories.UsageRepository,
	gateway *payments.RazorpayService,
	emailProvider email.Provider,
) SubscriptionService {
	return &subscriptionService{
		planRepo:         planRepo,
		userPlanRepo:     userPlanRepo,
		paymentRepo:      paymentRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		usageRepo:        usageRepo,
		gateway:          gateway,
		emailProvider:    emailProvider,
		cache:            gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// Каталог тарифов

func (s *subscriptionService) GetPlans() ([]*models.SubscriptionPlan, error) {
	if cached, found := s.cache.Get(plansCacheKey); found {
		if plans, ok := cached.([]*models.SubscriptionPlan); ok {
			return plans, nil
		}
	}

	plans, err := s.planRepo.FindActive()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	result := make([]*models.SubscriptionPlan, 0, len(plans))
	for i := range plans {
		result = append(result, &plans[i])
	}

	s.cache.Set(plansCacheKey, result, gocache.DefaultExpiration)
	return result, nil
}

func (s *subscriptionService) GetPlan(planID string) (*models.SubscriptionPlan, error) {
	plan, err := s.planRepo.FindByID(planID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionPlanNotFound) {
			return nil, apperrors.ErrPlanNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	return plan, nil
}

func (s *subscriptionService) CreatePlan(req *dto.CreatePlanRequest) (*models.SubscriptionPlan, error) {
	featuresJSON, err := json.Marshal(req.Features)
	if err != nil {
		return nil, apperrors.InternalError(fmt.Errorf("failed to marshal features: %w", err))
	}

	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	plan := &models.SubscriptionPlan{
		Name:     req.Name,
		Price:    req.Price,
		Currency: currency,
		Duration: req.Duration,
		Features: datatypes.JSON(featuresJSON),
		IsActive: req.IsActive,
	}

	if err := s.planRepo.Create(plan); err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.cache.Delete(plansCacheKey)
	return plan, nil
}

func (s *subscriptionService) UpdatePlan(planID string, req *dto.UpdatePlanRequest) error {
	plan, err := s.GetPlan(planID)
	if err != nil {
		return err
	}

	if req.Name != nil {
		plan.Name = *req.Name
	}
	if req.Price != nil {
		plan.Price = *req.Price
	}
	if req.Currency != nil {
		plan.Currency = *req.Currency
	}
	if req.Duration != nil {
		plan.Duration = *req.Duration
	}
	if req.Features != nil {
		featuresJSON, err := json.Marshal(req.Features)
		if err != nil {
			return apperrors.InternalError(fmt.Errorf("failed to marshal features: %w", err))
		}
		plan.Features = datatypes.JSON(featuresJSON)
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := s.planRepo.Update(plan); err != nil {
		return apperrors.InternalError(err)
	}

	s.cache.Delete(plansCacheKey)
	return nil
}

func (s *subscriptionService) DeletePlan(planID string) error {
	if err := s.planRepo.Delete(planID); err != nil {
		if errors.Is(err, repositories.ErrSubscriptionPlanNotFound) {
			return apperrors.ErrPlanNotFound
		}
		return apperrors.InternalError(err)
	}
	s.cache.Delete(plansCacheKey)
	return nil
}

// Состояние тарифа пользователя

func (s *subscriptionService) GetMyPlan(userID string) (*dto.PlanStateResponse, error) {
	plan, err := s.userPlanRepo.FindByUserID(userID)
	if err != nil {
		if !errors.Is(err, repositories.ErrPlanNotFound) {
			return nil, apperrors.InternalError(err)
		}
		plan = nil
	}

	now := time.Now()
	resp := &dto.PlanStateResponse{
		Type:             string(models.PlanTypeFree),
		RemainingCredits: quota.RemainingCredits(plan, now),
		Unlimited:        quota.IsUnlimited(plan, now),
		CanApply:         quota.CanPerformGatedAction(plan, now),
	}

	if plan != nil {
		resp.Type = string(plan.Type)
		resp.Status = string(plan.Status)
		resp.CreditsUsed = plan.CreditsUsed
		resp.StartDate = plan.StartDate
		resp.EndDate = plan.EndDate
		if plan.Plan != nil {
			resp.PlanName = plan.Plan.Name
		}
	}

	return resp, nil
}

func (s *subscriptionService) CancelSubscription(userID string) error {
	err := s.userPlanRepo.CancelPro(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlanNotFound) {
			return apperrors.ErrNoActiveSubscription
		}
		return apperrors.InternalError(err)
	}
	return nil
}

// Платежи

func (s *subscriptionService) InitPayment(userID string, req *dto.InitPaymentRequest) (*dto.InitPaymentResponse, error) {
	plan, err := s.GetPlan(req.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, apperrors.ErrPlanNotFound
	}

	order, err := s.gateway.CreateOrder(plan.Price)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	paymentOrder := &models.PaymentOrder{
		UserID:   userID,
		PlanID:   plan.ID,
		OrderID:  order.OrderID,
		Amount:   plan.Price,
		Currency: order.Currency,
		Status:   models.PaymentStatusPending,
	}
	if err := s.paymentRepo.CreateOrder(paymentOrder); err != nil {
		return nil, apperrors.InternalError(err)
	}

	go s.usageRepo.Track(userID, models.EventPaymentInitiated, map[string]interface{}{
		"order_id": order.OrderID,
		"plan_id":  plan.ID,
		"amount":   plan.Price,
	})

	return &dto.InitPaymentResponse{
		OrderID:  order.OrderID,
		Amount:   order.Amount,
		Currency: order.Currency,
		KeyID:    order.KeyID,
	}, nil
}

// ProcessPaymentCallback проверяет подпись шлюза и активирует подписку.
// Порядок строгий: сначала подпись, потом поиск заказа, потом
// одноразовое потребление заказа. Любая ошибка до потребления
// оставляет заказ в статусе pending.
func (s *subscriptionService) ProcessPaymentCallback(req *dto.PaymentCallbackRequest) error {
	if !s.gateway.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature) {
		logger.Warn("payment callback rejected: invalid signature", "order_id", req.OrderID)
		return apperrors.ErrPaymentVerificationFailed
	}

	order, err := s.paymentRepo.FindByOrderID(req.OrderID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentOrderNotFound) {
			return apperrors.ErrPaymentVerificationFailed
		}
		return apperrors.InternalError(err)
	}

	// Сумма заказа зафиксирована при его создании: шлюз списал именно
	// ее, поэтому с текущей ценой каталога заказ не сверяется. Тариф
	// нужен только ради длительности и имени.
	plan, err := s.GetPlan(order.PlanID)
	if err != nil {
		return err
	}

	paidAt := time.Now()
	if err := s.paymentRepo.ConsumeOrder(req.OrderID, req.PaymentID, paidAt); err != nil {
		if errors.Is(err, repositories.ErrOrderAlreadyConsumed) {
			return apperrors.ErrPaymentAlreadyProcessed
		}
		if errors.Is(err, repositories.ErrPaymentOrderNotFound) {
			return apperrors.ErrPaymentVerificationFailed
		}
		return apperrors.InternalError(err)
	}

	endDate := calculateEndDate(paidAt, plan.Duration)
	if err := s.userPlanRepo.ActivatePro(order.UserID, plan.ID, paidAt, endDate); err != nil {
		// Заказ уже потреблен, активацию нельзя терять молча.
		logger.Error("payment consumed but activation failed",
			"order_id", req.OrderID, "user_id", order.UserID, "error", err)
		return apperrors.InternalError(err)
	}

	logger.Info("pro subscription activated",
		"user_id", order.UserID, "plan", plan.Name, "order_id", req.OrderID)

	go s.notificationRepo.CreatePlanActivatedNotification(order.UserID, plan.Name)
	go s.usageRepo.Track(order.UserID, models.EventPlanActivated, map[string]interface{}{
		"order_id": req.OrderID,
		"plan_id":  plan.ID,
	})
	go s.sendReceiptEmail(order.UserID, plan, endDate)

	return nil
}

func (s *subscriptionService) sendReceiptEmail(userID string, plan *models.SubscriptionPlan, endDate time.Time) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		logger.WithError(err).Warn("failed to load user for receipt email", "user_id", userID)
		return
	}

	err = s.emailProvider.SendTemplate(
		[]string{user.Email},
		"Подписка Fixly Pro активирована",
		email.TemplatePlanReceipt,
		email.TemplateData{
			"Name":     user.Name,
			"PlanName": plan.Name,
			"Amount":   plan.Price,
			"Currency": plan.Currency,
			"EndDate":  endDate.Format("02.01.2006"),
		},
	)
	if err != nil {
		logger.WithError(err).Warn("failed to send receipt email", "user_id", userID)
	}
}

// Обслуживание подписок

func (s *subscriptionService) ProcessExpiredSubscriptions() (int64, error) {
	expired, err := s.userPlanRepo.FindExpired()
	if err != nil {
		return 0, err
	}

	count, err := s.userPlanRepo.ProcessExpired()
	if err != nil {
		return 0, err
	}

	for _, plan := range expired {
		go s.notificationRepo.CreatePlanExpiredNotification(plan.UserID)
		go s.usageRepo.Track(plan.UserID, models.EventPlanExpired, nil)
	}

	return count, nil
}

func (s *subscriptionService) NotifyExpiringSubscriptions(days int) error {
	expiring, err := s.userPlanRepo.FindExpiring(days)
	if err != nil {
		return err
	}

	for _, plan := range expiring {
		user, err := s.userRepo.FindByID(plan.UserID)
		if err != nil {
			continue
		}
		planName := "Pro"
		if plan.Plan != nil {
			planName = plan.Plan.Name
		}
		endDate := ""
		if plan.EndDate != nil {
			endDate = plan.EndDate.Format("02.01.2006")
		}
		err = s.emailProvider.SendTemplate(
			[]string{user.Email},
			"Подписка Fixly Pro скоро закончится",
			email.TemplatePlanExpiring,
			email.TemplateData{
				"Name":     user.Name,
				"PlanName": planName,
				"EndDate":  endDate,
			},
		)
		if err != nil {
			logger.WithError(err).Warn("failed to send expiring email", "user_id", plan.UserID)
		}
	}

	return nil
}

// Админская статистика

func (s *subscriptionService) GetPlatformStats() (*dto.SubscriptionStatsResponse, error) {
	counts, err := s.userPlanRepo.PlatformStats()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return &dto.SubscriptionStatsResponse{
		FreeUsers:    counts.FreeUsers,
		ProActive:    counts.ProActive,
		ProExpired:   counts.ProExpired,
		ProCancelled: counts.ProCancelled,
	}, nil
}

func (s *subscriptionService) ListExpiring(days int) ([]*dto.ExpiringSubscriptionResponse, error) {
	plans, err := s.userPlanRepo.FindExpiring(days)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	result := make([]*dto.ExpiringSubscriptionResponse, 0, len(plans))
	for _, plan := range plans {
		planName := ""
		if plan.Plan != nil {
			planName = plan.Plan.Name
		}
		result = append(result, &dto.ExpiringSubscriptionResponse{
			UserID:   plan.UserID,
			PlanName: planName,
			EndDate:  plan.EndDate,
		})
	}
	return result, nil
}

func calculateEndDate(startDate time.Time, duration string) time.Time {
	switch duration {
	case "yearly":
		return startDate.AddDate(1, 0, 0)
	case "monthly":
		return startDate.AddDate(0, 1, 0)
	default:
		return startDate.AddDate(0, 1, 0)
	}
}
