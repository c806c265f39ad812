package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixly_backend/internal/dto"
	"fixly_backend/internal/models"
	"fixly_backend/internal/payments"
	"fixly_backend/pkg/apperrors"
)

const testKeySecret = "test_secret"

func signCallback(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

type subscriptionFixture struct {
	service     SubscriptionService
	planRepo    *fakePlanRepo
	userPlans   *fakeUserPlanRepo
	payments    *fakePaymentRepo
	users       *fakeUserRepo
	emails      *fakeEmailProvider
	monthlyPlan *models.SubscriptionPlan
}

func newSubscriptionFixture(t *testing.T) *subscriptionFixture {
	t.Helper()

	planRepo := newFakePlanRepo()
	userPlans := newFakeUserPlanRepo()
	paymentRepo := newFakePaymentRepo()
	users := newFakeUserRepo()
	emails := newFakeEmailProvider()

	gateway := payments.NewRazorpayService("rzp_test_key", testKeySecret)
	service := NewSubscriptionService(
		planRepo, userPlans, paymentRepo, users,
		newFakeNotificationRepo(), newFakeUsageRepo(),
		gateway, emails,
	)

	monthly := &models.SubscriptionPlan{
		Name:     "Pro Monthly",
		Price:    499,
		Currency: "INR",
		Duration: "monthly",
		IsActive: true,
	}
	require.NoError(t, planRepo.Create(monthly))

	require.NoError(t, users.Create(&models.User{
		Email:  "fixer@example.com",
		Name:   "Фиксер",
		Role:   models.UserRoleFixer,
		Status: models.UserStatusActive,
	}))
	require.NoError(t, userPlans.Create(&models.UserPlan{
		UserID: "user-1",
		Type:   models.PlanTypeFree,
		Status: models.PlanStatusActive,
	}))

	return &subscriptionFixture{
		service:     service,
		planRepo:    planRepo,
		userPlans:   userPlans,
		payments:    paymentRepo,
		users:       users,
		emails:      emails,
		monthlyPlan: monthly,
	}
}

func TestInitPayment(t *testing.T) {
	fx := newSubscriptionFixture(t)

	resp, err := fx.service.InitPayment("user-1", &dto.InitPaymentRequest{PlanID: fx.monthlyPlan.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.OrderID)
	assert.Equal(t, 499.0, resp.Amount)
	assert.Equal(t, "INR", resp.Currency)
	assert.Equal(t, "rzp_test_key", resp.KeyID)

	order, err := fx.payments.FindByOrderID(resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, order.Status)
	assert.Equal(t, "user-1", order.UserID)
}

func TestInitPaymentUnknownPlan(t *testing.T) {
	fx := newSubscriptionFixture(t)

	_, err := fx.service.InitPayment("user-1", &dto.InitPaymentRequest{PlanID: "missing"})
	assert.ErrorIs(t, err, apperrors.ErrPlanNotFound)
}

func TestPaymentCallbackActivatesPro(t *testing.T) {
	fx := newSubscriptionFixture(t)

	// Исчерпанная квота до оплаты.
	for i := 0; i < 3; i++ {
		require.NoError(t, fx.userPlans.ChargeCredit("user-1", "job-"+string(rune('a'+i)), "app"))
	}

	resp, err := fx.service.InitPayment("user-1", &dto.InitPaymentRequest{PlanID: fx.monthlyPlan.ID})
	require.NoError(t, err)

	err = fx.service.ProcessPaymentCallback(&dto.PaymentCallbackRequest{
		OrderID:   resp.OrderID,
		PaymentID: "pay_123",
		Signature: signCallback(resp.OrderID, "pay_123", testKeySecret),
	})
	require.NoError(t, err)

	plan, err := fx.userPlans.FindByUserID("user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanTypePro, plan.Type)
	assert.Equal(t, models.PlanStatusActive, plan.Status)
	assert.Equal(t, 0, plan.CreditsUsed, "активация сбрасывает счетчик")
	require.NotNil(t, plan.EndDate)
	assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), *plan.EndDate, time.Minute)

	order, err := fx.payments.FindByOrderID(resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, order.Status)
	assert.Equal(t, "pay_123", order.PaymentID)
}

func TestPaymentCallbackDoubleDelivery(t *testing.T) {
	fx := newSubscriptionFixture(t)

	resp, err := fx.service.InitPayment("user-1", &dto.InitPaymentRequest{PlanID: fx.monthlyPlan.ID})
	require.NoError(t, err)

	callback := &dto.PaymentCallbackRequest{
		OrderID:   resp.OrderID,
		PaymentID: "pay_123",
		Signature: signCallback(resp.OrderID, "pay_123", testKeySecret),
	}

	require.NoError(t, fx.service.ProcessPaymentCallback(callback))

	// Повторная доставка того же callback'а.
	err = fx.service.ProcessPaymentCallback(callback)
	assert.ErrorIs(t, err, apperrors.ErrPaymentAlreadyProcessed)

	plan, err := fx.userPlans.FindByUserID("user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanTypePro, plan.Type)
}

func TestPaymentCallbackTamperedSignature(t *testing.T) {
	fx := newSubscriptionFixture(t)

	resp, err := fx.service.InitPayment("user-1", &dto.InitPaymentRequest{PlanID: fx.monthlyPlan.ID})
	require.NoError(t, err)

	// Подпись от чужого секрета.
	err = fx.service.ProcessPaymentCallback(&dto.PaymentCallbackRequest{
		OrderID:   resp.OrderID,
		PaymentID: "pay_123",
		Signature: signCallback(resp.OrderID, "pay_123", "wrong_secret"),
	})
	assert.ErrorIs(t, err, apperrors.ErrPaymentVerificationFailed)

	// Заказ остается pending, тариф не меняется.
	order, err := fx.payments.FindByOrderID(resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, order.Status)

	plan, err := fx.userPlans.FindByUserID("user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanTypeFree, plan.Type)
}

func TestPaymentCallbackUnknownOrder(t *testing.T) {
	fx := newSubscriptionFixture(t)

	err := fx.service.ProcessPaymentCallback(&dto.PaymentCallbackRequest{
		OrderID:   "order_unknown",
		PaymentID: "pay_123",
		Signature: signCallback("order_unknown", "pay_123", testKeySecret),
	})
	assert.ErrorIs(t, err, apperrors.ErrPaymentVerificationFailed)
}

func TestPaymentCallbackAfterPriceChange(t *testing.T) {
	fx := newSubscriptionFixture(t)

	resp, err := fx.service.InitPayment("user-1", &dto.InitPaymentRequest{PlanID: fx.monthlyPlan.ID})
	require.NoError(t, err)

	// Цена тарифа изменилась после создания заказа. Шлюз списал сумму
	// заказа, поэтому активация проходит несмотря на новую цену.
	fx.monthlyPlan.Price = 999
	require.NoError(t, fx.planRepo.Update(fx.monthlyPlan))

	err = fx.service.ProcessPaymentCallback(&dto.PaymentCallbackRequest{
		OrderID:   resp.OrderID,
		PaymentID: "pay_123",
		Signature: signCallback(resp.OrderID, "pay_123", testKeySecret),
	})
	require.NoError(t, err)

	order, err := fx.payments.FindByOrderID(resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, order.Status)
	assert.Equal(t, 499.0, order.Amount, "сумма заказа остается зафиксированной на момент создания")

	plan, err := fx.userPlans.FindByUserID("user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanTypePro, plan.Type)
	assert.Equal(t, models.PlanStatusActive, plan.Status)
}

func TestGetMyPlanFreeTier(t *testing.T) {
	fx := newSubscriptionFixture(t)

	require.NoError(t, fx.userPlans.ChargeCredit("user-1", "job-1", "app-1"))

	state, err := fx.service.GetMyPlan("user-1")
	require.NoError(t, err)
	assert.Equal(t, "free", state.Type)
	assert.Equal(t, 1, state.CreditsUsed)
	assert.Equal(t, 2, state.RemainingCredits)
	assert.False(t, state.Unlimited)
	assert.True(t, state.CanApply)
}

func TestGetMyPlanMissingRowActsAsFree(t *testing.T) {
	fx := newSubscriptionFixture(t)

	state, err := fx.service.GetMyPlan("user-without-plan")
	require.NoError(t, err)
	assert.Equal(t, "free", state.Type)
	assert.Equal(t, 3, state.RemainingCredits)
	assert.True(t, state.CanApply)
}

func TestCancelSubscription(t *testing.T) {
	fx := newSubscriptionFixture(t)

	start := time.Now()
	end := start.AddDate(0, 1, 0)
	require.NoError(t, fx.userPlans.ActivatePro("user-1", fx.monthlyPlan.ID, start, end))

	require.NoError(t, fx.service.CancelSubscription("user-1"))

	plan, err := fx.userPlans.FindByUserID("user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanStatusCancelled, plan.Status)
	assert.NotNil(t, plan.CancelledAt)

	// Повторная отмена невозможна.
	err = fx.service.CancelSubscription("user-1")
	assert.ErrorIs(t, err, apperrors.ErrNoActiveSubscription)
}

func TestProcessExpiredSubscriptions(t *testing.T) {
	fx := newSubscriptionFixture(t)

	expired := time.Now().Add(-time.Hour)
	start := expired.AddDate(0, -1, 0)
	require.NoError(t, fx.userPlans.ActivatePro("user-1", fx.monthlyPlan.ID, start, expired))

	// Накопленные до активации списания обнулены активацией,
	// но новые списания после экспирации должны учитываться заново.
	count, err := fx.service.ProcessExpiredSubscriptions()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	plan, err := fx.userPlans.FindByUserID("user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanStatusExpired, plan.Status)
	assert.Equal(t, models.PlanTypePro, plan.Type, "тип сохраняется, меняется только статус")
}

func TestGetPlansUsesCache(t *testing.T) {
	fx := newSubscriptionFixture(t)

	first, err := fx.service.GetPlans()
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Прямое добавление в репозиторий мимо сервиса: кэш еще держит
	// старый список.
	require.NoError(t, fx.planRepo.Create(&models.SubscriptionPlan{
		Name: "Pro Yearly", Price: 4990, Duration: "yearly", IsActive: true,
	}))

	cached, err := fx.service.GetPlans()
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	// Запись через сервис сбрасывает кэш.
	_, err = fx.service.CreatePlan(&dto.CreatePlanRequest{
		Name: "Pro Plus", Price: 990, Duration: "monthly", IsActive: true,
	})
	require.NoError(t, err)

	fresh, err := fx.service.GetPlans()
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
}

func TestGetPlatformStats(t *testing.T) {
	fx := newSubscriptionFixture(t)

	// user-1 на free из фикстуры, user-2 на активном pro.
	require.NoError(t, fx.userPlans.Create(&models.UserPlan{
		UserID: "user-2",
		Type:   models.PlanTypePro,
		Status: models.PlanStatusActive,
	}))

	stats, err := fx.service.GetPlatformStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.FreeUsers)
	assert.Equal(t, int64(1), stats.ProActive)
	assert.Equal(t, int64(0), stats.ProExpired)
}

func TestListExpiring(t *testing.T) {
	fx := newSubscriptionFixture(t)

	soon := time.Now().AddDate(0, 0, 2)
	start := soon.AddDate(0, -1, 0)
	require.NoError(t, fx.userPlans.ActivatePro("user-1", fx.monthlyPlan.ID, start, soon))

	expiring, err := fx.service.ListExpiring(7)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "user-1", expiring[0].UserID)

	// За пределами окна ничего не возвращается.
	expiring, err = fx.service.ListExpiring(1)
	require.NoError(t, err)
	assert.Empty(t, expiring)
}
