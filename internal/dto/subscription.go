package dto

import "time"

type CreatePlanRequest struct {
	Name     string                 `json:"name" binding:"required" validate:"required"`
	Price    float64                `json:"price" binding:"required" validate:"required,gt=0"`
	Currency string                 `json:"currency"`
	Duration string                 `json:"duration" binding:"required" validate:"required,oneof=monthly yearly"`
	Features map[string]interface{} `json:"features"`
	IsActive bool                   `json:"is_active"`
}

type UpdatePlanRequest struct {
	Name     *string                `json:"name"`
	Price    *float64               `json:"price" validate:"omitempty,gt=0"`
	Currency *string                `json:"currency"`
	Duration *string                `json:"duration" validate:"omitempty,oneof=monthly yearly"`
	Features map[string]interface{} `json:"features"`
	IsActive *bool                  `json:"is_active"`
}

// PlanStateResponse - снимок состояния квоты для фронта.
// RemainingCredits = -1 означает безлимит.
type PlanStateResponse struct {
	Type             string     `json:"type"`
	Status           string     `json:"status,omitempty"`
	PlanName         string     `json:"plan_name,omitempty"`
	CreditsUsed      int        `json:"credits_used"`
	RemainingCredits int        `json:"remaining_credits"`
	Unlimited        bool       `json:"unlimited"`
	CanApply         bool       `json:"can_apply"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
}

type InitPaymentRequest struct {
	PlanID string `json:"plan_id" binding:"required" validate:"required"`
}

type InitPaymentResponse struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	KeyID    string  `json:"key_id"`
}

// PaymentCallbackRequest - тело callback'а от шлюза после чекаута.
type PaymentCallbackRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required" validate:"required"`
	Signature string `json:"razorpay_signature" binding:"required" validate:"required"`
}

// SubscriptionStatsResponse - сводка по тарифам для админки.
type SubscriptionStatsResponse struct {
	FreeUsers    int64 `json:"free_users"`
	ProActive    int64 `json:"pro_active"`
	ProExpired   int64 `json:"pro_expired"`
	ProCancelled int64 `json:"pro_cancelled"`
}

type ExpiringSubscriptionResponse struct {
	UserID   string     `json:"user_id"`
	PlanName string     `json:"plan_name"`
	EndDate  *time.Time `json:"end_date"`
}
