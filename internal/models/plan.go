package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubscriptionPlan - тариф из каталога (создается админом).
// Бесплатный тариф в каталоге отсутствует: он представлен
// записью UserPlan с Type=free.
type SubscriptionPlan struct {
	BaseModel
	Name     string         `gorm:"not null;uniqueIndex"`
	Price    float64        `gorm:"not null"`
	Currency string         `gorm:"default:'INR'"`
	Duration string         `gorm:"not null"`   // "monthly", "yearly"
	Features datatypes.JSON `gorm:"type:jsonb"` // {"priority_support": true, ...}
	IsActive bool           `gorm:"default:true"`
}

// UserPlan - единственный авторитетный источник состояния квоты.
// Одна строка на пользователя, создается при регистрации с Type=free.
// CreditsUsed только растет; единственный сброс в 0 - активация pro.
type UserPlan struct {
	BaseModel
	UserID      string     `gorm:"not null;uniqueIndex"`
	Type        PlanType   `gorm:"type:varchar(10);not null;default:'free'"`
	Status      PlanStatus `gorm:"type:varchar(20);default:'inactive'"`
	PlanID      *string    `gorm:"index"` // каталожный тариф, только для pro
	CreditsUsed int        `gorm:"not null;default:0"`
	StartDate   *time.Time
	EndDate     *time.Time
	CancelledAt *time.Time

	// Relations
	Plan *SubscriptionPlan `gorm:"foreignKey:PlanID"`
}

// CreditCharge - журнал списаний кредитов. Кредит списывается в момент
// назначения заказа, а не при отклике. Уникальность (user_id, job_id)
// гарантирует, что повторное событие назначения не спишет кредит дважды.
type CreditCharge struct {
	BaseModel
	UserID        string `gorm:"not null;uniqueIndex:idx_credit_user_job"`
	JobID         string `gorm:"not null;uniqueIndex:idx_credit_user_job"`
	ApplicationID string `gorm:"not null;index"`
}
