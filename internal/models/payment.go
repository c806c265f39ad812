package models

import "time"

// PaymentOrder - заказ на оплату тарифа. OrderID выдает платежный шлюз
// и служит ключом идемпотентности: переход pending -> paid возможен
// ровно один раз, повторный callback с тем же OrderID отклоняется.
type PaymentOrder struct {
	BaseModel
	UserID    string        `gorm:"not null;index"`
	PlanID    string        `gorm:"not null;index"`
	OrderID   string        `gorm:"not null;uniqueIndex"`
	PaymentID string        // ID платежа от шлюза, заполняется при оплате
	Amount    float64       `gorm:"not null"`
	Currency  string        `gorm:"default:'INR'"`
	Status    PaymentStatus `gorm:"type:varchar(20);default:'pending'"`
	PaidAt    *time.Time

	// Relations
	Plan SubscriptionPlan `gorm:"foreignKey:PlanID"`
}
