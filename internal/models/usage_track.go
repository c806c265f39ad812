package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Константы для типов событий
const (
	EventUserRegister     = "USER_REGISTER"
	EventUserLogin        = "USER_LOGIN"
	EventJobCreate        = "JOB_CREATE"
	EventJobView          = "JOB_VIEW"
	EventJobApply         = "JOB_APPLY"
	EventJobAssign        = "JOB_ASSIGN"
	EventCreditCharge     = "CREDIT_CHARGE"
	EventPaymentInitiated = "PAYMENT_INITIATED"
	EventPlanActivated    = "PLAN_ACTIVATED"
	EventPlanExpired      = "PLAN_EXPIRED"
)

// UsageTrack представляет запись об одном событии пользователя
type UsageTrack struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primary_key"`
	UserID    *uuid.UUID     `gorm:"type:uuid;index"` // Может быть nil для анонимных событий
	EventType string         `gorm:"type:varchar(100);index;not null"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP;index"`
}

// TableName указывает GORM имя таблицы
func (UsageTrack) TableName() string {
	return "usage_tracking"
}
