package models

type NotificationType string

const (
	NotificationJobAssigned    NotificationType = "job_assigned"
	NotificationNewApplication NotificationType = "new_application"
	NotificationPlanActivated  NotificationType = "plan_activated"
	NotificationPlanExpired    NotificationType = "plan_expired"
)

type Notification struct {
	BaseModel
	UserID  string           `gorm:"not null;index"`
	Type    NotificationType `gorm:"type:varchar(50);not null"`
	Title   string           `gorm:"not null"`
	Message string
	JobID   *string
	IsRead  bool `gorm:"default:false;index"`
}
