package repositories

import (
	"fmt"
	"time"

	"fixly_backend/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(n *models.Notification) error
	ListByUser(userID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(id, userID string) error
	MarkAllRead(userID string) error

	// Хелперы для типовых уведомлений
	CreateJobAssignedNotification(fixerID, jobID, jobTitle string) error
	CreateNewApplicationNotification(hirerID, jobID, jobTitle string) error
	CreatePlanActivatedNotification(userID, planName string) error
	CreatePlanExpiredNotification(userID string) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

func (r *notificationRepository) ListByUser(userID string, unreadOnly bool) ([]models.Notification, error) {
	query := r.db.Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	err := query.Order("created_at DESC").Limit(100).Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) MarkRead(id, userID string) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"is_read":    true,
			"updated_at": time.Now(),
		}).Error
}

func (r *notificationRepository) MarkAllRead(userID string) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{
			"is_read":    true,
			"updated_at": time.Now(),
		}).Error
}

func (r *notificationRepository) CreateJobAssignedNotification(fixerID, jobID, jobTitle string) error {
	return r.Create(&models.Notification{
		UserID:  fixerID,
		Type:    models.NotificationJobAssigned,
		Title:   "Вам назначен заказ",
		Message: fmt.Sprintf("Наниматель выбрал вас исполнителем заказа \"%s\"", jobTitle),
		JobID:   &jobID,
	})
}

func (r *notificationRepository) CreateNewApplicationNotification(hirerID, jobID, jobTitle string) error {
	return r.Create(&models.Notification{
		UserID:  hirerID,
		Type:    models.NotificationNewApplication,
		Title:   "Новый отклик",
		Message: fmt.Sprintf("На заказ \"%s\" поступил новый отклик", jobTitle),
		JobID:   &jobID,
	})
}

func (r *notificationRepository) CreatePlanActivatedNotification(userID, planName string) error {
	return r.Create(&models.Notification{
		UserID:  userID,
		Type:    models.NotificationPlanActivated,
		Title:   "Pro-тариф активирован",
		Message: fmt.Sprintf("Тариф \"%s\" активирован. Отклики без ограничений.", planName),
	})
}

func (r *notificationRepository) CreatePlanExpiredNotification(userID string) error {
	return r.Create(&models.Notification{
		UserID:  userID,
		Type:    models.NotificationPlanExpired,
		Title:   "Pro-тариф истек",
		Message: "Срок действия Pro-тарифа закончился. Продлите подписку, чтобы откликаться без ограничений.",
	})
}
