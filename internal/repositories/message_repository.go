package repositories

import (
	"time"

	"fixly_backend/internal/models"

	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(msg *models.JobMessage) error
	ListDialog(jobID, userA, userB string) ([]models.JobMessage, error)
	MarkRead(jobID, recipientID string) error
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(msg *models.JobMessage) error {
	return r.db.Create(msg).Error
}

func (r *messageRepository) ListDialog(jobID, userA, userB string) ([]models.JobMessage, error) {
	var msgs []models.JobMessage
	err := r.db.Where(
		"job_id = ? AND ((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?))",
		jobID, userA, userB, userB, userA).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *messageRepository) MarkRead(jobID, recipientID string) error {
	return r.db.Model(&models.JobMessage{}).
		Where("job_id = ? AND recipient_id = ? AND is_read = ?", jobID, recipientID, false).
		Updates(map[string]interface{}{
			"is_read":    true,
			"updated_at": time.Now(),
		}).Error
}
