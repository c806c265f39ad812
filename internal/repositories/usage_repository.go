package repositories

import (
	"encoding/json"

	"fixly_backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UsageRepository пишет события в usage_tracking. Запись best-effort:
// ошибки логируются вызывающим, но не роняют бизнес-операцию.
type UsageRepository interface {
	Track(userID string, eventType string, metadata map[string]interface{}) error
	CountByEvent(eventType string) (int64, error)
}

type usageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) Track(userID string, eventType string, metadata map[string]interface{}) error {
	track := &models.UsageTrack{
		EventType: eventType,
	}

	if userID != "" {
		if uid, err := uuid.Parse(userID); err == nil {
			track.UserID = &uid
		}
	}

	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		track.Metadata = datatypes.JSON(raw)
	}

	return r.db.Create(track).Error
}

func (r *usageRepository) CountByEvent(eventType string) (int64, error) {
	var count int64
	err := r.db.Model(&models.UsageTrack{}).
		Where("event_type = ?", eventType).
		Count(&count).Error
	return count, err
}
