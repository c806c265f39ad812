package repositories

import (
	"errors"
	"time"

	"fixly_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrPlanNotFound         = errors.New("user plan not found")
	ErrCreditAlreadyCharged = errors.New("credit already charged for this job")
	ErrOrderAlreadyConsumed = errors.New("payment order already consumed")
)

// UserPlanRepository - единственная точка записи в состояние квоты.
// Все мутации атомарны на уровне строки: два одновременных события
// назначения или гонка активации и списания не теряют обновлений.
type UserPlanRepository interface {
	Create(plan *models.UserPlan) error
	FindByUserID(userID string) (*models.UserPlan, error)

	// ChargeCredit списывает один кредит за назначение заказа.
	// Идемпотентно по (userID, jobID): повторное событие возвращает
	// ErrCreditAlreadyCharged и счетчик не трогает.
	ChargeCredit(userID, jobID, applicationID string) error

	// ActivatePro переводит пользователя на pro и обнуляет счетчик.
	// Единственное место, где credits_used уменьшается.
	ActivatePro(userID, planID string, start, end time.Time) error

	ExpirePro(userID string) error
	CancelPro(userID string) error

	FindExpiring(days int) ([]models.UserPlan, error)
	FindExpired() ([]models.UserPlan, error)
	ProcessExpired() (int64, error)
	PlatformStats() (*PlanCounts, error)
}

// PlanCounts - агрегаты по тарифам для админской статистики.
type PlanCounts struct {
	FreeUsers    int64
	ProActive    int64
	ProExpired   int64
	ProCancelled int64
}

type userPlanRepository struct {
	db *gorm.DB
}

func NewUserPlanRepository(db *gorm.DB) UserPlanRepository {
	return &userPlanRepository{db: db}
}

func (r *userPlanRepository) Create(plan *models.UserPlan) error {
	return r.db.Create(plan).Error
}

func (r *userPlanRepository) FindByUserID(userID string) (*models.UserPlan, error) {
	var plan models.UserPlan
	err := r.db.Preload("Plan").Where("user_id = ?", userID).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *userPlanRepository) ChargeCredit(userID, jobID, applicationID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Журнал списаний - защита от дублированного события назначения.
		// Уникальный индекс (user_id, job_id) страхует от гонки двух
		// одновременных вставок.
		var existing models.CreditCharge
		err := tx.Where("user_id = ? AND job_id = ?", userID, jobID).First(&existing).Error
		if err == nil {
			return ErrCreditAlreadyCharged
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		charge := &models.CreditCharge{
			UserID:        userID,
			JobID:         jobID,
			ApplicationID: applicationID,
		}
		if err := tx.Create(charge).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrCreditAlreadyCharged
			}
			return err
		}

		// Атомарный инкремент на уровне строки
		result := tx.Model(&models.UserPlan{}).
			Where("user_id = ?", userID).
			UpdateColumn("credits_used", gorm.Expr("credits_used + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPlanNotFound
		}
		return nil
	})
}

func (r *userPlanRepository) ActivatePro(userID, planID string, start, end time.Time) error {
	result := r.db.Model(&models.UserPlan{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"type":         models.PlanTypePro,
		"status":       models.PlanStatusActive,
		"plan_id":      planID,
		"credits_used": 0,
		"start_date":   start,
		"end_date":     end,
		"cancelled_at": nil,
		"updated_at":   time.Now(),
	})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *userPlanRepository) ExpirePro(userID string) error {
	// credits_used намеренно не трогаем: после истечения pro
	// пользователь возвращается на бесплатную квоту с тем же счетчиком
	result := r.db.Model(&models.UserPlan{}).
		Where("user_id = ? AND type = ?", userID, models.PlanTypePro).
		Updates(map[string]interface{}{
			"status":     models.PlanStatusExpired,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *userPlanRepository) CancelPro(userID string) error {
	now := time.Now()
	result := r.db.Model(&models.UserPlan{}).
		Where("user_id = ? AND type = ? AND status = ?",
			userID, models.PlanTypePro, models.PlanStatusActive).
		Updates(map[string]interface{}{
			"status":       models.PlanStatusCancelled,
			"cancelled_at": now,
			"updated_at":   now,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *userPlanRepository) FindExpiring(days int) ([]models.UserPlan, error) {
	var plans []models.UserPlan
	deadline := time.Now().AddDate(0, 0, days)

	err := r.db.Preload("Plan").
		Where("type = ? AND status = ? AND end_date <= ? AND end_date > ?",
			models.PlanTypePro, models.PlanStatusActive, deadline, time.Now()).
		Order("end_date ASC").
		Find(&plans).Error
	return plans, err
}

func (r *userPlanRepository) FindExpired() ([]models.UserPlan, error) {
	var plans []models.UserPlan
	err := r.db.Preload("Plan").
		Where("type = ? AND status = ? AND end_date < ?",
			models.PlanTypePro, models.PlanStatusActive, time.Now()).
		Order("end_date ASC").
		Find(&plans).Error
	return plans, err
}

func (r *userPlanRepository) ProcessExpired() (int64, error) {
	result := r.db.Model(&models.UserPlan{}).
		Where("type = ? AND status = ? AND end_date < ?",
			models.PlanTypePro, models.PlanStatusActive, time.Now()).
		Updates(map[string]interface{}{
			"status":     models.PlanStatusExpired,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *userPlanRepository) PlatformStats() (*PlanCounts, error) {
	var stats PlanCounts

	type row struct {
		Type   models.PlanType
		Status models.PlanStatus
		Count  int64
	}
	var rows []row
	err := r.db.Model(&models.UserPlan{}).
		Select("type, status, count(*) as count").
		Group("type, status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, rec := range rows {
		switch {
		case rec.Type == models.PlanTypeFree:
			stats.FreeUsers += rec.Count
		case rec.Status == models.PlanStatusActive:
			stats.ProActive += rec.Count
		case rec.Status == models.PlanStatusExpired:
			stats.ProExpired += rec.Count
		case rec.Status == models.PlanStatusCancelled:
			stats.ProCancelled += rec.Count
		}
	}
	return &stats, nil
}
