package repositories

import (
	"errors"
	"time"

	"fixly_backend/internal/models"

	"gorm.io/gorm"
)

var ErrSubscriptionPlanNotFound = errors.New("subscription plan not found")

// PlanRepository - каталог платных тарифов (управляется админом).
type PlanRepository interface {
	Create(plan *models.SubscriptionPlan) error
	FindByID(id string) (*models.SubscriptionPlan, error)
	FindActive() ([]models.SubscriptionPlan, error)
	Update(plan *models.SubscriptionPlan) error
	Delete(id string) error
}

type planRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(plan *models.SubscriptionPlan) error {
	return r.db.Create(plan).Error
}

func (r *planRepository) FindByID(id string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.db.First(&plan, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) FindActive() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.Where("is_active = ?", true).Order("price ASC").Find(&plans).Error
	return plans, err
}

func (r *planRepository) Update(plan *models.SubscriptionPlan) error {
	result := r.db.Model(plan).Updates(map[string]interface{}{
		"name":       plan.Name,
		"price":      plan.Price,
		"currency":   plan.Currency,
		"duration":   plan.Duration,
		"features":   plan.Features,
		"is_active":  plan.IsActive,
		"updated_at": time.Now(),
	})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionPlanNotFound
	}
	return nil
}

func (r *planRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.SubscriptionPlan{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionPlanNotFound
	}
	return nil
}
