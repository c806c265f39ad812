package repositories

import (
	"errors"
	"time"

	"fixly_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrApplicationNotFound      = errors.New("application not found")
	ErrApplicationAlreadyExists = errors.New("application already exists")
)

type ApplicationRepository interface {
	Create(app *models.JobApplication) error
	FindByID(id string) (*models.JobApplication, error)
	ListByJob(jobID string) ([]models.JobApplication, error)
	ListByFixer(fixerID string) ([]models.JobApplication, error)
	HasApplied(jobID, fixerID string) (bool, error)
	UpdateStatus(id string, status models.ApplicationStatus) error

	// RejectOthers помечает rejected все pending-отклики заказа,
	// кроме принятого.
	RejectOthers(jobID, acceptedID string) error
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(app *models.JobApplication) error {
	// Уникальный индекс (job_id, fixer_id) - последний рубеж против
	// двойного отклика; проверка до вставки дает понятную ошибку
	var existing models.JobApplication
	err := r.db.Where("job_id = ? AND fixer_id = ?", app.JobID, app.FixerID).First(&existing).Error
	if err == nil {
		return ErrApplicationAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := r.db.Create(app).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrApplicationAlreadyExists
		}
		return err
	}
	return nil
}

func (r *applicationRepository) FindByID(id string) (*models.JobApplication, error) {
	var app models.JobApplication
	err := r.db.First(&app, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) ListByJob(jobID string) ([]models.JobApplication, error) {
	var apps []models.JobApplication
	err := r.db.Where("job_id = ?", jobID).Order("created_at ASC").Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) ListByFixer(fixerID string) ([]models.JobApplication, error) {
	var apps []models.JobApplication
	err := r.db.Where("fixer_id = ?", fixerID).Order("created_at DESC").Find(&apps).Error
	return apps, err
}

func (r *applicationRepository) HasApplied(jobID, fixerID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.JobApplication{}).
		Where("job_id = ? AND fixer_id = ? AND status <> ?",
			jobID, fixerID, models.ApplicationStatusWithdrawn).
		Count(&count).Error
	return count > 0, err
}

func (r *applicationRepository) UpdateStatus(id string, status models.ApplicationStatus) error {
	result := r.db.Model(&models.JobApplication{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

func (r *applicationRepository) RejectOthers(jobID, acceptedID string) error {
	return r.db.Model(&models.JobApplication{}).
		Where("job_id = ? AND id <> ? AND status = ?",
			jobID, acceptedID, models.ApplicationStatusPending).
		Updates(map[string]interface{}{
			"status":     models.ApplicationStatusRejected,
			"updated_at": time.Now(),
		}).Error
}
