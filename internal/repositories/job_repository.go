package repositories

import (
	"errors"
	"time"

	"fixly_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobNotOpen  = errors.New("job is not open")
)

type JobFilter struct {
	City     string
	Category string
	Status   models.JobStatus
	HirerID  string
	Page     int
	PageSize int
}

type JobRepository interface {
	Create(job *models.Job) error
	FindByID(id string) (*models.Job, error)
	List(filter JobFilter) ([]models.Job, int64, error)
	IncrementViews(id string) error
	Update(job *models.Job) error

	// Assign атомарно переводит открытый заказ в assigned.
	// Условный UPDATE по статусу исключает двойное назначение.
	Assign(jobID, fixerID string) error

	UpdateStatus(jobID string, status models.JobStatus) error
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(job *models.Job) error {
	return r.db.Create(job).Error
}

func (r *jobRepository) FindByID(id string) (*models.Job, error) {
	var job models.Job
	err := r.db.First(&job, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) List(filter JobFilter) ([]models.Job, int64, error) {
	query := r.db.Model(&models.Job{})

	if filter.City != "" {
		query = query.Where("city = ?", filter.City)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.HirerID != "" {
		query = query.Where("hirer_id = ?", filter.HirerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	var jobs []models.Job
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&jobs).Error
	return jobs, total, err
}

func (r *jobRepository) IncrementViews(id string) error {
	return r.db.Model(&models.Job{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

func (r *jobRepository) Update(job *models.Job) error {
	return r.db.Save(job).Error
}

func (r *jobRepository) Assign(jobID, fixerID string) error {
	result := r.db.Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, models.JobStatusOpen).
		Updates(map[string]interface{}{
			"status":            models.JobStatusAssigned,
			"assigned_fixer_id": fixerID,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Либо заказа нет, либо он уже не открыт
		var job models.Job
		err := r.db.First(&job, "id = ?", jobID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrJobNotFound
		}
		if err != nil {
			return err
		}
		return ErrJobNotOpen
	}
	return nil
}

func (r *jobRepository) UpdateStatus(jobID string, status models.JobStatus) error {
	result := r.db.Model(&models.Job{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}
