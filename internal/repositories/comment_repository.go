package repositories

import (
	"fixly_backend/internal/models"

	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(comment *models.JobComment) error
	ListByJob(jobID string) ([]models.JobComment, error)
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(comment *models.JobComment) error {
	return r.db.Create(comment).Error
}

func (r *commentRepository) ListByJob(jobID string) ([]models.JobComment, error) {
	var comments []models.JobComment
	err := r.db.Where("job_id = ?", jobID).Order("created_at ASC").Find(&comments).Error
	return comments, err
}
