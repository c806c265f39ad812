package services

import (
	"errors"
	"time"

	"fixly_backend/internal/dto"
	"fixly_backend/internal/models"
	"fixly_backend/internal/quota"
	"fixly_backend/internal/repositories"
	"fixly_backend/pkg/apperrors"
)

type CommentService interface {
	Create(authorID, jobID string, req *dto.CommentRequest) (*models.JobComment, error)
	ListByJob(jobID string) ([]models.JobComment, error)
}

type commentService struct {
	commentRepo     repositories.CommentRepository
	applicationRepo repositories.ApplicationRepository
	jobRepo         repositories.JobRepository
	userRepo        repositories.UserRepository
	userPlanRepo    repositories.UserPlanRepository
}

func NewCommentService(
	commentRepo repositories.CommentRepository,
	applicationRepo repositories.ApplicationRepository,
	jobRepo repositories.JobRepository,
	userRepo repositories.UserRepository,
	userPlanRepo repositories.UserPlanRepository,
) CommentService {
	return &commentService{
		commentRepo:     commentRepo,
		applicationRepo: applicationRepo,
		jobRepo:         jobRepo,
		userRepo:        userRepo,
		userPlanRepo:    userPlanRepo,
	}
}

// Create публикует комментарий под заказом. Комментарий фиксера без
// отклика - это еще один канал выхода на нанимателя, поэтому он
// проходит тот же гейт квоты, что и отклик. Фиксер с откликом на этот
// заказ уже прошел гейт и комментирует свободно. Наниматель
// комментирует свой заказ без ограничений.
func (s *commentService) Create(authorID, jobID string, req *dto.CommentRequest) (*models.JobComment, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	if job.HirerID != authorID {
		author, err := s.userRepo.FindByID(authorID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if author.Role == models.UserRoleFixer {
			applied, err := s.applicationRepo.HasApplied(jobID, authorID)
			if err != nil {
				return nil, apperrors.InternalError(err)
			}
			if !applied {
				if err := s.checkFixerQuota(authorID); err != nil {
					return nil, err
				}
			}
		}
	}

	comment := &models.JobComment{
		JobID:    jobID,
		AuthorID: authorID,
		Body:     req.Body,
	}
	if err := s.commentRepo.Create(comment); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return comment, nil
}

func (s *commentService) checkFixerQuota(fixerID string) error {
	plan, err := s.userPlanRepo.FindByUserID(fixerID)
	if err != nil && !errors.Is(err, repositories.ErrPlanNotFound) {
		return apperrors.InternalError(err)
	}
	if !quota.CanPerformGatedAction(plan, time.Now()) {
		return apperrors.ErrQuotaExceeded
	}
	return nil
}

func (s *commentService) ListByJob(jobID string) ([]models.JobComment, error) {
	comments, err := s.commentRepo.ListByJob(jobID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return comments, nil
}
