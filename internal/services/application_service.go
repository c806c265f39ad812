package services

import (
	"errors"
	"time"

	"fixly_backend/internal/dto"
	"fixly_backend/internal/logger"
	"fixly_backend/internal/models"
	"fixly_backend/internal/quota"
	"fixly_backend/internal/repositories"
	"fixly_backend/pkg/apperrors"
)

type ApplicationService interface {
	Apply(fixerID, jobID string, req *dto.ApplyRequest) (*models.JobApplication, error)
	QuickApply(fixerID, jobID string) (*models.JobApplication, error)
	Withdraw(fixerID, applicationID string) error
	ListByJob(hirerID, jobID string) ([]models.JobApplication, error)
	ListMine(fixerID string) ([]models.JobApplication, error)
}

type applicationService struct {
	applicationRepo  repositories.ApplicationRepository
	jobRepo          repositories.JobRepository
	userPlanRepo     repositories.UserPlanRepository
	notificationRepo repositories.NotificationRepository
	usageRepo        repositories.UsageRepository
}

func NewApplicationService(
	applicationRepo repositories.ApplicationRepository,
	jobRepo repositories.JobRepository,
	userPlanRepo repositories.UserPlanRepository,
	notificationRepo repositories.NotificationRepository,
	usageRepo repositories.UsageRepository,
) ApplicationService {
	return &applicationService{
		applicationRepo:  applicationRepo,
		jobRepo:          jobRepo,
		userPlanRepo:     userPlanRepo,
		notificationRepo: notificationRepo,
		usageRepo:        usageRepo,
	}
}

// Apply создает отклик на заказ. Гейт квоты проверяется по свежему
// состоянию тарифа из базы на каждый вызов, данные клиента роли не
// играют. Сам отклик кредит не списывает, списание происходит при
// назначении заказа.
func (s *applicationService) Apply(fixerID, jobID string, req *dto.ApplyRequest) (*models.JobApplication, error) {
	return s.apply(fixerID, jobID, req.Message, req.Quoted, false)
}

// QuickApply - отклик в одно касание, без сообщения и своей цены.
// Проходит тот же гейт, что и обычный отклик.
func (s *applicationService) QuickApply(fixerID, jobID string) (*models.JobApplication, error) {
	return s.apply(fixerID, jobID, nil, nil, true)
}

func (s *applicationService) apply(fixerID, jobID string, message *string, quoted *float64, quick bool) (*models.JobApplication, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	if job.Status != models.JobStatusOpen {
		return nil, apperrors.ErrJobNotOpen
	}
	if job.HirerID == fixerID {
		return nil, apperrors.ErrCannotApplyToOwnJob
	}

	if err := s.checkQuota(fixerID); err != nil {
		return nil, err
	}

	application := &models.JobApplication{
		JobID:   jobID,
		FixerID: fixerID,
		Message: message,
		Quoted:  quoted,
		Quick:   quick,
		Status:  models.ApplicationStatusPending,
	}
	if err := s.applicationRepo.Create(application); err != nil {
		if errors.Is(err, repositories.ErrApplicationAlreadyExists) {
			return nil, apperrors.ErrApplicationAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	go s.notificationRepo.CreateNewApplicationNotification(job.HirerID, jobID, job.Title)
	go s.usageRepo.Track(fixerID, models.EventJobApply, map[string]interface{}{
		"job_id": jobID,
		"quick":  quick,
	})

	return application, nil
}

// checkQuota - гейт откликов. Тариф читается из базы заново при
// каждой проверке.
func (s *applicationService) checkQuota(fixerID string) error {
	plan, err := s.userPlanRepo.FindByUserID(fixerID)
	if err != nil && !errors.Is(err, repositories.ErrPlanNotFound) {
		return apperrors.InternalError(err)
	}

	if !quota.CanPerformGatedAction(plan, time.Now()) {
		logger.Info("application blocked by quota", "fixer_id", fixerID)
		return apperrors.ErrQuotaExceeded
	}
	return nil
}

func (s *applicationService) Withdraw(fixerID, applicationID string) error {
	application, err := s.applicationRepo.FindByID(applicationID)
	if err != nil {
		if errors.Is(err, repositories.ErrApplicationNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	if application.FixerID != fixerID {
		return apperrors.ErrInsufficientPermissions
	}
	if application.Status != models.ApplicationStatusPending {
		return apperrors.ErrApplicationNotPending
	}

	if err := s.applicationRepo.UpdateStatus(applicationID, models.ApplicationStatusWithdrawn); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *applicationService) ListByJob(hirerID, jobID string) ([]models.JobApplication, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	if job.HirerID != hirerID {
		return nil, apperrors.ErrInsufficientPermissions
	}

	apps, err := s.applicationRepo.ListByJob(jobID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return apps, nil
}

func (s *applicationService) ListMine(fixerID string) ([]models.JobApplication, error) {
	apps, err := s.applicationRepo.ListByFixer(fixerID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return apps, nil
}
