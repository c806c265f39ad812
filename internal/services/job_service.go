package services

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"

	"fixly_backend/internal/dto"
	"fixly_backend/internal/logger"
	"fixly_backend/internal/models"
	"fixly_backend/internal/quota"
	"fixly_backend/internal/repositories"
	"fixly_backend/pkg/apperrors"
)

type JobService interface {
	Create(hirerID string, req *dto.CreateJobRequest) (*models.Job, error)
	Get(jobID string) (*models.Job, error)
	List(query *dto.JobListQuery) ([]models.Job, int64, error)
	Assign(hirerID, jobID string, req *dto.AssignRequest) error
	Close(hirerID, jobID string) error
	Cancel(hirerID, jobID string) error
}

type jobService struct {
	jobRepo          repositories.JobRepository
	applicationRepo  repositories.ApplicationRepository
	userPlanRepo     repositories.UserPlanRepository
	notificationRepo repositories.NotificationRepository
	usageRepo        repositories.UsageRepository
}

func NewJobService(
	jobRepo repositories.JobRepository,
	applicationRepo repositories.ApplicationRepository,
	userPlanRepo repositories.UserPlanRepository,
	notificationRepo repositories.NotificationRepository,
	usageRepo repositories.UsageRepository,
) JobService {
	return &jobService{
		jobRepo:          jobRepo,
		applicationRepo:  applicationRepo,
		userPlanRepo:     userPlanRepo,
		notificationRepo: notificationRepo,
		usageRepo:        usageRepo,
	}
}

func (s *jobService) Create(hirerID string, req *dto.CreateJobRequest) (*models.Job, error) {
	job := &models.Job{
		HirerID:       hirerID,
		Title:         req.Title,
		Description:   req.Description,
		City:          req.City,
		Address:       req.Address,
		Category:      req.Category,
		BudgetMin:     req.BudgetMin,
		BudgetMax:     req.BudgetMax,
		PreferredDate: req.PreferredDate,
		Status:        models.JobStatusOpen,
	}
	if len(req.Skills) > 0 {
		skillsJSON, err := json.Marshal(req.Skills)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		job.Skills = datatypes.JSON(skillsJSON)
	}

	if err := s.jobRepo.Create(job); err != nil {
		return nil, apperrors.InternalError(err)
	}

	go s.usageRepo.Track(hirerID, models.EventJobCreate, map[string]interface{}{
		"job_id":   job.ID,
		"category": job.Category,
	})

	return job, nil
}

func (s *jobService) Get(jobID string) (*models.Job, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	go s.jobRepo.IncrementViews(jobID)

	return job, nil
}

func (s *jobService) List(query *dto.JobListQuery) ([]models.Job, int64, error) {
	filter := repositories.JobFilter{
		City:     query.City,
		Category: query.Category,
		Status:   models.JobStatus(query.Status),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	jobs, total, err := s.jobRepo.List(filter)
	if err != nil {
		return nil, 0, apperrors.InternalError(err)
	}
	return jobs, total, nil
}

// Assign назначает исполнителя на заказ и списывает кредит квоты.
// Списание происходит именно здесь, а не при отклике: исполнитель
// платит кредитом за полученную работу, а не за попытку. Повторное
// назначение того же заказа не списывает второй кредит, это
// гарантирует леджер списаний с уникальностью (user_id, job_id).
func (s *jobService) Assign(hirerID, jobID string, req *dto.AssignRequest) error {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	if job.HirerID != hirerID {
		return apperrors.ErrInsufficientPermissions
	}

	application, err := s.applicationRepo.FindByID(req.ApplicationID)
	if err != nil {
		if errors.Is(err, repositories.ErrApplicationNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	if application.JobID != jobID {
		return apperrors.ErrInvalidOperation("job", "application does not belong to this job")
	}
	if application.Status != models.ApplicationStatusPending {
		return apperrors.ErrApplicationNotPending
	}

	if err := s.jobRepo.Assign(jobID, application.FixerID); err != nil {
		if errors.Is(err, repositories.ErrJobNotOpen) {
			return apperrors.ErrJobNotOpen
		}
		if errors.Is(err, repositories.ErrJobNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	if err := s.applicationRepo.UpdateStatus(application.ID, models.ApplicationStatusAccepted); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.applicationRepo.RejectOthers(jobID, application.ID); err != nil {
		logger.WithError(err).Warn("failed to reject other applications", "job_id", jobID)
	}

	s.chargeAssignmentCredit(application.FixerID, jobID, application.ID)

	go s.notificationRepo.CreateJobAssignedNotification(application.FixerID, jobID, job.Title)
	go s.usageRepo.Track(hirerID, models.EventJobAssign, map[string]interface{}{
		"job_id":   jobID,
		"fixer_id": application.FixerID,
	})

	logger.Info("job assigned", "job_id", jobID, "fixer_id", application.FixerID)
	return nil
}

// chargeAssignmentCredit списывает один кредит у исполнителя на
// бесплатном тарифе. Безлимитные тарифы не трогаем. Повторное
// списание по той же паре (исполнитель, заказ) молча игнорируется.
func (s *jobService) chargeAssignmentCredit(fixerID, jobID, applicationID string) {
	plan, err := s.userPlanRepo.FindByUserID(fixerID)
	if err != nil && !errors.Is(err, repositories.ErrPlanNotFound) {
		logger.WithError(err).Error("failed to load fixer plan for credit charge",
			"fixer_id", fixerID, "job_id", jobID)
		return
	}

	if quota.IsUnlimited(plan, time.Now()) {
		return
	}

	err = s.userPlanRepo.ChargeCredit(fixerID, jobID, applicationID)
	if err != nil {
		if errors.Is(err, repositories.ErrCreditAlreadyCharged) {
			return
		}
		logger.WithError(err).Error("failed to charge assignment credit",
			"fixer_id", fixerID, "job_id", jobID)
		return
	}

	go s.usageRepo.Track(fixerID, models.EventCreditCharge, map[string]interface{}{
		"job_id": jobID,
	})
}

func (s *jobService) Close(hirerID, jobID string) error {
	return s.changeStatus(hirerID, jobID, models.JobStatusClosed)
}

func (s *jobService) Cancel(hirerID, jobID string) error {
	return s.changeStatus(hirerID, jobID, models.JobStatusCancelled)
}

func (s *jobService) changeStatus(hirerID, jobID string, status models.JobStatus) error {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			return apperrors.ErrNotFound(err)
		}
		return apperrors.InternalError(err)
	}

	if job.HirerID != hirerID {
		return apperrors.ErrInsufficientPermissions
	}

	if err := s.jobRepo.UpdateStatus(jobID, status); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}
