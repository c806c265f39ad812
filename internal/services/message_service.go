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

type MessageService interface {
	Send(senderID, jobID, recipientID string, req *dto.MessageRequest) (*models.JobMessage, error)
	GetDialog(userID, jobID, peerID string) ([]models.JobMessage, error)
}

type messageService struct {
	messageRepo  repositories.MessageRepository
	jobRepo      repositories.JobRepository
	userRepo     repositories.UserRepository
	userPlanRepo repositories.UserPlanRepository
}

func NewMessageService(
	messageRepo repositories.MessageRepository,
	jobRepo repositories.JobRepository,
	userRepo repositories.UserRepository,
	userPlanRepo repositories.UserPlanRepository,
) MessageService {
	return &messageService{
		messageRepo:  messageRepo,
		jobRepo:      jobRepo,
		userRepo:     userRepo,
		userPlanRepo: userPlanRepo,
	}
}

// Send отправляет личное сообщение в рамках заказа. Сообщение фиксера
// нанимателю - гейтируемое действие: каждое проходит ту же проверку
// квоты, что и отклик. Сообщения нанимателя не гейтируются.
func (s *messageService) Send(senderID, jobID, recipientID string, req *dto.MessageRequest) (*models.JobMessage, error) {
	job, err := s.jobRepo.FindByID(jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrJobNotFound) {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}

	// Переписка возможна только между участниками заказа.
	if senderID != job.HirerID && recipientID != job.HirerID {
		return nil, apperrors.ErrInsufficientPermissions
	}

	if senderID != job.HirerID {
		sender, err := s.userRepo.FindByID(senderID)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if sender.Role == models.UserRoleFixer {
			if err := s.checkFixerQuota(senderID); err != nil {
				return nil, err
			}
		}
	}

	message := &models.JobMessage{
		JobID:       jobID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        req.Body,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return message, nil
}

func (s *messageService) checkFixerQuota(fixerID string) error {
	plan, err := s.userPlanRepo.FindByUserID(fixerID)
	if err != nil && !errors.Is(err, repositories.ErrPlanNotFound) {
		return apperrors.InternalError(err)
	}
	if !quota.CanPerformGatedAction(plan, time.Now()) {
		return apperrors.ErrQuotaExceeded
	}
	return nil
}

func (s *messageService) GetDialog(userID, jobID, peerID string) ([]models.JobMessage, error) {
	messages, err := s.messageRepo.ListDialog(jobID, userID, peerID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	// Открытие диалога помечает входящие прочитанными.
	go s.messageRepo.MarkRead(jobID, userID)

	return messages, nil
}
