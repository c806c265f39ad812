package services

import (
	"fixly_backend/internal/models"
	"fixly_backend/internal/repositories"
	"fixly_backend/pkg/apperrors"
)

type NotificationService interface {
	List(userID string, unreadOnly bool) ([]models.Notification, error)
	MarkRead(userID, notificationID string) error
	MarkAllRead(userID string) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
}

func NewNotificationService(notificationRepo repositories.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) List(userID string, unreadOnly bool) ([]models.Notification, error) {
	notifications, err := s.notificationRepo.ListByUser(userID, unreadOnly)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(userID, notificationID string) error {
	if err := s.notificationRepo.MarkRead(notificationID, userID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(userID string) error {
	if err := s.notificationRepo.MarkAllRead(userID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}
