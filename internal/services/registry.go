package services

import (
	"fixly_backend/internal/email"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	AuthService         AuthService
	UserService         UserService
	JobService          JobService
	ApplicationService  ApplicationService
	CommentService      CommentService
	MessageService      MessageService
	NotificationService NotificationService
	SubscriptionService SubscriptionService
	EmailService        email.Provider
}
