package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	UserHandler         *UserHandler
	JobHandler          *JobHandler
	ApplicationHandler  *ApplicationHandler
	MessageHandler      *MessageHandler
	SubscriptionHandler *SubscriptionHandler
	NotificationHandler *NotificationHandler
}
