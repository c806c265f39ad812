package app

import (
	"context"
	"errors"
	"fmt"

	"fixly_backend/internal/config"
	"fixly_backend/internal/email"
	"fixly_backend/internal/handlers"
	"fixly_backend/internal/logger"
	"fixly_backend/internal/middleware"
	"fixly_backend/internal/models"
	"fixly_backend/internal/payments"
	"fixly_backend/internal/repositories"
	"fixly_backend/internal/routes"
	"fixly_backend/internal/services"
	"fixly_backend/internal/validator"
	"fixly_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	// .env опционален: в контейнере конфиг приходит из окружения.
	_ = godotenv.Load()

	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := autoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	serviceContainer := initializeServices(cfg, gormDB)
	ginRouter := SetupRouter(serviceContainer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	subscriptionWorker := workers.NewSubscriptionWorker(
		serviceContainer.SubscriptionService,
		repositories.NewRefreshTokenRepository(gormDB),
	)
	subscriptionWorker.Start(ctx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("🚀 Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func SetupRouter(serviceContainer *services.ServiceContainer) *gin.Engine {
	appHandlers := initializeHandlers(serviceContainer)
	ginRouter := initializeGinRouter()
	routes.RegisterRoutes(ginRouter, appHandlers)
	return ginRouter
}

func initializeServices(cfg *config.Config, gormDB *gorm.DB) *services.ServiceContainer {
	emailService := buildEmailProvider(cfg)

	// --- Инициализация репозиториев ---
	userRepo := repositories.NewUserRepository(gormDB)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(gormDB)
	planRepo := repositories.NewPlanRepository(gormDB)
	userPlanRepo := repositories.NewUserPlanRepository(gormDB)
	paymentRepo := repositories.NewPaymentRepository(gormDB)
	jobRepo := repositories.NewJobRepository(gormDB)
	applicationRepo := repositories.NewApplicationRepository(gormDB)
	commentRepo := repositories.NewCommentRepository(gormDB)
	messageRepo := repositories.NewMessageRepository(gormDB)
	notificationRepo := repositories.NewNotificationRepository(gormDB)
	usageRepo := repositories.NewUsageRepository(gormDB)

	paymentGateway := payments.NewRazorpayService(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)

	// --- Инициализация сервисов ---
	authService := services.NewAuthService(userRepo, userPlanRepo, refreshTokenRepo, usageRepo)
	userService := services.NewUserService(userRepo)
	jobService := services.NewJobService(jobRepo, applicationRepo, userPlanRepo, notificationRepo, usageRepo)
	applicationService := services.NewApplicationService(applicationRepo, jobRepo, userPlanRepo, notificationRepo, usageRepo)
	commentService := services.NewCommentService(commentRepo, applicationRepo, jobRepo, userRepo, userPlanRepo)
	messageService := services.NewMessageService(messageRepo, jobRepo, userRepo, userPlanRepo)
	notificationService := services.NewNotificationService(notificationRepo)
	subscriptionService := services.NewSubscriptionService(
		planRepo,
		userPlanRepo,
		paymentRepo,
		userRepo,
		notificationRepo,
		usageRepo,
		paymentGateway,
		emailService,
	)

	return &services.ServiceContainer{
		AuthService:         authService,
		UserService:         userService,
		JobService:          jobService,
		ApplicationService:  applicationService,
		CommentService:      commentService,
		MessageService:      messageService,
		NotificationService: notificationService,
		SubscriptionService: subscriptionService,
		EmailService:        emailService,
	}
}

// buildEmailProvider собирает SMTP-провайдер из конфига. Без настроенных
// кредов (локальная разработка) подставляется mock, чтобы сервер не падал
// на отправке писем.
func buildEmailProvider(cfg *config.Config) email.Provider {
	if cfg.Email.SMTPUsername == "" || cfg.Email.SMTPPassword == "" {
		logger.Warn("SMTP credentials are not set. Using MOCK email provider.")
		return &MockEmailProvider{}
	}

	smtpConfig := email.DefaultConfig()
	smtpConfig.Host = cfg.Email.SMTPHost
	smtpConfig.Port = cfg.Email.SMTPPort
	smtpConfig.Username = cfg.Email.SMTPUsername
	smtpConfig.Password = cfg.Email.SMTPPassword
	smtpConfig.FromEmail = cfg.Email.FromEmail
	smtpConfig.FromName = cfg.Email.FromName

	provider := email.NewSMTPProvider(smtpConfig, email.NewTemplateManager())
	if err := provider.Validate(); err != nil {
		logger.Fatal("Invalid SMTP configuration", "error", err)
	}
	return provider
}

func initializeHandlers(serviceContainer *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, serviceContainer.AuthService),
		UserHandler:         handlers.NewUserHandler(baseHandler, serviceContainer.UserService),
		JobHandler:          handlers.NewJobHandler(baseHandler, serviceContainer.JobService),
		ApplicationHandler:  handlers.NewApplicationHandler(baseHandler, serviceContainer.ApplicationService),
		MessageHandler:      handlers.NewMessageHandler(baseHandler, serviceContainer.MessageService, serviceContainer.CommentService),
		SubscriptionHandler: handlers.NewSubscriptionHandler(baseHandler, serviceContainer.SubscriptionService),
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, serviceContainer.NotificationService),
	}
}

func initializeGinRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())
	return router
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.SubscriptionPlan{},
		&models.UserPlan{},
		&models.CreditCharge{},
		&models.PaymentOrder{},
		&models.Job{},
		&models.JobApplication{},
		&models.JobComment{},
		&models.JobMessage{},
		&models.Notification{},
		&models.UsageTrack{},
	)
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	var adminUser models.User
	result := db.Where("email = ?", adminEmail).First(&adminUser)
	if result.Error == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	logger.Warn("No admin user found with specified email. Creating first admin...", "email", adminEmail)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		Email:        adminEmail,
		PasswordHash: string(hashedPassword),
		Name:         "Fixly Administration",
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
		IsVerified:   true,
	}
	if err := db.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user in database: %w", err)
	}

	logger.Info("✅ Successfully created first admin user", "email", adminEmail)
	return nil
}
