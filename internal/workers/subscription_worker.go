package workers

import (
	"context"
	"time"

	"fixly_backend/internal/logger"
	"fixly_backend/internal/repositories"
	"fixly_backend/internal/services"
)

// SubscriptionWorker обслуживает жизненный цикл подписок: экспирация
// просроченных, напоминания об окончании, чистка refresh-токенов.
type SubscriptionWorker struct {
	subscriptionService services.SubscriptionService
	refreshRepo         repositories.RefreshTokenRepository
}

func NewSubscriptionWorker(
	subscriptionService services.SubscriptionService,
	refreshRepo repositories.RefreshTokenRepository,
) *SubscriptionWorker {
	return &SubscriptionWorker{
		subscriptionService: subscriptionService,
		refreshRepo:         refreshRepo,
	}
}

// Start запускает фоновые задачи подписок.
func (w *SubscriptionWorker) Start(ctx context.Context) {
	go w.expireSubscriptions(ctx)
	go w.notifyExpiring(ctx)
	go w.cleanupRefreshTokens(ctx)
}

// expireSubscriptions помечает истекшие pro-подписки. Счетчик
// использованных кредитов при этом не трогается: пользователь
// возвращается на бесплатную квоту с тем счетчиком, что накопил.
func (w *SubscriptionWorker) expireSubscriptions(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("subscription expiry worker stopped")
			return
		case <-ticker.C:
			count, err := w.subscriptionService.ProcessExpiredSubscriptions()
			if err != nil {
				logger.WorkerLog("subscription", "expire", err)
				continue
			}
			if count > 0 {
				logger.Info("expired pro subscriptions", "count", count)
			}
		}
	}
}

// notifyExpiring шлет письма за 3 дня до окончания подписки.
func (w *SubscriptionWorker) notifyExpiring(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("subscription reminder worker stopped")
			return
		case <-ticker.C:
			if err := w.subscriptionService.NotifyExpiringSubscriptions(3); err != nil {
				logger.WorkerLog("subscription", "notify_expiring", err)
			}
		}
	}
}

func (w *SubscriptionWorker) cleanupRefreshTokens(ctx context.Context) {
	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("refresh token cleanup worker stopped")
			return
		case <-ticker.C:
			count, err := w.refreshRepo.DeleteExpired()
			if err != nil {
				logger.WorkerLog("auth", "cleanup_refresh_tokens", err)
				continue
			}
			if count > 0 {
				logger.Info("cleaned up expired refresh tokens", "count", count)
			}
		}
	}
}
