// Package quota содержит чистую логику квот. Никаких побочных эффектов:
// решения принимаются по свежему снимку UserPlan, который вызывающая
// сторона обязана запросить у хранилища на каждый запрос (клиентскому
// состоянию не доверяем).
package quota

import (
	"time"

	"fixly_backend/internal/models"
)

// FreeApplicationLimit - сколько бесплатных откликов доступно фиксеру.
const FreeApplicationLimit = 3

// UnlimitedCredits - сентинел для безлимитного тарифа.
const UnlimitedCredits = -1

// IsUnlimited возвращает true, если у пользователя действующий pro-тариф.
func IsUnlimited(plan *models.UserPlan, now time.Time) bool {
	if plan == nil || plan.Type != models.PlanTypePro {
		return false
	}
	if plan.Status != models.PlanStatusActive {
		return false
	}
	return plan.EndDate != nil && now.Before(*plan.EndDate)
}

// RemainingCredits возвращает остаток бесплатных кредитов.
// Для действующего pro возвращается UnlimitedCredits.
func RemainingCredits(plan *models.UserPlan, now time.Time) int {
	if IsUnlimited(plan, now) {
		return UnlimitedCredits
	}
	if plan == nil {
		return 0
	}
	remaining := FreeApplicationLimit - plan.CreditsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CanPerformGatedAction решает, доступно ли пользователю платное действие
// (отклик на заказ, комментарий, сообщение нанимателю). Ошибок не бывает:
// false означает, что UI должен показать апселл, а не "сломалось".
func CanPerformGatedAction(plan *models.UserPlan, now time.Time) bool {
	if IsUnlimited(plan, now) {
		return true
	}
	return RemainingCredits(plan, now) > 0
}
