package apperrors

import "net/http"

/*
Предопределенные ошибки бизнес-логики Fixly.
Сервисы возвращают их напрямую либо оборачивают sentinel-ошибки
репозиториев через фабрики из errors.go.
*/

// --- Auth & Users ---

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use",
	http.StatusConflict,
)

var ErrWeakPassword = New(
	CodeWeakPassword,
	"validation",
	"Password is too weak. Minimum 6 characters required.",
	http.StatusBadRequest,
)

var ErrInvalidUserRole = New(
	CodeInvalidUserRole,
	"business_logic",
	"Invalid user role for this operation",
	http.StatusBadRequest,
)

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

var ErrUserSuspended = New(
	CodeForbidden,
	"auth",
	"Your account has been suspended",
	http.StatusForbidden,
)

// --- Quota & Plans ---

// ErrQuotaExceeded - бесплатные кредиты исчерпаны. Это "мягкая" ошибка:
// фронт показывает апселл pro-тарифа, а не сообщение о сбое.
var ErrQuotaExceeded = New(
	CodeLimitExceeded,
	"quota",
	"Free application limit reached. Upgrade to Pro for unlimited applications.",
	http.StatusForbidden,
)

var ErrPlanNotFound = New(
	CodeNotFound,
	"subscription",
	"Subscription plan not found",
	http.StatusNotFound,
)

var ErrPlanAlreadyCancelled = New(
	CodeInvalidOperation,
	"subscription",
	"Subscription is already cancelled",
	http.StatusBadRequest,
)

var ErrNoActiveSubscription = New(
	CodeInvalidOperation,
	"subscription",
	"No active Pro subscription",
	http.StatusBadRequest,
)

// --- Payments ---

// ErrPaymentVerificationFailed - подпись не сошлась или заказ не найден.
// Сообщение нарочно общее: детали несовпадения наружу не отдаем.
var ErrPaymentVerificationFailed = New(
	CodePaymentVerificationFailed,
	"payment",
	"Payment verification failed, contact support",
	http.StatusBadRequest,
)

var ErrPaymentAlreadyProcessed = New(
	CodePaymentAlreadyProcessed,
	"payment",
	"Payment has already been processed",
	http.StatusConflict,
)

// --- Jobs & Applications ---

var ErrJobNotOpen = New(
	CodeInvalidStatus,
	"job",
	"Job is not open",
	http.StatusConflict,
)

var ErrCannotApplyToOwnJob = New(
	CodeInvalidOperation,
	"job",
	"Cannot apply to your own job",
	http.StatusBadRequest,
)

var ErrApplicationAlreadyExists = New(
	CodeAlreadyExists,
	"application",
	"You have already applied to this job",
	http.StatusConflict,
)

var ErrApplicationNotPending = New(
	CodeInvalidStatus,
	"application",
	"Application is not in pending state",
	http.StatusConflict,
)

// --- Factories ---

// ErrNotFound - фабрика для оборачивания gorm.ErrRecordNotFound и
// sentinel-ошибок репозиториев.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}
