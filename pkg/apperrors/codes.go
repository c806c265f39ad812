package apperrors

// ErrorCode - тип для кодов ошибок
type ErrorCode string

// Коды ошибок сгруппированные по доменам
const (
	// Аутентификация и авторизация
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"

	// Валидация
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeWeakPassword     ErrorCode = "WEAK_PASSWORD"
	CodeInvalidUserRole  ErrorCode = "INVALID_USER_ROLE"

	// Ресурсы
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	CodeConflict      ErrorCode = "CONFLICT"

	// Бизнес-логика
	CodeInvalidOperation ErrorCode = "INVALID_OPERATION"
	CodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	CodeLimitExceeded    ErrorCode = "LIMIT_EXCEEDED"

	// Платежи
	CodePaymentVerificationFailed ErrorCode = "PAYMENT_VERIFICATION_FAILED"
	CodePaymentAlreadyProcessed   ErrorCode = "PAYMENT_ALREADY_PROCESSED"

	// Системные ошибки
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"
)
