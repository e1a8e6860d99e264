package apperrors

// ErrorCode - тип для кодов ошибок
type ErrorCode string

const (
	// Системные
	CodeInternalError ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError ErrorCode = "DATABASE_ERROR"

	// Общие ошибки бизнес-логики
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeInvalidState     ErrorCode = "INVALID_STATE"

	// Аутентификация и авторизация
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	CodeInvalidCredential ErrorCode = "INVALID_CREDENTIAL"
	CodeForbidden         ErrorCode = "FORBIDDEN"
	CodeFeatureNotEnabled ErrorCode = "FEATURE_NOT_ENABLED"
)
