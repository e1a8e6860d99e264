package apperrors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError - основная структура ошибки приложения
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Domain   string      `json:"domain"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Err      error       `json:"-"`
	HTTPCode int         `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s:%s] %s (%v)", e.Domain, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Domain, e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по коду и домену, чтобы sentinel-переменные
// совпадали с их копиями, созданными через WithDetails/WithError.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Domain == t.Domain && e.Message == t.Message
}

// New - базовый конструктор
func New(code ErrorCode, domain, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Domain:   domain,
		Message:  message,
		HTTPCode: httpCode,
	}
}

// Wrap - оборачивает существующую ошибку в AppError
func Wrap(err error, code ErrorCode, domain, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Domain:   domain,
		Message:  message,
		Err:      err,
		HTTPCode: httpCode,
	}
}

// WithDetails возвращает копию ошибки с деталями.
// Предопределенные переменные не мутируются.
func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithError возвращает копию ошибки с причиной
func (e *AppError) WithError(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// WithMessage возвращает копию ошибки с другим текстом
func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	return &cp
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	type alias struct {
		Code    ErrorCode   `json:"code"`
		Domain  string      `json:"domain"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}
	return json.Marshal(&alias{
		Code:    e.Code,
		Domain:  e.Domain,
		Message: e.Message,
		Details: e.Details,
	})
}

// Is - обертка над стандартной функцией errors.Is
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As - обертка над стандартной функцией errors.As
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// HasCode проверяет, что в цепочке есть AppError с данным кодом
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// --- Общие хелперы ---

// InternalError оборачивает неизвестную системную ошибку
func InternalError(err error) *AppError {
	return Wrap(err, CodeInternalError, "system", "Internal server error", http.StatusInternalServerError)
}

// DatabaseError оборачивает ошибку хранилища
func DatabaseError(err error) *AppError {
	return Wrap(err, CodeDatabaseError, "database", "Database error", http.StatusInternalServerError)
}

// ValidationError создает ошибку валидации с деталями
func ValidationError(details interface{}) *AppError {
	return New(CodeValidationFailed, "validation", "Validation failed", http.StatusBadRequest).WithDetails(details)
}

// NewUnauthorizedError создает ошибку аутентификации
func NewUnauthorizedError(message string) *AppError {
	return New(CodeUnauthorized, "auth", message, http.StatusUnauthorized)
}

// NewForbiddenError создает ошибку доступа
func NewForbiddenError(message string) *AppError {
	return New(CodeForbidden, "auth", message, http.StatusForbidden)
}

// NewBadRequestError создает ошибку 400
func NewBadRequestError(message string) *AppError {
	return New(CodeValidationFailed, "request", message, http.StatusBadRequest)
}

// NewNotFoundError создает ошибку 404 для домена
func NewNotFoundError(domain, message string) *AppError {
	return New(CodeNotFound, domain, message, http.StatusNotFound)
}

// NewConflictError создает ошибку 409
func NewConflictError(domain, message string) *AppError {
	return New(CodeConflict, domain, message, http.StatusConflict)
}

// NewInvalidStateError создает ошибку 422 для недопустимого перехода
func NewInvalidStateError(domain, message string) *AppError {
	return New(CodeInvalidState, domain, message, http.StatusUnprocessableEntity)
}
