package apperrors

import (
	"net/http"
)

/*
Предопределенные ошибки домена. Сервисы возвращают их как есть
или через WithDetails/WithError, HTTP слой маппит по HTTPCode.
*/

// --- Auth ---

// ErrUnauthenticated - нет токена, токен невалиден или истек
var ErrUnauthenticated = New(CodeUnauthorized, "auth", "Authentication required", http.StatusUnauthorized)

// ErrInvalidCredential - неверный логин/пароль или refresh токен.
// Сообщение одинаковое для всех причин.
var ErrInvalidCredential = New(CodeInvalidCredential, "auth", "Invalid credentials", http.StatusUnauthorized)

// ErrInsufficientPermissions - роль или права не позволяют операцию
var ErrInsufficientPermissions = New(CodeForbidden, "auth", "Insufficient permissions", http.StatusForbidden)

// --- Scope ---

// ErrTenantAccessRequired - в контексте нет активного тенанта
var ErrTenantAccessRequired = New(CodeForbidden, "scope", "Tenant access required", http.StatusForbidden)

// ErrPartnerAccessRequired - в контексте нет активного партнера
var ErrPartnerAccessRequired = New(CodeForbidden, "scope", "Partner access required", http.StatusForbidden)

// ErrCrossTenantAccess - запрос адресует чужой тенант
var ErrCrossTenantAccess = New(CodeForbidden, "scope", "Access to this tenant is not allowed", http.StatusForbidden)

// ErrCrossPartnerAccess - запрос адресует чужого партнера
var ErrCrossPartnerAccess = New(CodeForbidden, "scope", "Access to this partner is not allowed", http.StatusForbidden)

// ErrFeatureNotEnabled - фича не входит в снапшот тенанта
var ErrFeatureNotEnabled = New(CodeFeatureNotEnabled, "entitlement", "Feature is not enabled for this tenant", http.StatusForbidden)

// --- Subscriptions ---

var ErrSubscriptionNotFound = NewNotFoundError("subscription", "Subscription not found")

var ErrPlanNotFound = NewNotFoundError("plan", "Plan not found")

var ErrTenantNotFound = NewNotFoundError("tenant", "Tenant not found")

var ErrPartnerNotFound = NewNotFoundError("partner", "Partner not found")

var ErrInvoiceNotFound = NewNotFoundError("invoice", "Invoice not found")

var ErrUserNotFound = NewNotFoundError("user", "User not found")

var ErrMembershipNotFound = NewNotFoundError("membership", "Membership not found")

// ErrLiveSubscriptionExists - у тенанта уже есть trial/active подписка
var ErrLiveSubscriptionExists = NewConflictError("subscription", "Tenant already has a live subscription")

// ErrInvalidTransition - переход статуса недопустим
var ErrInvalidTransition = NewInvalidStateError("subscription", "Status transition is not allowed")

// ErrPlanNotAllowedForPartner - план вне allow-list партнера
var ErrPlanNotAllowedForPartner = New(CodeForbidden, "subscription", "Plan is not available for this partner", http.StatusForbidden)

// ErrInvoiceNotPending - счет уже оплачен или аннулирован
var ErrInvoiceNotPending = NewInvalidStateError("invoice", "Invoice is not pending")
