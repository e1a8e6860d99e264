package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	AuthHandler    *AuthHandler
	TenantHandler  *TenantHandler
	AdminHandler   *AdminHandler
	PartnerHandler *PartnerHandler
	HealthHandler  *HealthHandler
}
