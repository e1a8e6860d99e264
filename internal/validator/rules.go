package validator

import (
	"log"

	"github.com/go-playground/validator/v10"

	"saas_backend/internal/models"
)

// registerCustomRules - теги для доменных перечислений
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// без правила приложение запускать нельзя
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	mustRegister("is-billing-cycle", validateBillingCycle)
	mustRegister("is-tenant-role", validateTenantRole)
	mustRegister("is-partner-role", validatePartnerRole)
}

func validateBillingCycle(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // пустое значение - забота 'required'
	}
	return models.BillingCycle(value).IsValid()
}

func validateTenantRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.TenantRole(value).IsValid()
}

func validatePartnerRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.PartnerRole(value).IsValid()
}
