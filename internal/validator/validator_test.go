package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email  string `json:"email" validate:"required,email"`
	Cycle  string `json:"billing_cycle" validate:"required,is-billing-cycle"`
	Role   string `json:"role,omitempty" validate:"omitempty,is-tenant-role"`
	Hidden string `json:"-" validate:"max=3"`
}

func TestValidate_UsesJSONNames(t *testing.T) {
	v := New()

	err := v.Validate(&sample{Email: "nope", Cycle: "weekly", Role: "owner"})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Must be a valid email address", ve.Errors["email"])
	assert.Equal(t, "Must be one of: monthly, yearly", ve.Errors["billing_cycle"])
	assert.Contains(t, ve.Errors, "role")
}

func TestValidate_OK(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(&sample{Email: "a@example.com", Cycle: "yearly"}))
}
