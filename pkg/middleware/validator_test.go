package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=student member"`
}

func TestValidator(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Validate(&signup{Name: "A", Email: "a@x.com"}))

	err := v.Validate(&signup{Email: "nope", Role: "admin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "email must be a valid email")
	assert.Contains(t, err.Error(), "role must be one of [student member]")
}
