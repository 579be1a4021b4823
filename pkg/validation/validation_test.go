package validation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type residentForm struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Role  string `json:"role" validate:"omitempty,oneof=resident admin"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name      string
		form      residentForm
		wantField string
		wantErr   bool
	}{
		{"valid", residentForm{Name: "Ada", Email: "ada@example.com", Role: "admin"}, "", false},
		{"missing name", residentForm{Email: "ada@example.com"}, "name", true},
		{"bad email", residentForm{Name: "Ada", Email: "not-an-email"}, "email", true},
		{"unknown role", residentForm{Name: "Ada", Role: "owner"}, "role", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.form)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var inputErr *InvalidInputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.wantField, inputErr.Field)
		})
	}
}

func TestRequired(t *testing.T) {
	assert.NoError(t, Required("title", "Pool closed"))
	assert.True(t, IsInvalidInput(Required("title", "   ")))
}

func TestIsInvalidInput_Wrapped(t *testing.T) {
	err := fmt.Errorf("create notification: %w", Invalid("user_id", "is required"))
	assert.True(t, IsInvalidInput(err))
	assert.False(t, IsInvalidInput(errors.New("boom")))
	assert.Equal(t, "invalid input: user_id is required", errors.Unwrap(err).Error())
}
