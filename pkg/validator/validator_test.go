package validator

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type registerInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Kind     string `validate:"oneof=quiz true_false"`
}

func TestFormatValidationError(t *testing.T) {
	v := validator.New()

	err := v.Struct(registerInput{Email: "nope", Password: "short", Kind: "essay"})

	msg := FormatValidationError(err)
	assert.Contains(t, msg, "Email must be a valid email")
	assert.Contains(t, msg, "Password must be at least 8 characters")
	assert.Contains(t, msg, "Kind must be one of [quiz true_false]")
}

func TestFormatValidationErrorPassesThroughOtherErrors(t *testing.T) {
	assert.Equal(t, "unexpected EOF", FormatValidationError(errors.New("unexpected EOF")))
}
