package core

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldErrors(t *testing.T) {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	InitValidators(validate, translator)

	type form struct {
		Title string `json:"title" validate:"required"`
		Body  string `json:"body" validate:"notblank"`
		Level string `json:"level" validate:"oneof=easy medium hard"`
	}

	err := validate.Struct(form{Body: "   ", Level: "lol"})
	var vErrs validator.ValidationErrors
	require.True(t, errors.As(err, &vErrs))

	assert.Equal(t, map[string]string{
		"title": "this field is required",
		"body":  "this field cannot be blank",
		"level": "level must be one of: easy, medium, hard",
	}, FieldErrors(vErrs, translator))

	assert.NoError(t, validate.Struct(form{Title: "t", Body: "b", Level: "easy"}))
}
