package internal

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var fieldKinds = map[string]struct{}{
	"TEXT": {}, "EMAIL": {}, "NUMBER": {}, "DATE": {}, "TEXTAREA": {}, "SELECT": {}, "IMAGE": {},
}

func NewValidator() *validator.Validate {
	v := validator.New()

	_ = v.RegisterValidation("field_kind", func(fl validator.FieldLevel) bool {
		_, ok := fieldKinds[strings.ToUpper(strings.TrimSpace(fl.Field().String()))]
		return ok
	})

	_ = v.RegisterValidation("not_blank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

func ValidateStruct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err != nil {
		return err
	}
	return nil
}
