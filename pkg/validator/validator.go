package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// tableIDPattern matches the table labels printed on the kiosk stands,
// e.g. "12", "T-4", "patio-3".
var tableIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,31}$`)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance
func New() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("table_id", func(fl validator.FieldLevel) bool {
		return tableIDPattern.MatchString(fl.Field().String())
	})
	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}
