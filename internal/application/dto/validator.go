// Package dto defines the request and response shapes of the application
// layer, with declarative validation on every inbound type.
package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/praxisgrc/praxis/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs the struct tags of an inbound DTO and converts the first
// failure into the invalid-argument error class.
func Validate(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return errors.ErrInvalidInput("field " + fe.Field() + " failed rule " + fe.Tag())
		}
		return errors.ErrInvalidInput(err.Error())
	}
	return nil
}
