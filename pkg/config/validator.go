package config

import (
	"github.com/go-playground/validator/v10"
	"github.com/mcphackers/mcpctl/engine/task"
)

// RegisterCustomValidators registers custom validation functions
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("side", validateSide); err != nil {
		return err
	}
	return v.RegisterValidation("mode", validateMode)
}

// validateSide accepts client, server and any, including short forms.
func validateSide(fl validator.FieldLevel) bool {
	_, err := task.ParseSide(fl.Field().String())
	return err == nil
}

// validateMode accepts a mode identity or its command name.
func validateMode(fl validator.FieldLevel) bool {
	_, err := task.ParseMode(fl.Field().String())
	return err == nil
}
