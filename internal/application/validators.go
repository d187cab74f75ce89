package application

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-joute/internal/domain"
)

// RegisterContestValidators registers custom validation functions with
// the validator instance for use in contest configuration validation.
// RegisterContestValidators adds quota and roundkind validators that can
// be referenced in struct tags. Versions use the library's own semver rule.
func RegisterContestValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("quota", validateQuota); err != nil {
		return fmt.Errorf("failed to register quota validator: %w", err)
	}

	if err := v.RegisterValidation("roundkind", validateRoundKind); err != nil {
		return fmt.Errorf("failed to register roundkind validator: %w", err)
	}

	return nil
}

// validateQuota accepts a positive integer or ALL, case-insensitively.
func validateQuota(fl validator.FieldLevel) bool {
	_, err := domain.ParseQuota(fl.Field().String())
	return err == nil
}

func validateRoundKind(fl validator.FieldLevel) bool {
	return domain.RoundKind(fl.Field().String()).Valid()
}
