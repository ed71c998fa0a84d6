package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validate checks cfg against its struct tags and cross-field rules.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrValidation)
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(validateTelegram, TelegramConfig{})
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// validateTelegram requires at least one chatter when a token is set. The
// required_with tag only rejects a nil slice.
func validateTelegram(sl validator.StructLevel) {
	t := sl.Current().Interface().(TelegramConfig)
	if t.Token != "" && len(t.ChatterIDs) == 0 {
		sl.ReportError(t.ChatterIDs, "ChatterIDs", "chatter_ids", "required_with", "Token")
	}
}
