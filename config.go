package nskv

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config holds the connection parameters of a View.
// Namespace is used as is: it is neither empty-checked nor escaped.
type Config struct {
	Host      string `mapstructure:"host"      validate:"required"`
	Port      int    `mapstructure:"port"      validate:"required,min=1,max=65535"`
	Namespace string `mapstructure:"namespace"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (cfg Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}
