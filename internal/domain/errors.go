package domain

import (
	"errors"
	"strings"
)

// ErrConfiguration is matched by every *ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("invalid catalog configuration")

// ConfigurationError reports a malformed catalog. It is fatal: a simulation
// never starts from a catalog that produced one.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return ErrConfiguration.Error() + ": " + strings.Join(e.Problems, "; ")
}

// Is makes errors.Is(err, ErrConfiguration) true for any ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
