package optim

import (
	"errors"
	"fmt"
)

// Messages reported for missing update arguments.
const (
	NoParamsMsg = "missing parameters"
	NoLossMsg   = "missing loss value"
)

// ErrConfiguration matches every *ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports invalid optimizer configuration or update
// arguments. It is raised before any state is computed.
type ConfigurationError struct {
	Reason string // What was wrong (e.g., "missing loss value")
	Err    error  // Underlying cause, if any
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("optim: %s: %v", e.Reason, e.Err)
	}
	return "optim: " + e.Reason
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configError(reason string, err error) *ConfigurationError {
	return &ConfigurationError{Reason: reason, Err: err}
}
