package cli

import (
	"errors"

	"mcpconf/internal/cards"
	"mcpconf/internal/core"
	"mcpconf/internal/status"
	"mcpconf/internal/validation"
)

// Exit codes.
const (
	ExitError    = 1
	ExitInvalid  = 2
	ExitNotFound = 3
)

// errFindings reports that a check found problems it already printed.
var errFindings = errors.New("problems found")

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	var missing *validation.MissingVariablesError
	var schema *cards.SchemaError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, core.ErrCardNotFound), errors.Is(err, core.ErrInstanceNotFound):
		return ExitNotFound
	case errors.As(err, &missing), errors.As(err, &schema),
		errors.Is(err, status.ErrInvalidTransition), errors.Is(err, status.ErrInvalidCompletion),
		errors.Is(err, errFindings):
		return ExitInvalid
	}
	return ExitError
}
