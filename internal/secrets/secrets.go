// Package secrets keeps secret variable values in the OS credential store
// (macOS Keychain, Windows Credential Manager, Linux Secret Service).
//
// Values are stored per variable name under one service name. The service
// name is configurable so separate installations or tests stay isolated.
package secrets

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/zalando/go-keyring"
)

// DefaultService is the credential store service name.
const DefaultService = "mcpconf"

var variableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrInvalidName is returned for names that cannot be environment variables.
var ErrInvalidName = errors.New("invalid variable name")

// Store handles secure storage and retrieval of secret variable values.
type Store struct {
	service string
}

// NewStore creates a new secret store for service. An empty service selects
// DefaultService.
func NewStore(service string) *Store {
	if strings.TrimSpace(service) == "" {
		service = DefaultService
	}
	return &Store{service: service}
}

// Service returns the credential store service name.
func (s *Store) Service() string {
	return s.service
}

// Set stores value for the variable name.
//
// Parameters:
//   - name: variable name, e.g. GITHUB_TOKEN
//   - value: secret value, must not be empty
//
// Returns:
//   - error: validation failures or credential store errors
func (s *Store) Set(name, value string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("secret value for %s cannot be empty", name)
	}

	if err := keyring.Set(s.service, name, value); err != nil {
		return fmt.Errorf("failed to store %s in credential store: %w", name, err)
	}
	return nil
}

// Get retrieves the value stored for name. A name with no stored value
// returns ok=false and no error.
func (s *Store) Get(name string) (value string, ok bool, err error) {
	if err := ValidateName(name); err != nil {
		return "", false, err
	}

	value, err = keyring.Get(s.service, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to retrieve %s from credential store: %w", name, err)
	}
	return value, value != "", nil
}

// Lookup is Get with credential store errors treated as absence. It is the
// form used during value resolution, where an unavailable keyring must not
// block configuration.
func (s *Store) Lookup(name string) (string, bool) {
	value, ok, err := s.Get(name)
	if err != nil {
		return "", false
	}
	return value, ok
}

// Delete removes the stored value for name. Deleting a name that has no
// stored value is not an error.
func (s *Store) Delete(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	err := keyring.Delete(s.service, name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %s from credential store: %w", name, err)
	}
	return nil
}

// Has reports whether a value is stored for name without returning it.
func (s *Store) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// ValidateName checks that name is usable as an environment variable name.
func ValidateName(name string) error {
	if !variableNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Status probes the credential store with a throwaway entry and reports
// whether it is usable. The probe entry is always removed.
func (s *Store) Status() map[string]any {
	status := make(map[string]any)

	const testKey = "MCPCONF_PROBE"
	const testValue = "probe"

	if err := keyring.Set(s.service, testKey, testValue); err != nil {
		status["available"] = false
		status["error"] = err.Error()
		return status
	}
	defer keyring.Delete(s.service, testKey)

	got, err := keyring.Get(s.service, testKey)
	if err != nil {
		status["available"] = false
		status["error"] = err.Error()
		return status
	}
	if got != testValue {
		status["available"] = false
		status["error"] = "credential store corrupted - values don't match"
		return status
	}

	status["available"] = true
	status["error"] = nil
	return status
}
