package faults

import (
	"errors"
	"fmt"
)

// ConfigurationError covers misconfiguration that cannot be recovered at
// runtime, such as an embedding dimension mismatch or a missing model name.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// ExternalCallFailure wraps a failed embedding or generation call.
type ExternalCallFailure struct {
	Service string
	Err     error
}

func (e *ExternalCallFailure) Error() string {
	return fmt.Sprintf("external call to %s failed: %v", e.Service, e.Err)
}

func (e *ExternalCallFailure) Unwrap() error { return e.Err }

// PersistenceFailure wraps a corpus read or write failure, including an
// insert that returned no identity.
type PersistenceFailure struct {
	Op  string
	Err error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceFailure) Unwrap() error { return e.Err }

// ParseFailure marks an unparsable structured reply. Callers absorb it
// locally rather than propagating.
type ParseFailure struct {
	Input string
}

func (e *ParseFailure) Error() string {
	return "could not parse structured reply"
}

func Configuration(reason string) error {
	return &ConfigurationError{Reason: reason}
}

func ExternalCall(service string, err error) error {
	return &ExternalCallFailure{Service: service, Err: err}
}

func Persistence(op string, err error) error {
	return &PersistenceFailure{Op: op, Err: err}
}

func IsExternalCall(err error) bool {
	var e *ExternalCallFailure
	return errors.As(err, &e)
}

func IsPersistence(err error) bool {
	var e *PersistenceFailure
	return errors.As(err, &e)
}

func IsConfiguration(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}
