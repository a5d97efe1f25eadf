package common

import (
	"errors"
	"fmt"
)

// ContentError indicates the supplied input cannot be used: an unreadable or
// encrypted PDF, a document with no extractable text, an unsupported file type.
type ContentError struct {
	Msg string
	Err error
}

func (e *ContentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ContentError) Unwrap() error { return e.Err }

// NewContentError creates a ContentError with an optional cause
func NewContentError(msg string, err error) *ContentError {
	return &ContentError{Msg: msg, Err: err}
}

// ConfigError indicates invalid settings that make an operation impossible
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a ConfigError with an optional cause
func NewConfigError(msg string, err error) *ConfigError {
	return &ConfigError{Msg: msg, Err: err}
}

// ProviderError indicates a failure in an external capability (embedding or
// completion API). Transient failures (rate limits, timeouts, unavailability)
// are retried with bounded backoff; permanent failures (auth, bad request)
// surface immediately.
type ProviderError struct {
	Provider  string
	Transient bool
	Err       error
}

func (e *ProviderError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("provider %s: %s failure: %v", e.Provider, kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError creates a ProviderError
func NewProviderError(provider string, transient bool, err error) *ProviderError {
	return &ProviderError{Provider: provider, Transient: transient, Err: err}
}

// ConsistencyError indicates a broken internal invariant: a duplicate vector
// id, an index that disagrees with the document catalog. Never swallowed.
type ConsistencyError struct {
	Msg string
	Err error
}

func (e *ConsistencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// NewConsistencyError creates a ConsistencyError with an optional cause
func NewConsistencyError(msg string, err error) *ConsistencyError {
	return &ConsistencyError{Msg: msg, Err: err}
}

// NotFoundError indicates a referenced resource does not exist
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsTransient reports whether err is a transient provider failure worth retrying
func IsTransient(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Transient
}
