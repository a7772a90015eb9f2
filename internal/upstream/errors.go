package upstream

import (
	"errors"
	"fmt"
)

// Category names the upstream dependency an error came from.
type Category string

const (
	CategoryTranscription Category = "transcription"
	CategoryGeneration    Category = "generation"
)

// ServiceError means the upstream could not produce a usable answer: it
// returned a non-success status, was unreachable, or timed out.
// StatusCode is 0 when no HTTP response was received, and Err then holds
// the transport cause without the request URL.
type ServiceError struct {
	Category   Category
	URL        string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s upstream %s: HTTP %d: %s", e.Category, e.URL, e.StatusCode, string(e.Body))
	}
	return fmt.Sprintf("%s upstream %s: %v", e.Category, e.URL, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ContractError means the upstream answered with success but the payload
// was not JSON or lacked the expected field.
type ContractError struct {
	Category Category
	Field    string
	Err      error
}

func (e *ContractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s upstream: invalid response format: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("%s upstream: invalid response format: missing %q", e.Category, e.Field)
}

func (e *ContractError) Unwrap() error { return e.Err }

// IsServiceError reports whether err is (or wraps) a ServiceError.
func IsServiceError(err error) bool {
	var e *ServiceError
	return errors.As(err, &e)
}

// IsContractError reports whether err is (or wraps) a ContractError.
func IsContractError(err error) bool {
	var e *ContractError
	return errors.As(err, &e)
}

// CategoryOf returns the category carried by an upstream error, if any.
func CategoryOf(err error) (Category, bool) {
	var svc *ServiceError
	if errors.As(err, &svc) {
		return svc.Category, true
	}
	var contract *ContractError
	if errors.As(err, &contract) {
		return contract.Category, true
	}
	return "", false
}
