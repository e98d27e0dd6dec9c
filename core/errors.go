package core

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewFieldError is a shortcut for a ValidationError on a single field.
func NewFieldError(field, msg string) error {
	return &ValidationError{
		Err:    errors.New(field + ": " + msg),
		Fields: []FieldError{{Field: field, Error: msg}},
	}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) == 0 {
		return ""
	}
	flds := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		flds = append(flds, f.Field+": "+f.Error)
	}
	sort.Strings(flds)
	return strings.Join(flds, "; ")
}

// NotFoundError is returned when a referenced entity does not exist.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// RuleError is returned when a well-formed request breaks a business rule.
type RuleError struct {
	Code    string
	Message string
}

func NewRuleError(code, msg string) error {
	return &RuleError{Code: code, Message: msg}
}

func (err RuleError) Error() string {
	return err.Message
}

// StoreError means the database could not be reached or a transaction could not be completed.
// It has no Cause method, so errors.Cause stops here and the driver error stays internal.
type StoreError struct {
	Err error
}

func NewStoreError(err error) error {
	return &StoreError{Err: err}
}

func (err StoreError) Error() string {
	if err.Err == nil {
		return "store unavailable"
	}
	return "store unavailable: " + err.Err.Error()
}

func (err StoreError) Unwrap() error { return err.Err }

func IsStoreUnavailable(err error) bool {
	_, ok := errors.Cause(err).(*StoreError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
