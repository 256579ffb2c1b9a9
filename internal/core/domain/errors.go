// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedResource = errors.New("unsupported resource")
	ErrMissingField        = errors.New("missing field")
	ErrInvalidValue        = errors.New("invalid value")
	ErrUnmatchedProduct    = errors.New("unmatched product")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrPersistence         = errors.New("persistence error")
)

// ResourceError reports a path or operation the router cannot serve.
type ResourceError struct {
	Op     Operation
	Path   string
	Reason string
}

func (e *ResourceError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported resource %q for %s: %s", e.Path, e.Op, e.Reason)
	}
	return fmt.Sprintf("unsupported resource %q for %s", e.Path, e.Op)
}

func (e *ResourceError) Unwrap() error { return ErrUnsupportedResource }

// FieldError is a payload validation failure on a single field.
// Kind is either ErrMissingField or ErrInvalidValue.
type FieldError struct {
	Kind   error
	Field  string
	Reason string
}

// MissingField builds a FieldError for an absent required field.
func MissingField(field string) *FieldError {
	return &FieldError{Kind: ErrMissingField, Field: field}
}

// InvalidValue builds a FieldError for a present but unacceptable field.
func InvalidValue(field, reason string) *FieldError {
	return &FieldError{Kind: ErrInvalidValue, Field: field, Reason: reason}
}

func (e *FieldError) Error() string {
	if errors.Is(e.Kind, ErrMissingField) {
		return fmt.Sprintf("%s is required", e.Field)
	}
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s", e.Field)
}

func (e *FieldError) Unwrap() error { return e.Kind }

// UnmatchedProductError means no stock record matched a sale.
type UnmatchedProductError struct {
	Name      string
	ProductID int64
}

func (e *UnmatchedProductError) Error() string {
	if e.ProductID > 0 {
		return fmt.Sprintf("no product with id %d", e.ProductID)
	}
	return fmt.Sprintf("no product named %q", e.Name)
}

func (e *UnmatchedProductError) Unwrap() error { return ErrUnmatchedProduct }

// InsufficientStockError carries the quantity the caller may still sell.
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("sale quantity must be at most %d for %q, requested %d",
		e.Available, e.Name, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// PersistenceError wraps a storage failure.
type PersistenceError struct {
	Op  string
	Err error
}

// NewPersistenceError wraps err unless it is nil.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func (e *PersistenceError) Unwrap() error { return e.Err }
