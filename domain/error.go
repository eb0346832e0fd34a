// Package domain defines error types for the inventory system.
package domain

import (
	"errors"
	"fmt"
)

// ValidationError is returned when caller input fails a business rule
type ValidationError struct {
	Field  string
	Reason string
	Value  interface{}
	Cause  error
}

// Error implements the error interface for ValidationError
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: field=%s, reason=%s, value=%v", e.Field, e.Reason, e.Value)
}

// Unwrap exposes the store condition that triggered the rejection, if any
func (e *ValidationError) Unwrap() error { return e.Cause }

// Is allows proper error type checking with errors.Is()
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// ProductNotFoundError is returned when no product carries the given SKU
type ProductNotFoundError struct {
	SKU string
}

// Error implements the error interface for ProductNotFoundError
func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: sku=%s", e.SKU)
}

// Is allows proper error type checking with errors.Is()
func (e *ProductNotFoundError) Is(target error) bool {
	_, ok := target.(*ProductNotFoundError)
	return ok
}

// StockInsufficientError is returned when a sale asks for more units than are on hand
type StockInsufficientError struct {
	SKU       string
	Requested int
	Remaining int
}

// Error implements the error interface for StockInsufficientError
func (e *StockInsufficientError) Error() string {
	return fmt.Sprintf("insufficient stock: sku=%s, requested=%d, remaining=%d", e.SKU, e.Requested, e.Remaining)
}

// Is allows proper error type checking with errors.Is()
func (e *StockInsufficientError) Is(target error) bool {
	_, ok := target.(*StockInsufficientError)
	return ok
}

// ImportError is returned when an import payload is malformed.
// Index is the 1-based position of the offending product, 0 for payload-level problems.
type ImportError struct {
	Index  int
	Field  string
	Reason string
	Cause  error
}

// Error implements the error interface for ImportError
func (e *ImportError) Error() string {
	switch {
	case e.Index > 0 && e.Field != "":
		return fmt.Sprintf("import error: product #%d, field=%s, reason=%s", e.Index, e.Field, e.Reason)
	case e.Index > 0:
		return fmt.Sprintf("import error: product #%d, reason=%s", e.Index, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("import error: field=%s, reason=%s", e.Field, e.Reason)
	default:
		return fmt.Sprintf("import error: %s", e.Reason)
	}
}

func (e *ImportError) Unwrap() error { return e.Cause }

// Is allows proper error type checking with errors.Is()
func (e *ImportError) Is(target error) bool {
	_, ok := target.(*ImportError)
	return ok
}

// ReferentialConflictError is returned when a product cannot be deleted because sales reference it
type ReferentialConflictError struct {
	SKU string
}

// Error implements the error interface for ReferentialConflictError
func (e *ReferentialConflictError) Error() string {
	return fmt.Sprintf("referential conflict: sku=%s is referenced by recorded sales", e.SKU)
}

// Is allows proper error type checking with errors.Is()
func (e *ReferentialConflictError) Is(target error) bool {
	_, ok := target.(*ReferentialConflictError)
	return ok
}

// ConstraintViolationError is returned when a write breaks a uniqueness constraint
type ConstraintViolationError struct {
	Field string
	Value interface{}
}

// Error implements the error interface for ConstraintViolationError
func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("constraint violation: %s=%v already exists", e.Field, e.Value)
}

// Is allows proper error type checking with errors.Is()
func (e *ConstraintViolationError) Is(target error) bool {
	_, ok := target.(*ConstraintViolationError)
	return ok
}

// StorageError wraps any underlying storage fault. Its message never carries driver text;
// the original cause stays reachable through errors.Unwrap for logging.
type StorageError struct {
	Op    string
	Cause error
}

// Error implements the error interface for StorageError
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: op=%s", e.Op)
}

func (e *StorageError) Unwrap() error { return e.Cause }

// Is allows proper error type checking with errors.Is()
func (e *StorageError) Is(target error) bool {
	_, ok := target.(*StorageError)
	return ok
}

// Helper functions for creating errors with context

// NewValidationError creates a new ValidationError
func NewValidationError(field, reason string, value interface{}) error {
	return &ValidationError{Field: field, Reason: reason, Value: value}
}

// NewProductNotFoundError creates a new ProductNotFoundError
func NewProductNotFoundError(sku string) error {
	return &ProductNotFoundError{SKU: sku}
}

// NewStockInsufficientError creates a new StockInsufficientError
func NewStockInsufficientError(sku string, requested, remaining int) error {
	return &StockInsufficientError{SKU: sku, Requested: requested, Remaining: remaining}
}

// NewImportError creates a new ImportError
func NewImportError(index int, field, reason string, cause error) error {
	return &ImportError{Index: index, Field: field, Reason: reason, Cause: cause}
}

// NewReferentialConflictError creates a new ReferentialConflictError
func NewReferentialConflictError(sku string) error {
	return &ReferentialConflictError{SKU: sku}
}

// NewConstraintViolationError creates a new ConstraintViolationError
func NewConstraintViolationError(field string, value interface{}) error {
	return &ConstraintViolationError{Field: field, Value: value}
}

// NewStorageError creates a new StorageError
func NewStorageError(op string, cause error) error {
	return &StorageError{Op: op, Cause: cause}
}

// Type assertion helpers for use with errors.As()

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsProductNotFoundError checks if an error is a ProductNotFoundError
func IsProductNotFoundError(err error) bool {
	var pnf *ProductNotFoundError
	return errors.As(err, &pnf)
}

// IsStockInsufficientError checks if an error is a StockInsufficientError
func IsStockInsufficientError(err error) bool {
	var sie *StockInsufficientError
	return errors.As(err, &sie)
}

// IsImportError checks if an error is an ImportError
func IsImportError(err error) bool {
	var ie *ImportError
	return errors.As(err, &ie)
}

// IsReferentialConflictError checks if an error is a ReferentialConflictError
func IsReferentialConflictError(err error) bool {
	var rce *ReferentialConflictError
	return errors.As(err, &rce)
}

// IsConstraintViolationError checks if an error is a ConstraintViolationError
func IsConstraintViolationError(err error) bool {
	var cve *ConstraintViolationError
	return errors.As(err, &cve)
}

// IsStorageError checks if an error is a StorageError
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsDomainError reports whether err is one of the handled inventory error kinds.
// Anything else reaching the presentation layer is a programming error.
func IsDomainError(err error) bool {
	return IsValidationError(err) ||
		IsProductNotFoundError(err) ||
		IsStockInsufficientError(err) ||
		IsImportError(err) ||
		IsReferentialConflictError(err) ||
		IsConstraintViolationError(err) ||
		IsStorageError(err)
}
