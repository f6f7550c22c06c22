// Package errors provides the error kinds reported by the document model.
//
// Every typed error unwraps to one of the sentinels below, so callers can
// branch with errors.Is without caring about the concrete type.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrSchemaViolation indicates a value or type mismatch against the schema
	ErrSchemaViolation = errors.New("schema violation")
	// ErrNotFound indicates an operation referenced a node that is not live
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID indicates a create collided with a live node id
	ErrDuplicateID = errors.New("duplicate id")
	// ErrReferencedByContainer indicates a delete blocked by a container reference
	ErrReferencedByContainer = errors.New("referenced by container")
	// ErrIndexOutOfRange indicates an invalid container position
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrNotImplemented indicates a document dialect did not supply a required method
	ErrNotImplemented = errors.New("not implemented")
	// ErrIndexCorrupt indicates a derived index disagrees with the node store
	ErrIndexCorrupt = errors.New("index corrupt")
	// ErrInvalidInput indicates malformed caller input (selectors, XML)
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError represents a dead or unknown identifier
type NotFoundError struct {
	Resource string // Type of resource (e.g., "node", "index", "element schema")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// SchemaError represents a value that does not satisfy the schema
type SchemaError struct {
	Type     string // Node type being validated
	Property string // Property name that failed validation
	Message  string // Human-readable error message
}

func (e *SchemaError) Error() string {
	switch {
	case e.Type != "" && e.Property != "":
		return fmt.Sprintf("schema violation for %s.%s: %s", e.Type, e.Property, e.Message)
	case e.Type != "":
		return fmt.Sprintf("schema violation for %s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("schema violation: %s", e.Message)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaViolation
}

// DuplicateIDError represents a create with an id already in use
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("node already exists: %s", e.ID)
}

func (e *DuplicateIDError) Unwrap() error {
	return ErrDuplicateID
}

// ReferencedError represents a delete refused because containers still list the node
type ReferencedError struct {
	ID         string   // Node that was to be deleted
	Containers []string // Containers that still list it
}

func (e *ReferencedError) Error() string {
	return fmt.Sprintf("node %s is still listed by container(s) %v", e.ID, e.Containers)
}

func (e *ReferencedError) Unwrap() error {
	return ErrReferencedByContainer
}

// RangeError represents a container position outside the valid bounds
type RangeError struct {
	Container string
	Index     int
	Length    int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("index %d out of range for container %s of length %d", e.Index, e.Container, e.Length)
}

func (e *RangeError) Unwrap() error {
	return ErrIndexOutOfRange
}

// NotImplementedError represents a missing method on a document dialect
type NotImplementedError struct {
	Method string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s is abstract and must be implemented by the document type", e.Method)
}

func (e *NotImplementedError) Unwrap() error {
	return ErrNotImplemented
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "XML", "selector")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewSchema creates a SchemaError
func NewSchema(typeName, property, message string) *SchemaError {
	return &SchemaError{
		Type:     typeName,
		Property: property,
		Message:  message,
	}
}

// NewSchemaf creates a SchemaError with a formatted message
func NewSchemaf(typeName, property, format string, args ...interface{}) *SchemaError {
	return NewSchema(typeName, property, fmt.Sprintf(format, args...))
}

// NewDuplicateID creates a DuplicateIDError
func NewDuplicateID(id string) *DuplicateIDError {
	return &DuplicateIDError{ID: id}
}

// NewReferenced creates a ReferencedError
func NewReferenced(id string, containers []string) *ReferencedError {
	return &ReferencedError{ID: id, Containers: containers}
}

// NewRange creates a RangeError
func NewRange(container string, index, length int) *RangeError {
	return &RangeError{Container: container, Index: index, Length: length}
}

// NewNotImplemented creates a NotImplementedError
func NewNotImplemented(method string) *NotImplementedError {
	return &NotImplementedError{Method: method}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
