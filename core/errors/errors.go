// Package errors provides the error taxonomy shared by the CoreNLP XML object model.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrMalformedInput indicates the input could not be parsed at all
	ErrMalformedInput = errors.New("malformed input")
	// ErrMissingAttribute indicates a required attribute was absent
	ErrMissingAttribute = errors.New("missing attribute")
	// ErrBrokenGraph indicates a structurally broken dependency graph
	ErrBrokenGraph = errors.New("broken dependency graph")
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
)

// ParseError represents a parsing error with context
type ParseError struct {
	Format  string // Format being parsed (e.g., "XML", "parse tree")
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

// Is reports ParseError as ErrMalformedInput in addition to its cause.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedInput
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrMalformedInput
}

// MissingAttributeError represents an attribute that was expected on an element
type MissingAttributeError struct {
	Element   string // Element name (e.g., "sentence")
	Attribute string // Attribute name (e.g., "sentiment")
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("%s has no %s attribute", e.Element, e.Attribute)
}

func (e *MissingAttributeError) Unwrap() error {
	return ErrMissingAttribute
}

// RelationError represents a required dependency relationship that could not be resolved
type RelationError struct {
	Relation string // Relation type involved (e.g., "root")
	Reason   string // What was missing
}

func (e *RelationError) Error() string {
	if e.Relation != "" {
		return fmt.Sprintf("dependency relation %s: %s", e.Relation, e.Reason)
	}
	return fmt.Sprintf("dependency relation: %s", e.Reason)
}

func (e *RelationError) Unwrap() error {
	return ErrBrokenGraph
}

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "document")
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

// Helper functions for creating common errors

// NewParse creates a ParseError
func NewParse(format, path, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// NewMissingAttribute creates a MissingAttributeError
func NewMissingAttribute(element, attribute string) *MissingAttributeError {
	return &MissingAttributeError{
		Element:   element,
		Attribute: attribute,
	}
}

// NewRelation creates a RelationError
func NewRelation(relation, reason string) *RelationError {
	return &RelationError{
		Relation: relation,
		Reason:   reason,
	}
}

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
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
