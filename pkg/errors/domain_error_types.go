package errors

import (
	"fmt"
	"strings"
)

// DomainErrorType represents the category of domain error
type DomainErrorType string

const (
	// DomainValidationError indicates input validation failure
	DomainValidationError DomainErrorType = "VALIDATION_ERROR"

	// DomainBusinessRuleError indicates a business rule violation
	DomainBusinessRuleError DomainErrorType = "BUSINESS_RULE_ERROR"

	// DomainNotFoundError indicates a resource was not found
	DomainNotFoundError DomainErrorType = "NOT_FOUND"

	// DomainConflictError indicates a conflict with existing state
	DomainConflictError DomainErrorType = "CONFLICT"

	// DomainConsistencyError indicates the graph failed its invariant check
	DomainConsistencyError DomainErrorType = "CONSISTENCY_ERROR"

	// DomainInfrastructureError indicates an infrastructure-level failure
	DomainInfrastructureError DomainErrorType = "INFRASTRUCTURE_ERROR"
)

// DomainError represents a domain-specific error with rich context
type DomainError struct {
	Type       DomainErrorType        `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

// NewDomainError creates a new domain error
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	return &DomainError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		Details:    make(map[string]interface{}),
		Retryable:  false,
		StatusCode: domainErrorTypeToStatusCode(errorType),
	}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// WithCause adds a cause to the error
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *DomainError) WithDetails(details map[string]interface{}) *DomainError {
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithRetryable sets whether the error is retryable
func (e *DomainError) WithRetryable(retryable bool) *DomainError {
	e.Retryable = retryable
	return e
}

// Is checks if the error is of a specific type
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// instance copies a sentinel so details never leak into the shared value
func (e *DomainError) instance() *DomainError {
	return NewDomainError(e.Type, e.Code, e.Message).WithRetryable(e.Retryable)
}

// domainErrorTypeToStatusCode maps error types to HTTP status codes
func domainErrorTypeToStatusCode(errorType DomainErrorType) int {
	switch errorType {
	case DomainValidationError:
		return 400 // Bad Request
	case DomainBusinessRuleError:
		return 422 // Unprocessable Entity
	case DomainNotFoundError:
		return 404 // Not Found
	case DomainConflictError:
		return 409 // Conflict
	case DomainConsistencyError, DomainInfrastructureError:
		return 500 // Internal Server Error
	default:
		return 500 // Internal Server Error
	}
}

// Sentinels for errors.Is matching. Never attach details to these directly;
// use the New* constructors below, which return fresh instances.
var (
	ErrContentNotFound = NewDomainError(
		DomainNotFoundError,
		"CONTENT_NOT_FOUND",
		"The requested block content does not exist",
	)

	ErrLocatedBlockNotFound = NewDomainError(
		DomainNotFoundError,
		"LOCATED_BLOCK_NOT_FOUND",
		"The requested located block does not exist",
	)

	ErrNoSuchBlock = NewDomainError(
		DomainNotFoundError,
		"NO_SUCH_BLOCK",
		"Navigation ran off the edge of the document",
	)

	ErrCyclicPlacement = NewDomainError(
		DomainBusinessRuleError,
		"CYCLIC_PLACEMENT",
		"Placing this block would make its content an ancestor of itself",
	)

	ErrInvariantViolation = NewDomainError(
		DomainConsistencyError,
		"INVARIANT_VIOLATION",
		"The graph failed its consistency check",
	)

	ErrDocumentNotFound = NewDomainError(
		DomainNotFoundError,
		"DOCUMENT_NOT_FOUND",
		"The requested document does not exist",
	)

	ErrDocumentExists = NewDomainError(
		DomainConflictError,
		"DOCUMENT_EXISTS",
		"A document with this ID already exists",
	)

	ErrConcurrentModification = NewDomainError(
		DomainConflictError,
		"CONCURRENT_MODIFICATION",
		"The document was modified by another writer",
	).WithRetryable(true)

	ErrInvalidArgument = NewDomainError(
		DomainValidationError,
		"INVALID_ARGUMENT",
		"The request is invalid",
	)

	ErrDocumentTooLarge = NewDomainError(
		DomainBusinessRuleError,
		"DOCUMENT_TOO_LARGE",
		"The document has reached its block limit",
	)
)

// NewContentNotFound reports a missing BlockContent id
func NewContentNotFound(contentID string) *DomainError {
	return ErrContentNotFound.instance().WithDetail("content_id", contentID)
}

// NewLocatedBlockNotFound reports a missing LocatedBlock id
func NewLocatedBlockNotFound(locatedID string) *DomainError {
	return ErrLocatedBlockNotFound.instance().WithDetail("located_block_id", locatedID)
}

// NewNoSuchBlock reports a navigation that ran off the start or end of the document
func NewNoSuchBlock(direction string) *DomainError {
	return ErrNoSuchBlock.instance().WithDetail("direction", direction)
}

// NewCyclicPlacement reports a placement that would nest content inside itself
func NewCyclicPlacement(contentID, parentID string) *DomainError {
	return ErrCyclicPlacement.instance().
		WithDetail("content_id", contentID).
		WithDetail("parent_content_id", parentID)
}

// NewDocumentNotFound reports an unknown document
func NewDocumentNotFound(documentID string) *DomainError {
	return ErrDocumentNotFound.instance().WithDetail("document_id", documentID)
}

// NewDocumentExists reports a duplicate document
func NewDocumentExists(documentID string) *DomainError {
	return ErrDocumentExists.instance().WithDetail("document_id", documentID)
}

// NewConcurrentModification reports a lost optimistic-version race
func NewConcurrentModification(documentID string, version int) *DomainError {
	return ErrConcurrentModification.instance().
		WithDetail("document_id", documentID).
		WithDetail("expected_version", version)
}

// NewInvalidArgument reports a malformed request value
func NewInvalidArgument(field, message string) *DomainError {
	err := ErrInvalidArgument.instance().WithDetail("field", field)
	err.Message = message
	return err
}

// NewDocumentTooLarge reports an edit that would exceed the block limit
func NewDocumentTooLarge(documentID string, limit int) *DomainError {
	return ErrDocumentTooLarge.instance().
		WithDetail("document_id", documentID).
		WithDetail("max_blocks", limit)
}

// InvariantViolation is raised by the graph validator. It carries both graphs
// so the failure can be reproduced offline.
type InvariantViolation struct {
	Message  string   `json:"message"`
	Problems []string `json:"problems"`
	OldGraph string   `json:"old_graph,omitempty"`
	NewGraph string   `json:"new_graph,omitempty"`
}

// Error implements the error interface
func (v *InvariantViolation) Error() string {
	if len(v.Problems) == 0 {
		return v.Message
	}
	return fmt.Sprintf("%s: %s", v.Message, strings.Join(v.Problems, "; "))
}

// Is lets errors.Is match against ErrInvariantViolation
func (v *InvariantViolation) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == ErrInvariantViolation.Code
}

// AsDomainError converts the violation for API responses. Graph dumps are
// left out on purpose; they can be large and contain user text.
func (v *InvariantViolation) AsDomainError() *DomainError {
	return ErrInvariantViolation.instance().
		WithDetail("problems", v.Problems).
		WithCause(v)
}
