package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Pricing engine errors
var (
	// ErrValidation is matched by every ValidationError
	ErrValidation = errors.New("validation failed")

	// ErrAgreementResolutionAmbiguous marks a V2 tie that survived priority, specificity and recency.
	// It is logged, never returned to callers.
	ErrAgreementResolutionAmbiguous = errors.New("agreement resolution ambiguous")

	// ErrNoApplicableRule is returned when no V1 pricing rule exists at any fallback tier
	ErrNoApplicableRule = errors.New("no applicable pricing rule")

	// ErrTenantIsolationViolation is returned when tenant context is missing or mismatched
	ErrTenantIsolationViolation = errors.New("tenant isolation violation")

	// ErrLockConflict is returned when modifying items of a locked pricing run
	ErrLockConflict = errors.New("pricing run is locked")

	// ErrApprovalStateConflict is returned for a transition not allowed from the current status
	ErrApprovalStateConflict = errors.New("approval state conflict")

	// ErrPermissionDenied is returned when the actor lacks the required permission
	ErrPermissionDenied = errors.New("permission denied")

	// ErrRegulatoryLookupFailure is returned when the duty rate lookup fails
	ErrRegulatoryLookupFailure = errors.New("regulatory lookup failed")

	// ErrCatalogLookupFailure is returned when the material catalog cannot price an item
	ErrCatalogLookupFailure = errors.New("catalog lookup failed")

	// ErrNoAllowedOrigin is returned when restrictions remove every sourcing origin
	ErrNoAllowedOrigin = errors.New("no allowed sourcing origin")

	// ErrAuditImmutable is returned when an approval event would be changed or removed
	ErrAuditImmutable = errors.New("approval history is append-only")

	// ErrPurgeNotAllowed is returned when the admin purge capability is not enabled
	ErrPurgeNotAllowed = errors.New("audit purge not allowed in this environment")
)

// Not found errors
var (
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrRFQNotFound        = errors.New("rfq not found")
	ErrPricingRunNotFound = errors.New("pricing run not found")
	ErrRunItemNotFound    = errors.New("pricing run item not found")
	ErrSnapshotNotFound   = errors.New("pricing run snapshot not found")
)

// ValidationError collects field level problems found before any work is done
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates an empty ValidationError
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

// Add records a problem for field
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = message
}

// HasErrors reports whether any problem was recorded
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// APIError represents a standardized API error with HTTP status code
type APIError struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// ValidationMessages maps validator tags to user facing messages
var ValidationMessages = map[string]string{
	"required": "This field is required",
	"max":      "Exceeds maximum length",
	"min":      "Below minimum length",
	"gt":       "Must be greater than minimum value",
	"gte":      "Must be greater than or equal to minimum value",
	"uuid":     "Must be a valid UUID",
	"oneof":    "Must be one of the allowed values",
	"len":      "Must be exactly the specified length",
	"dive":     "Contains an invalid element",
}

// GetValidationMessage returns a human-readable message for a validation tag
func GetValidationMessage(tag string) string {
	if msg, ok := ValidationMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}

// Common error types for RFC 7807 Problem Details
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeNotFound      = "not_found"
	ErrorTypeBadRequest    = "bad_request"
	ErrorTypeConflict      = "conflict"
	ErrorTypeUnauthorized  = "unauthorized"
	ErrorTypeForbidden     = "forbidden"
	ErrorTypeUnprocessable = "unprocessable"
	ErrorTypeUpstream      = "upstream_error"
	ErrorTypeInternal      = "internal_error"
)

type purgeGrantKey struct{}

// WithPurgeGrant marks ctx as carrying an audit purge grant, which lets approval events be deleted
func WithPurgeGrant(ctx context.Context, grantID uuid.UUID) context.Context {
	return context.WithValue(ctx, purgeGrantKey{}, grantID)
}
