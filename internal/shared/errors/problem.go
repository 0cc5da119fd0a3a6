// Package errors provides RFC 7807 Problem Details for HTTP APIs.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail represents an RFC 7807 Problem Details response.
// See: https://www.rfc-editor.org/rfc/rfc7807
type ProblemDetail struct {
	// Type is a URI reference that identifies the problem type.
	Type string `json:"type"`
	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`
	// Status is the HTTP status code for this occurrence.
	Status int `json:"status"`
	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`
	// Instance is a URI reference that identifies the specific occurrence.
	Instance string `json:"instance,omitempty"`
	// Extensions holds additional problem-specific properties.
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Error implements the error interface.
func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy with the given detail message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with an additional extension property.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	if p.Extensions == nil {
		p.Extensions = make(map[string]any)
	}
	p.Extensions[key] = value
	return p
}

// Problem types as URI references.
const (
	TypeValidation          = "/problems/validation-error"
	TypeNotFound            = "/problems/not-found"
	TypeConflict            = "/problems/conflict"
	TypeIdempotencyConflict = "/problems/idempotency-conflict"
	TypeVendorConflict      = "/problems/vendor-conflict"
	TypePromoRejected       = "/problems/promo-rejected"
	TypeScheduling          = "/problems/scheduling"
	TypeServiceUnavailable  = "/problems/service-unavailable"
	TypeInternal            = "/problems/internal-error"
	TypeBadRequest          = "/problems/bad-request"
	TypeForbidden           = "/problems/forbidden"
)

var (
	ErrNotFound = ProblemDetail{
		Type:   TypeNotFound,
		Title:  "Resource Not Found",
		Status: http.StatusNotFound,
	}

	ErrValidation = ProblemDetail{
		Type:   TypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
	}

	// ErrBadRequest is for bodies that cannot be decoded at all.
	ErrBadRequest = ProblemDetail{
		Type:   TypeBadRequest,
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
	}

	ErrConflict = ProblemDetail{
		Type:   TypeConflict,
		Title:  "Conflict",
		Status: http.StatusConflict,
	}

	// ErrIdempotencyConflict means an idempotency key was reused with another payload.
	ErrIdempotencyConflict = ProblemDetail{
		Type:   TypeIdempotencyConflict,
		Title:  "Idempotency Key Reused",
		Status: http.StatusConflict,
	}

	// ErrVendorConflict means the cart mixes items from several kitchens.
	ErrVendorConflict = ProblemDetail{
		Type:   TypeVendorConflict,
		Title:  "Items From Different Vendors",
		Status: http.StatusConflict,
	}

	ErrPromoRejected = ProblemDetail{
		Type:   TypePromoRejected,
		Title:  "Promo Code Rejected",
		Status: http.StatusUnprocessableEntity,
	}

	ErrScheduling = ProblemDetail{
		Type:   TypeScheduling,
		Title:  "Delivery Slot Unavailable",
		Status: http.StatusUnprocessableEntity,
	}

	// ErrServiceUnavailable means a dependency failed and the request may be retried.
	ErrServiceUnavailable = ProblemDetail{
		Type:   TypeServiceUnavailable,
		Title:  "Service Unavailable",
		Status: http.StatusServiceUnavailable,
	}

	// ErrForbidden means the caller lacks the credentials an operator endpoint requires.
	ErrForbidden = ProblemDetail{
		Type:   TypeForbidden,
		Title:  "Forbidden",
		Status: http.StatusForbidden,
	}

	ErrInternal = ProblemDetail{
		Type:   TypeInternal,
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
	}
)

// NewValidationProblem creates a validation error with field-level details.
func NewValidationProblem(fieldErrors map[string]string) ProblemDetail {
	return ErrValidation.WithExtension("fields", fieldErrors)
}

// NewNotFoundProblem creates a not found error for a specific resource.
func NewNotFoundProblem(resourceType string, identifier any) ProblemDetail {
	return ErrNotFound.
		WithDetail(fmt.Sprintf("%s with identifier '%v' not found", resourceType, identifier)).
		WithExtension("resourceType", resourceType).
		WithExtension("identifier", identifier)
}
