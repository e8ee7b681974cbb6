// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Custom grade system errors
	CodeCustomSystemNameEmpty      Code = "CUSTOM_SYSTEM_NAME_EMPTY"
	CodeCustomSystemNameTooLong    Code = "CUSTOM_SYSTEM_NAME_TOO_LONG"
	CodeCustomSystemNoGrades       Code = "CUSTOM_SYSTEM_NO_GRADES"
	CodeCustomSystemGradeNameEmpty Code = "CUSTOM_SYSTEM_GRADE_NAME_EMPTY"
	CodeCustomSystemDuplicateGrade Code = "CUSTOM_SYSTEM_DUPLICATE_GRADE"
	CodeCustomSystemInvalidID      Code = "CUSTOM_SYSTEM_INVALID_ID"
	CodeCustomSystemBuiltinID      Code = "CUSTOM_SYSTEM_BUILTIN_ID"

	// Grade system errors
	CodeGradeSystemNotFound Code = "GRADE_SYSTEM_NOT_FOUND"
	CodeRegistryEmpty       Code = "GRADE_REGISTRY_EMPTY"

	// Identity errors
	CodeIdentityMissing Code = "IDENTITY_MISSING"

	// Request errors
	CodeInvalidRequest Code = "INVALID_REQUEST"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// BadRequest - validation failures, bad input
	case CodeCustomSystemNameEmpty,
		CodeCustomSystemNameTooLong,
		CodeCustomSystemNoGrades,
		CodeCustomSystemGradeNameEmpty,
		CodeCustomSystemDuplicateGrade,
		CodeCustomSystemInvalidID,
		CodeCustomSystemBuiltinID,
		CodeInvalidRequest:
		return http.StatusBadRequest

	// Unauthorized - no identity to scope the request
	case CodeIdentityMissing:
		return http.StatusUnauthorized

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeGradeSystemNotFound:
		return http.StatusNotFound

	default:
		return http.StatusInternalServerError
	}
}
