package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes for the fee engine
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeOverpaymentRejected is used when a payment exceeds the fee amount
	ErrCodeOverpaymentRejected = "ERR_OVERPAYMENT_REJECTED"
	// ErrCodeDuplicateReference is used when a transaction reference collides across students
	ErrCodeDuplicateReference = "ERR_DUPLICATE_REFERENCE"
	// ErrCodeNonConsecutivePeriods is used when a referenced bulk payment skips months
	ErrCodeNonConsecutivePeriods = "ERR_NON_CONSECUTIVE_PERIODS"
	// ErrCodeNoBatchAssigned is used when an operation requires a batch assignment
	ErrCodeNoBatchAssigned = "ERR_NO_BATCH_ASSIGNED"
	// ErrCodeCapacityExceeded is used when a batch transfer targets a full batch
	ErrCodeCapacityExceeded = "ERR_CAPACITY_EXCEEDED"
	// ErrCodeStageLevelMismatch is used when student and batch stage/level differ
	ErrCodeStageLevelMismatch = "ERR_STAGE_LEVEL_MISMATCH"
	// ErrCodeBatchClosed is used when a transfer targets a closed batch
	ErrCodeBatchClosed = "ERR_BATCH_CLOSED"
	// ErrCodeMissingAnchor is used when a student has no fee-cycle anchor
	ErrCodeMissingAnchor = "ERR_MISSING_ANCHOR"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:          http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:          http.StatusUnprocessableEntity,
	ErrCodeOverpaymentRejected:   http.StatusUnprocessableEntity,
	ErrCodeNonConsecutivePeriods: http.StatusUnprocessableEntity,
	ErrCodeNoBatchAssigned:       http.StatusUnprocessableEntity,
	ErrCodeCapacityExceeded:      http.StatusUnprocessableEntity,
	ErrCodeStageLevelMismatch:    http.StatusUnprocessableEntity,
	ErrCodeBatchClosed:           http.StatusUnprocessableEntity,
	ErrCodeMissingAnchor:         http.StatusUnprocessableEntity,

	// Reference collisions are conflicts, not business failures
	ErrCodeDuplicateReference: http.StatusConflict,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to their API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                ErrCodeNotFound,
	"ALREADY_EXISTS":           ErrCodeAlreadyExists,
	"INVALID_INPUT":            ErrCodeInvalidInput,
	"INVALID_STATE":            ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT":     ErrCodeConcurrencyConflict,
	"OVERPAYMENT_REJECTED":     ErrCodeOverpaymentRejected,
	"DUPLICATE_REFERENCE":      ErrCodeDuplicateReference,
	"NON_CONSECUTIVE_PERIODS":  ErrCodeNonConsecutivePeriods,
	"NO_BATCH_ASSIGNED":        ErrCodeNoBatchAssigned,
	"CAPACITY_EXCEEDED":        ErrCodeCapacityExceeded,
	"STAGE_LEVEL_MISMATCH":     ErrCodeStageLevelMismatch,
	"BATCH_CLOSED":             ErrCodeBatchClosed,
	"MISSING_ANCHOR":           ErrCodeMissingAnchor,
	"INVALID_PERIOD":           ErrCodeInvalidInput,
	"INVALID_NAME":             ErrCodeInvalidInput,
	"INVALID_STAGE_LEVEL":      ErrCodeInvalidInput,
	"INVALID_FEE":              ErrCodeInvalidInput,
	"INVALID_DURATION":         ErrCodeInvalidInput,
	"INVALID_CAPACITY":         ErrCodeInvalidInput,
	"INVALID_START_DATE":       ErrCodeInvalidInput,
	"INVALID_ENROLLMENT_DATE":  ErrCodeInvalidInput,
	"INVALID_DUE_DATE":         ErrCodeInvalidInput,
	"INVALID_AMOUNT":           ErrCodeInvalidInput,
	"INVALID_PAYMENT":          ErrCodeInvalidInput,
	"INVALID_STUDENT":          ErrCodeInvalidInput,
	"INVALID_ENTRY_TYPE":       ErrCodeInvalidInput,
	"INVALID_BALANCE":          ErrCodeInvalidInput,
	"BAD_REQUEST":              ErrCodeBadRequest,
	"INTERNAL_ERROR":           ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
