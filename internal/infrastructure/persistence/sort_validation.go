package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// StudentSortFields contains allowed sort fields for students
var StudentSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"name":            true,
	"stage":           true,
	"level":           true,
	"enrollment_date": true,
}

// BatchSortFields contains allowed sort fields for batches
var BatchSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"stage":      true,
	"level":      true,
	"start_date": true,
	"status":     true,
}

// CourseSortFields contains allowed sort fields for course configurations
var CourseSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"stage":       true,
	"level":       true,
	"monthly_fee": true,
}

// ObligationSortFields contains allowed sort fields for fee obligations
var ObligationSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"fee_period": true,
	"due_date":   true,
	"fee_amount": true,
}

// LedgerSortFields contains allowed sort fields for credit ledger entries
var LedgerSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"entry_date": true,
	"entry_type": true,
	"amount":     true,
}
