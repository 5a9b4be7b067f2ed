package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns defaultField if the input is empty or not in the whitelist, which keeps
// caller-supplied strings out of ORDER BY.
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

// MerchantSortFields contains allowed sort fields for the public directory
var MerchantSortFields = map[string]bool{
	"created_at":    true,
	"business_name": true,
	"slug":          true,
}

// BookingSortFields contains allowed sort fields for merchant booking lists
var BookingSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"scheduled_at": true,
	"status":       true,
	"total":        true,
}
