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

// ValidateSortField validates the sort field against a whitelist of allowed
// fields to prevent SQL injection. Returns the defaultField if the input is
// invalid, empty, or not in the whitelist.
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

// AlertSortFields contains allowed sort fields for collection alerts
var AlertSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"days_overdue": true,
	"amount":       true,
	"severity":     true,
	"status":       true,
	"customer_id":  true,
	"resolved_at":  true,
}
