package domain

import "strings"

// DefaultCategories seed every organization's category list.
var DefaultCategories = []string{"general", "newsletter", "promotion", "announcement"}

// FallbackCategory is what a selection falls back to when its category
// is deleted.
const FallbackCategory = "general"

// NormalizeCategory lowercases and trims a label. Categories are stored
// and compared in this form to tolerate inconsistent casing from the
// backend.
func NormalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
