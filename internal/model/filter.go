package model

import (
	"strings"
	"time"
)

// RecordFilter contains criteria for filtering active records.
// All criteria are optional; only non-empty values are applied.
// Between fields, criteria are combined with AND logic.
type RecordFilter struct {
	// Contains keeps domains containing any of these substrings (case-insensitive, OR within list)
	Contains []string

	// SinceAfter keeps records activated strictly after this time
	SinceAfter time.Time
}

// FilterRecords filters active records based on the provided criteria.
// Returns a new slice containing only records that match the filter.
func FilterRecords(records []ActiveRecord, filter RecordFilter) []ActiveRecord {
	if len(filter.Contains) == 0 && filter.SinceAfter.IsZero() {
		return records
	}

	needles := make([]string, 0, len(filter.Contains))
	for _, needle := range filter.Contains {
		if needle != "" {
			needles = append(needles, strings.ToLower(needle))
		}
	}

	var filtered []ActiveRecord
	for _, record := range records {
		if len(needles) > 0 && !containsAny(strings.ToLower(record.Domain), needles) {
			continue
		}

		if !filter.SinceAfter.IsZero() && !record.Since.After(filter.SinceAfter) {
			continue
		}

		filtered = append(filtered, record)
	}

	return filtered
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
