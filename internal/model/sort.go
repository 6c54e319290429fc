package model

import "sort"

// SortBy specifies the field and order for sorting active records
type SortBy string

const (
	SortByDomain  SortBy = "domain"
	SortBySince   SortBy = "since"
	SortByDefault SortBy = "" // Default sort: domain
)

// SortRecords sorts active records in place.
// "since" puts the most recently activated domains first; anything else sorts by domain.
func SortRecords(records []ActiveRecord, sortBy string) {
	switch SortBy(sortBy) {
	case SortBySince:
		sort.SliceStable(records, func(i, j int) bool {
			if !records[i].Since.Equal(records[j].Since) {
				return records[i].Since.After(records[j].Since)
			}
			return records[i].Domain < records[j].Domain
		})
	default:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Domain < records[j].Domain
		})
	}
}

// SortEvents orders events oldest first, keeping insertion order for equal timestamps
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
