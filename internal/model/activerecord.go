package model

import "time"

// ActiveRecord is one row of the active set: a domain whose latest event is an addition.
// Since is the timestamp of that addition.
type ActiveRecord struct {
	ID     string
	Domain string
	Since  time.Time
}

// ActiveRecordsFromEvents derives the active set from an event log.
//
// For each domain the event with the greatest timestamp wins; when two events share a
// timestamp the one appearing later in the slice wins, so callers must pass events in
// insertion order. A domain is active iff its winning event is ActionAdded.
func ActiveRecordsFromEvents(events []Event) []ActiveRecord {
	latest := make(map[string]Event)
	var order []string

	for _, ev := range events {
		current, seen := latest[ev.Domain]
		if !seen {
			order = append(order, ev.Domain)
			latest[ev.Domain] = ev
			continue
		}
		if !ev.Timestamp.Before(current.Timestamp) {
			latest[ev.Domain] = ev
		}
	}

	records := make([]ActiveRecord, 0, len(order))
	for _, domain := range order {
		ev := latest[domain]
		if ev.Action != ActionAdded {
			continue
		}
		records = append(records, ActiveRecord{
			ID:     ev.ID,
			Domain: ev.Domain,
			Since:  ev.Timestamp,
		})
	}
	return records
}

// ActiveSet collapses active records into a DomainSet keyed by the stored domain
func ActiveSet(records []ActiveRecord) DomainSet {
	set := make(DomainSet, len(records))
	for _, record := range records {
		set.Add(record.Domain)
	}
	return set
}
