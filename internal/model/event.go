package model

import "time"

// Action is the kind of change recorded for a domain
type Action string

const (
	ActionAdded   Action = "Added"
	ActionRemoved Action = "Removed"
)

// Valid reports whether the action is one the event log accepts
func (a Action) Valid() bool {
	return a == ActionAdded || a == ActionRemoved
}

// Event is an immutable fact about a domain appearing in or leaving the search results.
// ID is assigned by the store on append and is empty on events that have not been persisted.
type Event struct {
	ID        string
	Domain    string
	Action    Action
	Timestamp time.Time
}

// NewEvents builds one event per domain, all sharing the same action and timestamp
func NewEvents(domains []string, action Action, ts time.Time) []Event {
	events := make([]Event, len(domains))
	for i, domain := range domains {
		events[i] = Event{
			Domain:    domain,
			Action:    action,
			Timestamp: ts,
		}
	}
	return events
}

// EventColumns splits events into parallel domain, action and timestamp slices,
// the shape bulk inserts take.
func EventColumns(events []Event) (domains []string, actions []string, timestamps []time.Time) {
	domains = make([]string, len(events))
	actions = make([]string, len(events))
	timestamps = make([]time.Time, len(events))
	for i, ev := range events {
		domains[i] = ev.Domain
		actions[i] = string(ev.Action)
		timestamps[i] = ev.Timestamp
	}
	return domains, actions, timestamps
}
