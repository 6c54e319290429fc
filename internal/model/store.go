package model

import (
	"context"
	"errors"
)

var (
	// ErrStoreConnect marks failures to reach the event store at all, as opposed to
	// failures of individual reads or writes on an open store.
	ErrStoreConnect = errors.New("could not connect to event store")
	ErrNotFound     = errors.New("domain not found")
)

// EventStore is the append-only log of domain events
type EventStore interface {
	// ActiveRecords returns every domain whose latest event is an addition
	ActiveRecords(ctx context.Context) ([]ActiveRecord, error)

	// Append persists the events in a single transaction
	Append(ctx context.Context, events []Event) error

	// History returns every event for one domain, oldest first.
	// Returns ErrNotFound if the domain has never been recorded.
	History(ctx context.Context, domain string) ([]Event, error)

	// Close releases the store's connections
	Close() error
}
