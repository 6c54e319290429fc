package dynamorepo

import (
	"strings"
	"time"

	"github.com/JacobBogossian/DomainTracker/internal/model"
)

// sortKeyTimeFormat is fixed-width so sort keys order lexically by time
const sortKeyTimeFormat = "2006-01-02T15:04:05.000000000Z"

// DynamoDTO represents the persistence layer DTO for DynamoDB
// It maps an event to DynamoDB's key structure where:
// - PK (partition key) is the Domain
// - SK (sort key) is the UTC timestamp followed by the event ID
type DynamoDTO struct {
	PK        string       `dynamodbav:"pk"` // Partition Key - maps from Domain
	SK        string       `dynamodbav:"sk"` // Sort Key - timestamp#id
	ID        string       `dynamodbav:"ID"`
	Action    model.Action `dynamodbav:"Action"`
	Timestamp time.Time    `dynamodbav:"Timestamp"`
}

// SortKey builds the sort key for an event.
// Events for one domain sort by timestamp, then by ID for events sharing a timestamp.
func SortKey(ts time.Time, id string) string {
	return ts.UTC().Format(sortKeyTimeFormat) + "#" + id
}

// ToDomain converts a DynamoDTO to a domain model Event
func (dto *DynamoDTO) ToDomain() model.Event {
	id := dto.ID
	if id == "" {
		if _, suffix, ok := strings.Cut(dto.SK, "#"); ok {
			id = suffix
		}
	}
	return model.Event{
		ID:        id,
		Domain:    dto.PK,
		Action:    dto.Action,
		Timestamp: dto.Timestamp,
	}
}

// FromDomain creates a DynamoDTO from a domain model Event.
// The event must already carry its ID.
func FromDomain(ev model.Event) *DynamoDTO {
	return &DynamoDTO{
		PK:        ev.Domain,
		SK:        SortKey(ev.Timestamp, ev.ID),
		ID:        ev.ID,
		Action:    ev.Action,
		Timestamp: ev.Timestamp.UTC(),
	}
}

// ToDomainList converts a slice of DynamoDTOs to domain model Events
func ToDomainList(dtos []*DynamoDTO) []model.Event {
	events := make([]model.Event, len(dtos))
	for i, dto := range dtos {
		events[i] = dto.ToDomain()
	}
	return events
}

// FromDomainList creates a slice of DynamoDTOs from domain model Events
func FromDomainList(events []model.Event) []*DynamoDTO {
	dtos := make([]*DynamoDTO, len(events))
	for i, ev := range events {
		dtos[i] = FromDomain(ev)
	}
	return dtos
}
