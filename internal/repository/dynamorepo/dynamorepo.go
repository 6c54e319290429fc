package dynamorepo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/JacobBogossian/DomainTracker/internal/model"
)

const (
	// maxBatchSize is the BatchWriteItem request limit
	maxBatchSize = 25

	// maxBatchRounds bounds how many times unprocessed items are resubmitted
	maxBatchRounds = 5
)

// batchRetryBaseDelay is the wait before the first resubmission, doubled each round
var batchRetryBaseDelay = 50 * time.Millisecond

// DynamoAPI is the subset of the DynamoDB client the repository uses
type DynamoAPI interface {
	dynamodb.ScanAPIClient
	dynamodb.QueryAPIClient
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoRepository is a DynamoDB implementation of model.EventStore
type DynamoRepository struct {
	client    DynamoAPI
	tableName string
}

// NewDynamoRepository creates a new DynamoDB-backed repository
func NewDynamoRepository(client DynamoAPI, tableName string) *DynamoRepository {
	return &DynamoRepository{
		client:    client,
		tableName: tableName,
	}
}

// ActiveRecords scans the whole table and folds the latest event per domain
func (r *DynamoRepository) ActiveRecords(ctx context.Context) ([]model.ActiveRecord, error) {
	var dtos []*DynamoDTO

	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan domain events: %w", err)
		}
		var items []*DynamoDTO
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal domain events: %w", err)
		}
		dtos = append(dtos, items...)
	}

	// Scan order is arbitrary; sort keys carry insertion order within a domain
	sortDTOs(dtos)
	return model.ActiveRecordsFromEvents(ToDomainList(dtos)), nil
}

// Append writes the events with BatchWriteItem.
// DynamoDB has no multi-batch transaction, so a failure partway through can leave
// earlier chunks written.
func (r *DynamoRepository) Append(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	requests := make([]types.WriteRequest, 0, len(events))
	for _, ev := range events {
		if !ev.Action.Valid() {
			return fmt.Errorf("invalid action %q for %s", ev.Action, ev.Domain)
		}
		if ev.Domain == "" {
			return fmt.Errorf("event domain cannot be empty")
		}
		if ev.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate event id: %w", err)
			}
			ev.ID = id.String()
		}

		item, err := attributevalue.MarshalMap(FromDomain(ev))
		if err != nil {
			return fmt.Errorf("failed to marshal domain event: %w", err)
		}
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	for start := 0; start < len(requests); start += maxBatchSize {
		end := min(start+maxBatchSize, len(requests))
		if err := r.writeBatch(ctx, requests[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// writeBatch submits one chunk, resubmitting unprocessed items
func (r *DynamoRepository) writeBatch(ctx context.Context, requests []types.WriteRequest) error {
	pending := requests
	for round := 0; round < maxBatchRounds; round++ {
		if round > 0 {
			timer := time.NewTimer(batchRetryBaseDelay << (round - 1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("failed to write domain events: %d items unprocessed: %w", len(pending), ctx.Err())
			case <-timer.C:
			}
		}

		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				r.tableName: pending,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to write domain events: %w", err)
		}

		pending = out.UnprocessedItems[r.tableName]
		if len(pending) == 0 {
			return nil
		}
	}
	return fmt.Errorf("failed to write domain events: %d items unprocessed after %d attempts", len(pending), maxBatchRounds)
}

// History queries every event stored under one domain, oldest first
func (r *DynamoRepository) History(ctx context.Context, domain string) ([]model.Event, error) {
	var dtos []*DynamoDTO

	paginator := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("pk = :domain"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":domain": &types.AttributeValueMemberS{Value: domain},
		},
		ScanIndexForward: aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query domain events: %w", err)
		}
		var items []*DynamoDTO
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal domain events: %w", err)
		}
		dtos = append(dtos, items...)
	}

	if len(dtos) == 0 {
		return nil, model.ErrNotFound
	}
	return ToDomainList(dtos), nil
}

// Close is a no-op; the SDK client holds no connections that need releasing
func (r *DynamoRepository) Close() error {
	return nil
}

func sortDTOs(dtos []*DynamoDTO) {
	sort.SliceStable(dtos, func(i, j int) bool {
		if dtos[i].PK != dtos[j].PK {
			return dtos[i].PK < dtos[j].PK
		}
		return dtos[i].SK < dtos[j].SK
	})
}
