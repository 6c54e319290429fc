package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/JacobBogossian/DomainTracker/internal/model"
	"github.com/JacobBogossian/DomainTracker/internal/repository/badgerrepo"
	"github.com/JacobBogossian/DomainTracker/internal/repository/dynamorepo"
	"github.com/JacobBogossian/DomainTracker/internal/repository/memrepo"
	"github.com/JacobBogossian/DomainTracker/internal/repository/pgrepo"
)

var ErrUnsupportedTarget = errors.New("unsupported store target")

// Kind names the backend a target string selects
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindDynamo   Kind = "dynamodb"
	KindBadger   Kind = "badger"
	KindFile     Kind = "file"
	KindMemory   Kind = "memory"
)

// Options holds settings that do not fit in the target string
type Options struct {
	// DynamoEndpoint is an optional custom DynamoDB endpoint URL
	DynamoEndpoint string

	// Logger receives a line naming the chosen backend; nil discards it
	Logger *slog.Logger
}

// ParseTarget works out which backend a target string names, and the
// backend-specific remainder (DSN, table name, directory or file path).
func ParseTarget(target string) (Kind, string, error) {
	switch {
	case strings.HasPrefix(target, "postgres://"), strings.HasPrefix(target, "postgresql://"):
		return KindPostgres, target, nil
	case strings.HasPrefix(target, "dynamodb://"):
		table := strings.TrimPrefix(target, "dynamodb://")
		if table == "" {
			return "", "", fmt.Errorf("%w: dynamodb target needs a table name", ErrUnsupportedTarget)
		}
		return KindDynamo, table, nil
	case strings.HasPrefix(target, "badger://"):
		dir := strings.TrimPrefix(target, "badger://")
		if dir == "" {
			return "", "", fmt.Errorf("%w: badger target needs a directory", ErrUnsupportedTarget)
		}
		return KindBadger, dir, nil
	case strings.HasPrefix(target, "file://"):
		path := strings.TrimPrefix(target, "file://")
		if path == "" {
			return "", "", fmt.Errorf("%w: file target needs a path", ErrUnsupportedTarget)
		}
		return KindFile, path, nil
	case target == "memory://":
		return KindMemory, "", nil
	case strings.HasSuffix(target, ".json"):
		return KindFile, target, nil
	case strings.Contains(target, "="):
		// libpq key=value connection string
		return KindPostgres, target, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnsupportedTarget, target)
}

// NewEventStore opens the event store a target string names.
// Failures to reach the backend wrap model.ErrStoreConnect.
func NewEventStore(ctx context.Context, target string, opts Options) (model.EventStore, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	kind, rest, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindPostgres:
		repo, err := pgrepo.Connect(ctx, rest)
		if err != nil {
			return nil, err
		}
		log.Debug("Using PostgreSQL event store")
		return repo, nil

	case KindDynamo:
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load AWS config: %v", model.ErrStoreConnect, err)
		}

		var client *dynamodb.Client
		if opts.DynamoEndpoint != "" {
			client = dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
				o.BaseEndpoint = &opts.DynamoEndpoint
			})
			log.Debug("Using DynamoDB endpoint", slog.String("endpoint", opts.DynamoEndpoint))
		} else {
			client = dynamodb.NewFromConfig(awsCfg)
		}

		log.Debug("Using DynamoDB event store", slog.String("table", rest))
		return dynamorepo.NewDynamoRepository(client, rest), nil

	case KindBadger:
		repo, err := badgerrepo.Open(rest)
		if err != nil {
			return nil, err
		}
		log.Debug("Using Badger event store", slog.String("path", rest))
		return repo, nil

	case KindFile:
		repo, err := memrepo.NewMemoryRepositoryWithPersistence(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open %s: %v", model.ErrStoreConnect, rest, err)
		}
		log.Debug("Using JSON event store", slog.String("path", rest))
		return repo, nil

	default:
		log.Debug("Using in-memory event store")
		return memrepo.NewMemoryRepository(), nil
	}
}
