package scheduled

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/JacobBogossian/DomainTracker/internal/adapter/s3view"
	"github.com/JacobBogossian/DomainTracker/internal/config"
	"github.com/JacobBogossian/DomainTracker/internal/domainsdb"
	"github.com/JacobBogossian/DomainTracker/internal/logger"
	"github.com/JacobBogossian/DomainTracker/internal/reconcile"
	"github.com/JacobBogossian/DomainTracker/internal/repository"
)

// Handler holds the dependencies for the scheduled reconciliation Lambda handler
type Handler struct {
	log         *slog.Logger
	cfg         config.Config
	keyword     string
	storeTarget string
}

// NewHandler creates a new scheduled handler configured from the environment
func NewHandler() (*Handler, error) {
	defaults := config.Defaults()
	defaults.Log = logger.DefaultConfig()

	cfg, err := config.LoadWithDefaults(defaults, "", nil)
	if err != nil {
		return nil, err
	}

	// Initialize logger with executable name for filtering
	log := logger.NewLogger(cfg.Log, os.Stdout)
	log = logger.WithExecutable(log, "scheduler")
	logger.SetDefault(log)

	storeTarget := os.Getenv("STORE_TARGET")
	if storeTarget == "" {
		return nil, fmt.Errorf("STORE_TARGET environment variable is required")
	}
	kind, _, err := repository.ParseTarget(storeTarget)
	if err != nil {
		return nil, err
	}
	log.Info("Using event store", slog.String("kind", string(kind)))

	if bucket := os.Getenv("PUBLISH_BUCKET"); bucket != "" {
		cfg.Publish.Bucket = bucket
	}
	if key := os.Getenv("PUBLISH_KEY"); key != "" {
		cfg.Publish.Key = key
	}
	if cfg.Publish.Bucket != "" {
		log.Info("Publishing active set", slog.String("bucket", cfg.Publish.Bucket))
	}

	return New(log, cfg, os.Getenv("SEARCH_KEYWORD"), storeTarget), nil
}

// New creates a handler from explicit settings.
// keyword may be empty if every invocation event carries one.
func New(log *slog.Logger, cfg config.Config, keyword, storeTarget string) *Handler {
	return &Handler{
		log:         log,
		cfg:         cfg,
		keyword:     keyword,
		storeTarget: storeTarget,
	}
}

// Handle runs one reconciliation per scheduled event.
// An event field "keyword" overrides SEARCH_KEYWORD.
func (h *Handler) Handle(ctx context.Context, event map[string]interface{}) error {
	// Create a logger with Lambda context
	requestLogger := logger.WithLambda(h.log,
		os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
		os.Getenv("AWS_LAMBDA_FUNCTION_VERSION"),
		"") // No request ID for scheduled events

	requestLogger.Info("Scheduled Lambda triggered", slog.Any("event", event))

	keyword := h.keyword
	if kw, ok := event["keyword"].(string); ok && strings.TrimSpace(kw) != "" {
		keyword = kw
	}
	if keyword == "" {
		requestLogger.Error("No search keyword configured", slog.Bool("notify", true))
		return fmt.Errorf("SEARCH_KEYWORD environment variable or event keyword is required")
	}
	requestLogger = logger.WithKeyword(requestLogger, keyword)

	store, err := repository.NewEventStore(ctx, h.storeTarget, repository.Options{
		DynamoEndpoint: h.cfg.DynamoEndpoint,
		Logger:         requestLogger,
	})
	if err != nil {
		requestLogger.Error("Failed to open event store",
			slog.Bool("notify", true),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to open event store: %w", err)
	}
	defer store.Close()

	var publisher reconcile.Publisher
	if h.cfg.Publish.Bucket != "" {
		view, err := s3view.Open(ctx, h.cfg.Publish.Bucket, h.cfg.Publish.Key, requestLogger)
		if err != nil {
			requestLogger.Error("Failed to set up publisher",
				slog.Bool("notify", true),
				slog.String("error", err.Error()))
			return err
		}
		publisher = view
	}

	fetcher := domainsdb.NewClient(nil, h.cfg.API)
	reconciler := reconcile.NewReconciler(fetcher, store, publisher, requestLogger, h.cfg.Reconcile)

	result, err := reconciler.Run(ctx, keyword)
	if errors.Is(err, reconcile.ErrEmptySnapshot) {
		// Already logged at WARN; retrying would not help
		return nil
	}
	if err != nil {
		requestLogger.Error("Reconciliation failed",
			slog.Bool("notify", true),
			slog.String("error", err.Error()))
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	requestLogger.Info("Reconciliation complete",
		slog.Int("snapshot_size", result.SnapshotSize),
		slog.Int("added", result.Added),
		slog.Int("removed", result.Removed),
		slog.Bool("published", result.Published))
	return nil
}
