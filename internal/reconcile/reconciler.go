package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JacobBogossian/DomainTracker/internal/model"
)

// ErrEmptySnapshot is returned when the search API reported nothing while domains are
// still active. Reconciling would deactivate every tracked domain, so the run is skipped
// unless Options.AllowEmptySnapshot is set.
var ErrEmptySnapshot = errors.New("search returned no domains while active domains exist")

// Stage names the step of a run that failed
type Stage string

const (
	StageFetch        Stage = "fetch"
	StageRead         Stage = "read"
	StageWriteAdded   Stage = "write-added"
	StageWriteRemoved Stage = "write-removed"
	StagePublish      Stage = "publish"
)

// StageError wraps a collaborator failure with the step it happened in
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Fetcher returns the domains currently reported for a keyword
type Fetcher interface {
	Search(ctx context.Context, keyword string) (model.DomainSet, error)
}

// Publisher receives the active set after a run that wrote events
type Publisher interface {
	Publish(ctx context.Context, keyword string, generatedAt time.Time, records []model.ActiveRecord) error
}

// Options tunes a Reconciler
type Options struct {
	// AllowEmptySnapshot lets an empty search result deactivate every active domain
	AllowEmptySnapshot bool
	// Normalize compares domains with NormalizeDomain instead of exactly
	Normalize bool
	// DryRun computes the plan without writing
	DryRun bool
}

// Result describes one reconciliation run
type Result struct {
	Keyword      string
	Timestamp    time.Time
	SnapshotSize int
	ActiveSize   int
	Plan         Plan
	Added        int
	Removed      int
	Skipped      bool
	DryRun       bool
	Published    bool
}

// Reconciler runs fetch, read, diff, then writes additions followed by removals
type Reconciler struct {
	fetcher   Fetcher
	store     model.EventStore
	publisher Publisher
	log       *slog.Logger
	opts      Options
	now       func() time.Time
}

// NewReconciler creates a reconciler. publisher may be nil.
func NewReconciler(fetcher Fetcher, store model.EventStore, publisher Publisher, log *slog.Logger, opts Options) *Reconciler {
	return &Reconciler{
		fetcher:   fetcher,
		store:     store,
		publisher: publisher,
		log:       log,
		opts:      opts,
		now:       time.Now,
	}
}

// SetClock replaces the time source
func (r *Reconciler) SetClock(now func() time.Time) {
	r.now = now
}

// Run performs one reconciliation for keyword.
//
// The whole run shares one timestamp. Additions and removals are written in separate
// store calls; if the removals write fails the additions stay committed.
// A skipped empty-snapshot run returns both the Result and ErrEmptySnapshot.
func (r *Reconciler) Run(ctx context.Context, keyword string) (*Result, error) {
	result := &Result{
		Keyword:   keyword,
		Timestamp: r.now().UTC(),
		DryRun:    r.opts.DryRun,
	}

	snapshot, err := r.fetcher.Search(ctx, keyword)
	if err != nil {
		return result, &StageError{Stage: StageFetch, Err: err}
	}
	result.SnapshotSize = snapshot.Len()

	records, err := r.store.ActiveRecords(ctx)
	if err != nil {
		return result, &StageError{Stage: StageRead, Err: err}
	}
	active := model.ActiveSet(records)
	result.ActiveSize = active.Len()

	r.log.Debug("Fetched snapshot and active set",
		slog.Int("snapshot_size", result.SnapshotSize),
		slog.Int("active_size", result.ActiveSize))

	if snapshot.Len() == 0 && active.Len() > 0 && !r.opts.AllowEmptySnapshot {
		result.Skipped = true
		r.log.Warn("Search returned no domains, skipping reconciliation",
			slog.Int("active_size", result.ActiveSize))
		return result, ErrEmptySnapshot
	}

	var key KeyFunc
	if r.opts.Normalize {
		key = NormalizeDomain
	}
	result.Plan = Diff(snapshot, active, key)

	if r.opts.DryRun {
		r.log.Info("Dry run, no events written",
			slog.Int("additions", len(result.Plan.Additions)),
			slog.Int("removals", len(result.Plan.Removals)))
		return result, nil
	}

	result.Added, err = Apply(ctx, r.store, r.log, result.Plan.Additions, model.ActionAdded, result.Timestamp)
	if err != nil {
		return result, &StageError{Stage: StageWriteAdded, Err: err}
	}

	result.Removed, err = Apply(ctx, r.store, r.log, result.Plan.Removals, model.ActionRemoved, result.Timestamp)
	if err != nil {
		return result, &StageError{Stage: StageWriteRemoved, Err: err}
	}

	if r.publisher != nil && !result.Plan.IsEmpty() {
		if err := r.publish(ctx, result); err != nil {
			return result, &StageError{Stage: StagePublish, Err: err}
		}
		result.Published = true
	}

	return result, nil
}

func (r *Reconciler) publish(ctx context.Context, result *Result) error {
	records, err := r.store.ActiveRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to re-read active set: %w", err)
	}
	model.SortRecords(records, string(model.SortByDomain))
	return r.publisher.Publish(ctx, result.Keyword, result.Timestamp, records)
}

// Apply appends one event per domain with the shared action and timestamp in a single
// store call, and logs one line for the write. No call is made for an empty list.
func Apply(ctx context.Context, store model.EventStore, log *slog.Logger, domains []string, action model.Action, ts time.Time) (int, error) {
	if len(domains) == 0 {
		log.Debug("Nothing to record", slog.String("action", string(action)))
		return 0, nil
	}

	if err := store.Append(ctx, model.NewEvents(domains, action, ts)); err != nil {
		return 0, fmt.Errorf("failed to record %s events: %w", action, err)
	}

	log.Info("Recorded domain events",
		slog.Time("timestamp", ts),
		slog.String("action", string(action)),
		slog.Int("count", len(domains)))

	return len(domains), nil
}
