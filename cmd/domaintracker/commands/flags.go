package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JacobBogossian/DomainTracker/internal/config"
	"github.com/JacobBogossian/DomainTracker/internal/logger"
	"github.com/JacobBogossian/DomainTracker/internal/model"
	"github.com/JacobBogossian/DomainTracker/internal/repository"
)

// addConfigFlags adds the flags every command shares
func addConfigFlags(cmd *cobra.Command) {
	defaults := config.Defaults()

	cmd.PersistentFlags().String("config", "", "Config file (default ./domaintracker.yaml if present)")
	cmd.PersistentFlags().String("log-file", defaults.Log.FilePath, "Append log entries to this file; empty logs to stdout")
	cmd.PersistentFlags().String("log-level", defaults.Log.Level, "Log level: debug, info, warn, or error")
	cmd.PersistentFlags().String("log-format", defaults.Log.Format, "Log format: text or json")
	cmd.PersistentFlags().String("dynamodb-endpoint", "", "DynamoDB endpoint URL (optional, uses AWS SDK default if not specified)")
}

// addReconcileFlags adds the flags that tune a reconciliation run
func addReconcileFlags(cmd *cobra.Command) {
	defaults := config.Defaults()

	cmd.Flags().String("api-url", defaults.API.BaseURL, "Base URL of the domain search API")
	cmd.Flags().Int("page", defaults.API.Page, "Result page to request")
	cmd.Flags().Int("limit", defaults.API.Limit, "Results per page")
	cmd.Flags().Duration("timeout", defaults.API.Timeout, "Search request timeout")
	cmd.Flags().BoolP("dry-run", "r", false, "Show what would be changed without making changes")
	cmd.Flags().Bool("allow-empty-snapshot", false, "Record removals even when the search returns no domains")
	cmd.Flags().Bool("normalize", false, "Compare domains case-insensitively after IDNA mapping")
	cmd.Flags().String("publish-bucket", "", "S3 bucket to publish the active set to after a run")
	cmd.Flags().String("publish-key", "", "S3 key for the published active set (default active/<keyword>.json)")
}

// session is what a command needs once flags are parsed
type session struct {
	cfg      config.Config
	log      *slog.Logger
	store    model.EventStore
	closeLog func() error
}

func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.Warn("Failed to close event store", slog.String("error", err.Error()))
		}
	}
	s.closeLog()
}

// openSession loads configuration, opens the log and connects to the store named by target.
// Returned errors carry their exit code.
func openSession(cmd *cobra.Command, target string) (*session, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, ExitWithCode(ExitFailure, err)
	}

	log, closeLog, err := logger.Open(cfg.Log)
	if err != nil {
		return nil, ExitWithCode(ExitFailure, err)
	}
	log = logger.WithExecutable(log, "domaintracker")
	if cfg.ConfigFile != "" {
		log.Debug("Loaded config file", slog.String("path", cfg.ConfigFile))
	}

	store, err := repository.NewEventStore(cmd.Context(), target, repository.Options{
		DynamoEndpoint: cfg.DynamoEndpoint,
		Logger:         log,
	})
	if err != nil {
		log.Error("Failed to open event store", slog.String("error", err.Error()))
		closeLog()
		return nil, ExitWithCode(ExitCodeFor(err), fmt.Errorf("failed to open event store: %w", err))
	}

	return &session{
		cfg:      cfg,
		log:      log,
		store:    store,
		closeLog: closeLog,
	}, nil
}
