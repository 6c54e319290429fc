//go:build integration

package pgrepo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/JacobBogossian/DomainTracker/internal/model"
	"github.com/JacobBogossian/DomainTracker/internal/repository/pgrepo"
)

type PostgresRepositorySuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	dsn       string
	repo      *pgrepo.PostgresRepository
}

func TestPostgresRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRepositorySuite))
}

func (s *PostgresRepositorySuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("domaintracker"),
		tcpostgres.WithUsername("tracker"),
		tcpostgres.WithPassword("tracker"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	s.dsn, err = container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.pool, err = pgxpool.New(ctx, s.dsn)
	s.Require().NoError(err)

	_, err = s.pool.Exec(ctx, pgrepo.Schema)
	s.Require().NoError(err)

	s.repo = pgrepo.New(s.pool)
}

func (s *PostgresRepositorySuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		_ = testcontainers.TerminateContainer(s.container)
	}
}

func (s *PostgresRepositorySuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), "TRUNCATE domain_records RESTART IDENTITY")
	s.Require().NoError(err)
}

func (s *PostgresRepositorySuite) activeDomains() []string {
	records, err := s.repo.ActiveRecords(context.Background())
	s.Require().NoError(err)
	return model.ActiveSet(records).Sorted()
}

func (s *PostgresRepositorySuite) TestAppendUsesOneCallForManyDomains() {
	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	err := s.repo.Append(ctx, model.NewEvents([]string{"a.com", "b.com", "o'brien.com"}, model.ActionAdded, ts))
	s.Require().NoError(err)

	s.Equal([]string{"a.com", "b.com", "o'brien.com"}, s.activeDomains())

	var count int
	s.Require().NoError(s.pool.QueryRow(ctx, `SELECT count(*) FROM domain_records WHERE "timestamp" = $1`, ts).Scan(&count))
	s.Equal(3, count, "all events from one call share the timestamp")
}

func (s *PostgresRepositorySuite) TestLatestEventDecidesActivity() {
	ctx := context.Background()
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(s.repo.Append(ctx, model.NewEvents([]string{"a.com", "b.com"}, model.ActionAdded, t0)))
	s.Require().NoError(s.repo.Append(ctx, model.NewEvents([]string{"a.com"}, model.ActionRemoved, t0.Add(time.Hour))))

	s.Equal([]string{"b.com"}, s.activeDomains())

	records, err := s.repo.ActiveRecords(ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.True(records[0].Since.Equal(t0))
	s.NotEmpty(records[0].ID)
}

func (s *PostgresRepositorySuite) TestTimestampTieGoesToLaterInsert() {
	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(s.repo.Append(ctx, model.NewEvents([]string{"a.com"}, model.ActionAdded, ts)))
	s.Require().NoError(s.repo.Append(ctx, model.NewEvents([]string{"a.com"}, model.ActionRemoved, ts)))

	s.Empty(s.activeDomains())
}

func (s *PostgresRepositorySuite) TestHistory() {
	ctx := context.Background()
	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(s.repo.Append(ctx, model.NewEvents([]string{"a.com"}, model.ActionAdded, t0)))
	s.Require().NoError(s.repo.Append(ctx, model.NewEvents([]string{"a.com"}, model.ActionRemoved, t0.Add(time.Hour))))

	history, err := s.repo.History(ctx, "a.com")
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(model.ActionAdded, history[0].Action)
	s.Equal(model.ActionRemoved, history[1].Action)

	_, err = s.repo.History(ctx, "missing.com")
	s.True(errors.Is(err, model.ErrNotFound))
}

func (s *PostgresRepositorySuite) TestConnect() {
	ctx := context.Background()

	repo, err := pgrepo.Connect(ctx, s.dsn)
	s.Require().NoError(err)
	defer repo.Close()

	records, err := repo.ActiveRecords(ctx)
	s.Require().NoError(err)
	s.Empty(records)
}
