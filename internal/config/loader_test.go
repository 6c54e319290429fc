package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("api-url", "", "")
	flags.Int("page", 2, "")
	flags.Int("limit", 50, "")
	flags.Duration("timeout", 30*time.Second, "")
	flags.String("log-file", DefaultLogFile, "")
	flags.Bool("normalize", false, "")
	flags.Bool("dry-run", false, "")
	flags.String("publish-bucket", "", "")
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://api.domainsdb.info/v1", cfg.API.BaseURL)
	assert.Equal(t, 2, cfg.API.Page)
	assert.Equal(t, 50, cfg.API.Limit)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, DefaultLogFile, cfg.Log.FilePath)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Reconcile.AllowEmptySnapshot)
	assert.False(t, cfg.Reconcile.Normalize)
	assert.False(t, cfg.Reconcile.DryRun)
	assert.Empty(t, cfg.Publish.Bucket)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DOMAINTRACKER_API_LIMIT", "10")
	t.Setenv("DOMAINTRACKER_API_TIMEOUT", "5s")
	t.Setenv("DOMAINTRACKER_RECONCILE_NORMALIZE", "true")
	t.Setenv("DOMAINTRACKER_PUBLISH_BUCKET", "tracker-public")

	cfg, err := Load("", testFlags())
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.API.Limit, "env beats an unchanged flag default")
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.Reconcile.Normalize)
	assert.Equal(t, "tracker-public", cfg.Publish.Bucket)
}

func TestLoad_FlagsBeatEnv(t *testing.T) {
	t.Setenv("DOMAINTRACKER_API_PAGE", "3")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--page", "1", "--dry-run", "--log-file", ""}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.API.Page)
	assert.True(t, cfg.Reconcile.DryRun)
	assert.Empty(t, cfg.Log.FilePath, "an explicitly empty --log-file logs to stdout")
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	content := `api:
  url: http://localhost:9999/v1
  limit: 25
log:
  level: debug
reconcile:
  allow_empty_snapshot: true
publish:
  bucket: from-file
  key: custom.json
dynamodb:
  endpoint: http://localhost:8000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("DOMAINTRACKER_PUBLISH_BUCKET", "from-env")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "http://localhost:9999/v1", cfg.API.BaseURL)
	assert.Equal(t, 25, cfg.API.Limit)
	assert.Equal(t, 2, cfg.API.Page, "unset keys keep their defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Reconcile.AllowEmptySnapshot)
	assert.Equal(t, "from-env", cfg.Publish.Bucket, "env beats the config file")
	assert.Equal(t, "custom.json", cfg.Publish.Key)
	assert.Equal(t, "http://localhost:8000", cfg.DynamoEndpoint)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_RejectsNonPositivePaging(t *testing.T) {
	t.Setenv("DOMAINTRACKER_API_LIMIT", "0")

	_, err := Load("", nil)
	assert.ErrorContains(t, err, KeyAPILimit)
}

func TestLoadWithDefaults(t *testing.T) {
	defaults := Defaults()
	defaults.Log.FilePath = ""
	defaults.Log.Format = "json"

	cfg, err := LoadWithDefaults(defaults, "", nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.Log.FilePath)
	assert.Equal(t, "json", cfg.Log.Format)
}
