// Package config merges built-in defaults, an optional YAML file, DOMAINTRACKER_*
// environment variables and command-line flags into one Config.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/JacobBogossian/DomainTracker/internal/domainsdb"
	"github.com/JacobBogossian/DomainTracker/internal/logger"
	"github.com/JacobBogossian/DomainTracker/internal/reconcile"
)

const (
	EnvPrefix      = "DOMAINTRACKER"
	ConfigFileName = "domaintracker"

	// DefaultLogFile is where the CLI appends its log
	DefaultLogFile = "domaintracker.log"
)

// Config keys
const (
	KeyAPIURL             = "api.url"
	KeyAPIPage            = "api.page"
	KeyAPILimit           = "api.limit"
	KeyAPITimeout         = "api.timeout"
	KeyLogFile            = "log.file"
	KeyLogLevel           = "log.level"
	KeyLogFormat          = "log.format"
	KeyAllowEmptySnapshot = "reconcile.allow_empty_snapshot"
	KeyNormalize          = "reconcile.normalize"
	KeyDryRun             = "reconcile.dry_run"
	KeyPublishBucket      = "publish.bucket"
	KeyPublishKey         = "publish.key"
	KeyDynamoEndpoint     = "dynamodb.endpoint"
)

// FlagKeys maps command-line flag names to the config key they override
var FlagKeys = map[string]string{
	"api-url":              KeyAPIURL,
	"page":                 KeyAPIPage,
	"limit":                KeyAPILimit,
	"timeout":              KeyAPITimeout,
	"log-file":             KeyLogFile,
	"log-level":            KeyLogLevel,
	"log-format":           KeyLogFormat,
	"allow-empty-snapshot": KeyAllowEmptySnapshot,
	"normalize":            KeyNormalize,
	"dry-run":              KeyDryRun,
	"publish-bucket":       KeyPublishBucket,
	"publish-key":          KeyPublishKey,
	"dynamodb-endpoint":    KeyDynamoEndpoint,
}

// PublishConfig says where the active set is published. An empty Bucket disables publishing.
type PublishConfig struct {
	Bucket string
	Key    string
}

// Config is the full runtime configuration
type Config struct {
	API            domainsdb.Config
	Log            logger.Config
	Reconcile      reconcile.Options
	Publish        PublishConfig
	DynamoEndpoint string

	// ConfigFile is the file that was read, empty if none
	ConfigFile string
}

// Defaults returns the CLI defaults: the historical search parameters and a text log
// appended to DefaultLogFile.
func Defaults() Config {
	logCfg := logger.DefaultConfig()
	logCfg.Format = "text"
	logCfg.FilePath = DefaultLogFile

	return Config{
		API: domainsdb.DefaultConfig(),
		Log: logCfg,
	}
}

// Load reads configuration on top of Defaults
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	return LoadWithDefaults(Defaults(), configFile, flags)
}

// LoadWithDefaults reads configuration on top of defaults.
//
// Precedence, highest first: changed flags, environment, config file, defaults.
// configFile must exist when given; otherwise ./domaintracker.yaml is read if present.
// flags may be nil.
func LoadWithDefaults(defaults Config, configFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	v.SetDefault(KeyAPIURL, defaults.API.BaseURL)
	v.SetDefault(KeyAPIPage, defaults.API.Page)
	v.SetDefault(KeyAPILimit, defaults.API.Limit)
	v.SetDefault(KeyAPITimeout, defaults.API.Timeout)
	v.SetDefault(KeyLogFile, defaults.Log.FilePath)
	v.SetDefault(KeyLogLevel, defaults.Log.Level)
	v.SetDefault(KeyLogFormat, defaults.Log.Format)
	v.SetDefault(KeyAllowEmptySnapshot, defaults.Reconcile.AllowEmptySnapshot)
	v.SetDefault(KeyNormalize, defaults.Reconcile.Normalize)
	v.SetDefault(KeyDryRun, defaults.Reconcile.DryRun)
	v.SetDefault(KeyPublishBucket, defaults.Publish.Bucket)
	v.SetDefault(KeyPublishKey, defaults.Publish.Key)
	v.SetDefault(KeyDynamoEndpoint, defaults.DynamoEndpoint)

	v.SetEnvPrefix(EnvPrefix) // DOMAINTRACKER_API_URL, DOMAINTRACKER_LOG_LEVEL, ...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(ConfigFileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	cfg := Config{
		API: domainsdb.Config{
			BaseURL: v.GetString(KeyAPIURL),
			Page:    v.GetInt(KeyAPIPage),
			Limit:   v.GetInt(KeyAPILimit),
			Timeout: v.GetDuration(KeyAPITimeout),
		},
		Log: logger.Config{
			Level:     v.GetString(KeyLogLevel),
			Format:    v.GetString(KeyLogFormat),
			AddSource: defaults.Log.AddSource,
			FilePath:  v.GetString(KeyLogFile),
		},
		Reconcile: reconcile.Options{
			AllowEmptySnapshot: v.GetBool(KeyAllowEmptySnapshot),
			Normalize:          v.GetBool(KeyNormalize),
			DryRun:             v.GetBool(KeyDryRun),
		},
		Publish: PublishConfig{
			Bucket: v.GetString(KeyPublishBucket),
			Key:    v.GetString(KeyPublishKey),
		},
		DynamoEndpoint: v.GetString(KeyDynamoEndpoint),
		ConfigFile:     v.ConfigFileUsed(),
	}

	if cfg.API.Page <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %d", KeyAPIPage, cfg.API.Page)
	}
	if cfg.API.Limit <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %d", KeyAPILimit, cfg.API.Limit)
	}

	return cfg, nil
}
