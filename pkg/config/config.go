package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dpf-ci/dpf-version/pkg/docs"
	"github.com/dpf-ci/dpf-version/pkg/history"
	"github.com/dpf-ci/dpf-version/pkg/logger"
	"github.com/dpf-ci/dpf-version/pkg/manifest"
	"github.com/dpf-ci/dpf-version/pkg/snapshot"
	"github.com/dpf-ci/dpf-version/pkg/store"
	"github.com/dpf-ci/dpf-version/pkg/updater"
	"github.com/dpf-ci/dpf-version/pkg/versionconfig"
)

const (
	// Default configuration values
	defaultLogLevel  = "info"
	defaultRoot      = "."
	defaultReportDir = "ci/reports"

	// Environment variable prefix
	envPrefix = "DPF_VERSION"
)

// Singleton instance for configuration
var (
	configInstance *Config
	configMutex    sync.RWMutex
)

// envKeys are the scalar settings that can be overridden from the environment
var envKeys = []string{
	"log.level",
	"log.dir",
	"project.root",
	"project.versionConfigPath",
	"project.reportDir",
	"templates.operatorConfigPath",
	"docs.url",
	"docs.cacheDir",
	"docs.cacheTTL",
	"docs.timeout",
	"store.backend",
	"store.s3.endpoint",
	"store.s3.region",
	"store.s3.accessKey",
	"store.s3.secretKey",
	"store.s3.bucket",
	"store.s3.prefix",
	"store.s3.useSSL",
	"history.path",
	"history.disabled",
}

// GetConfig returns the singleton configuration instance.
// Returns nil if configuration has not been loaded yet. Use LoadConfig() first.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return configInstance
}

// LoadConfig loads configuration from an optional JSON file and environment variables.
// A .env file in the working directory is loaded first when present.
// Environment variables override file values using the DPF_VERSION_ prefix with dots
// replaced by underscores. For example: DPF_VERSION_STORE_BACKEND=s3
func LoadConfig(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file at %s: %w", configPath, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.SetDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	configMutex.Lock()
	defer configMutex.Unlock()
	configInstance = config

	return config, nil
}

// SetDefaults sets default values for any missing configuration fields
func (c *Config) SetDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}

	if c.Project.Root == "" {
		c.Project.Root = defaultRoot
	}
	if c.Project.VersionConfigPath == "" {
		c.Project.VersionConfigPath = versionconfig.DefaultPath
	}
	if c.Project.ReportDir == "" {
		c.Project.ReportDir = defaultReportDir
	}

	defaults := updater.DefaultOptions()
	if len(c.Templates.Files) == 0 {
		c.Templates.Files = defaults.TemplateFiles
	}
	if len(c.Templates.Layouts) == 0 {
		for _, l := range defaults.Layouts {
			c.Templates.Layouts = append(c.Templates.Layouts, l.Dir)
		}
	}
	if c.Templates.OperatorConfigPath == "" {
		c.Templates.OperatorConfigPath = defaults.OperatorConfigPath
	}
	if len(c.Templates.DefaultComponents) == 0 {
		c.Templates.DefaultComponents = defaults.DefaultComponents
	}
	if c.Templates.Aliases == nil {
		c.Templates.Aliases = defaults.Aliases
	}

	if c.Docs.URL == "" {
		c.Docs.URL = docs.DefaultURL
	}
	if c.Docs.CacheDir == "" {
		c.Docs.CacheDir = docs.DefaultCacheDir()
	}
	if c.Docs.CacheTTL == 0 {
		c.Docs.CacheTTL = docs.DefaultCacheTTL
	}
	if c.Docs.Timeout == 0 {
		c.Docs.Timeout = docs.DefaultTimeout
	}

	if c.Store.Backend == "" {
		c.Store.Backend = store.BackendFile
	}

	if c.History.Path == "" {
		c.History.Path = history.DefaultPath()
	}
}

// Validate validates the configuration and ensures all required fields are set
func (c *Config) Validate() error {
	if err := logger.ValidateLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %s. Valid values are: %s", c.Log.Level, strings.Join(logger.LevelNames(), ", "))
	}

	if filepath.IsAbs(c.Project.VersionConfigPath) {
		return fmt.Errorf("project.versionConfigPath must be relative to the project root: %s", c.Project.VersionConfigPath)
	}

	switch c.Store.Backend {
	case store.BackendFile:
	case store.BackendS3:
		if c.Store.S3.Endpoint == "" {
			return fmt.Errorf("store.s3.endpoint is required for the s3 backend")
		}
		if c.Store.S3.Bucket == "" {
			return fmt.Errorf("store.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("invalid store.backend: %s. Valid values are: file, s3", c.Store.Backend)
	}

	if c.Docs.CacheTTL < 0 || c.Docs.Timeout < 0 {
		return fmt.Errorf("docs.cacheTTL and docs.timeout must not be negative")
	}

	return nil
}

// StoreOptions returns the blob store options for the configured backend
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend: c.Store.Backend,
		Root:    c.Project.Root,
		S3:      c.Store.S3,
	}
}

// Layouts returns the configured template layouts in probe order
func (c *Config) Layouts() manifest.Layouts {
	return manifest.LayoutsFromDirs(c.Templates.Layouts)
}

// UpdaterOptions returns the applier options described by the configuration
func (c *Config) UpdaterOptions() updater.Options {
	return updater.Options{
		TemplateFiles:      c.Templates.Files,
		Layouts:            c.Layouts(),
		OperatorConfigPath: c.Templates.OperatorConfigPath,
		Aliases:            c.Templates.Aliases,
		DefaultComponents:  c.Templates.DefaultComponents,
	}
}

// SnapshotOptions returns the extractor options, tracking trackedFiles when the
// configuration names none
func (c *Config) SnapshotOptions(trackedFiles []string) snapshot.Options {
	tracked := c.Compare.TrackedFiles
	if len(tracked) == 0 {
		tracked = trackedFiles
	}
	return snapshot.Options{
		Layouts:       c.Layouts(),
		TemplateFiles: c.Templates.Files,
		TrackedFiles:  tracked,
	}
}

// DocsOptions returns the documentation fetcher options
func (c *Config) DocsOptions() docs.Options {
	return docs.Options{
		CacheDir: c.Docs.CacheDir,
		CacheTTL: c.Docs.CacheTTL,
		Timeout:  c.Docs.Timeout,
	}
}
