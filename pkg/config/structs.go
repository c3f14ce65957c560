package config

import (
	"time"

	"github.com/dpf-ci/dpf-version/pkg/store"
)

// Config represents the complete tool configuration structure.
type Config struct {
	Log       LogConfig       `json:"log"`
	Project   ProjectConfig   `json:"project"`
	Templates TemplatesConfig `json:"templates"`
	Docs      DocsConfig      `json:"docs"`
	Store     StoreConfig     `json:"store"`
	History   HistoryConfig   `json:"history"`
	Compare   CompareConfig   `json:"compare"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `json:"level"` // Logging level: debug, info, warning, error
	Dir   string `json:"dir"`   // Directory for dpf-version.log; empty logs to the console only
}

// ProjectConfig locates the manifest tree and its version config.
type ProjectConfig struct {
	Root              string `json:"root"`              // Root of the manifest tree
	VersionConfigPath string `json:"versionConfigPath"` // Version config key, relative to the root or the store prefix
	ReportDir         string `json:"reportDir"`         // Key prefix for published reports
}

// TemplatesConfig describes which files follow the platform version.
type TemplatesConfig struct {
	Files              []string          `json:"files"`              // Service template file names
	Layouts            []string          `json:"layouts"`            // Directories probed in order for each template
	OperatorConfigPath string            `json:"operatorConfigPath"` // Operator config carrying image pull specs
	DefaultComponents  []string          `json:"defaultComponents"`  // Components updated when none are selected
	Aliases            map[string]string `json:"aliases"`            // Template component name -> version config key
}

// DocsConfig configures the documentation fetcher.
type DocsConfig struct {
	URL      string        `json:"url"`
	CacheDir string        `json:"cacheDir"`
	CacheTTL time.Duration `json:"cacheTTL"`
	Timeout  time.Duration `json:"timeout"`
}

// StoreConfig selects where the version config and published reports live.
// The file backend is rooted at the project root.
type StoreConfig struct {
	Backend string         `json:"backend"` // file or s3
	S3      store.S3Config `json:"s3"`
}

// HistoryConfig configures the update run ledger.
type HistoryConfig struct {
	Path     string `json:"path"`
	Disabled bool   `json:"disabled"`
}

// CompareConfig configures comparisons.
type CompareConfig struct {
	TrackedFiles []string `json:"trackedFiles"` // Version-sensitive files compared field by field
}
