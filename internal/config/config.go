package config

import (
	"time"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/retention"
)

// Audit modes.
const (
	ModeSingle       = "single"
	ModeOrganization = "organization"
)

// DefaultConcurrency audits accounts one at a time.
const DefaultConcurrency = 1

// Config is the top-level audit configuration. It is loaded from a YAML
// file passed with --config; command-line flags override individual fields.
type Config struct {
	// Version must be 1.
	Version int `yaml:"version" json:"version"`

	// Mode selects the audit scope: "single" audits the account behind the
	// default credentials, "organization" audits every ACTIVE member account.
	Mode string `yaml:"mode" json:"mode"`

	// Region is the single region audited by a run.
	Region string `yaml:"region" json:"region"`

	// Profile is an optional shared-config profile name.
	Profile string `yaml:"profile" json:"profile"`

	// RoleName is the role assumed in each member account.
	RoleName string `yaml:"role_name" json:"role_name"`

	// SessionName is the STS role session name.
	SessionName string `yaml:"session_name" json:"session_name"`

	// RetentionDays is the minimum snapshot age before deletion is considered.
	RetentionDays int `yaml:"retention_days" json:"retention_days"`

	// ReportOnly runs the dry-run probe but never issues the real delete.
	ReportOnly bool `yaml:"report_only" json:"report_only"`

	// PageSize is the DescribeSnapshots page size; 0 leaves it to the service.
	PageSize int32 `yaml:"page_size" json:"page_size"`

	// Concurrency is the number of accounts audited in parallel.
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// AccountTimeout bounds one account pass; 0 disables the bound.
	AccountTimeout time.Duration `yaml:"account_timeout" json:"account_timeout"`

	Accounts AccountsConfig `yaml:"accounts" json:"accounts"`
	Logging  LoggingConfig  `yaml:"logging"  json:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"  json:"metrics"`

	// Schedule is an optional standard cron expression. When set the audit
	// repeats on that schedule instead of running once.
	Schedule string `yaml:"schedule" json:"schedule"`
}

// AccountsConfig narrows the organization account list.
type AccountsConfig struct {
	// Include, when non-empty, replaces the directory listing.
	Include []string `yaml:"include" json:"include"`

	// Exclude drops account IDs; it always wins over Include.
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// LoggingConfig selects the audit log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level"  json:"level"`
	Format string `yaml:"format" json:"format"`
}

// MetricsConfig configures the Prometheus textfile output.
type MetricsConfig struct {
	// Textfile is the path written after each run; empty disables metrics.
	Textfile string `yaml:"textfile" json:"textfile"`
}

// Default returns a Config populated with every default.
func Default() *Config {
	return &Config{
		Version:       1,
		Mode:          ModeSingle,
		Region:        common.DefaultRegion,
		RoleName:      common.DefaultRoleName,
		SessionName:   common.DefaultSessionName,
		RetentionDays: retention.DefaultRetentionDays,
		Concurrency:   DefaultConcurrency,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "logfmt",
		},
	}
}
