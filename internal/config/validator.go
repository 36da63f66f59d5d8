package config

import (
	"fmt"
	"regexp"

	"github.com/robfig/cron/v3"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/logging"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/retention"
)

var accountIDPattern = regexp.MustCompile(`^[0-9]{12}$`)

// Validate checks cfg for semantic correctness and returns all validation
// errors found. An empty slice means the config is valid.
//
// All errors are collected before returning; Validate never stops at the
// first error.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{fmt.Errorf("config is nil")}
	}

	var errs []error

	if cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("version: unsupported value %d; must be 1", cfg.Version))
	}

	switch cfg.Mode {
	case ModeSingle, ModeOrganization:
	default:
		errs = append(errs, fmt.Errorf("mode: invalid value %q; valid values: single, organization", cfg.Mode))
	}

	if cfg.Region == "" {
		errs = append(errs, fmt.Errorf("region: must not be empty"))
	}
	if cfg.Mode == ModeOrganization && cfg.RoleName == "" {
		errs = append(errs, fmt.Errorf("role_name: required in organization mode"))
	}
	if cfg.RetentionDays < 1 || cfg.RetentionDays > retention.MaxRetentionDays {
		errs = append(errs, fmt.Errorf("retention_days: invalid value %d; must be between 1 and %d", cfg.RetentionDays, retention.MaxRetentionDays))
	}
	if cfg.PageSize != 0 && (cfg.PageSize < 5 || cfg.PageSize > 1000) {
		errs = append(errs, fmt.Errorf("page_size: invalid value %d; must be 0 or between 5 and 1000", cfg.PageSize))
	}
	if cfg.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency: invalid value %d; must be at least 1", cfg.Concurrency))
	}
	if cfg.AccountTimeout < 0 {
		errs = append(errs, fmt.Errorf("account_timeout: must not be negative"))
	}

	for i, id := range cfg.Accounts.Include {
		if !accountIDPattern.MatchString(id) {
			errs = append(errs, fmt.Errorf("accounts.include[%d]: invalid account ID %q", i, id))
		}
	}
	for i, id := range cfg.Accounts.Exclude {
		if !accountIDPattern.MatchString(id) {
			errs = append(errs, fmt.Errorf("accounts.exclude[%d]: invalid account ID %q", i, id))
		}
	}
	if cfg.Mode == ModeSingle && len(cfg.Accounts.Include)+len(cfg.Accounts.Exclude) > 0 {
		errs = append(errs, fmt.Errorf("accounts: include and exclude apply only to organization mode"))
	}

	if cfg.Logging.Level != "" {
		if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
			errs = append(errs, fmt.Errorf("logging.level: %w", err))
		}
	}
	if _, err := logging.ParseFormat(cfg.Logging.Format); err != nil {
		errs = append(errs, fmt.Errorf("logging.format: %w", err))
	}

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("schedule: invalid cron expression %q: %w", cfg.Schedule, err))
		}
	}

	return errs
}
