package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inconshreveable/log15"
	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/config"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/engine"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/logging"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/metrics"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/output"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/retention"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/schedule"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "snapreaper",
		Short:        "snapreaper: EBS snapshot retention auditor",
		SilenceUsage: true,
	}
	root.AddCommand(newAuditCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

// auditFlags holds the audit command's flag values. A flag overrides the
// config file only when it was set on the command line.
type auditFlags struct {
	configPath     string
	mode           string
	region         string
	profile        string
	roleName       string
	retentionDays  int
	reportOnly     bool
	pageSize       int32
	concurrency    int
	accountTimeout time.Duration
	include        []string
	exclude        []string
	logLevel       string
	logFormat      string
	metricsFile    string
	schedule       string
	color          bool
}

func newAuditCmd() *cobra.Command {
	var f auditFlags

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit EBS snapshots and delete the ones that are safe to reclaim",
		Long: "Audit every EBS snapshot owned by the current account, or by every ACTIVE\n" +
			"account of the organization, and delete snapshots older than the retention\n" +
			"window whose source volume is gone or detached. Each deletion is preceded by\n" +
			"a dry-run authorization probe.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}

			log, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Writer: cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			collector := metrics.NewCollector(nil)
			provider := common.NewDefaultSessionProvider(common.SessionOptions{
				Profile:     cfg.Profile,
				Region:      cfg.Region,
				RoleName:    cfg.RoleName,
				SessionName: cfg.SessionName,
			})

			r := &auditRun{
				engine:  engine.NewDefaultEngine(provider, collector, log),
				metrics: collector,
				cfg:     cfg,
				out:     cmd.OutOrStdout(),
				color:   f.color,
				log:     log,
			}

			if cfg.Schedule == "" {
				return r.run(cmd.Context())
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := schedule.New(cfg.Schedule, log)
			if err != nil {
				return err
			}
			return s.Run(ctx, func(ctx context.Context) {
				if err := r.run(ctx); err != nil {
					log.Error("scheduled audit failed", "err", err)
				}
			})
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "Path to a YAML config file")
	fl.StringVar(&f.mode, "mode", config.ModeSingle, "Audit scope: single or organization")
	fl.StringVar(&f.region, "region", common.DefaultRegion, "AWS region to audit")
	fl.StringVar(&f.profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	fl.StringVar(&f.roleName, "role-name", common.DefaultRoleName, "Role assumed in each organization account")
	fl.IntVar(&f.retentionDays, "retention-days", retention.DefaultRetentionDays, "Minimum snapshot age in days before deletion is considered")
	fl.BoolVar(&f.reportOnly, "report-only", false, "Probe deletions with a dry run but never delete")
	fl.Int32Var(&f.pageSize, "page-size", 0, "DescribeSnapshots page size (0: service default)")
	fl.IntVar(&f.concurrency, "concurrency", 1, "Number of accounts audited in parallel")
	fl.DurationVar(&f.accountTimeout, "account-timeout", 0, "Time limit for one account pass (0: none)")
	fl.StringSliceVar(&f.include, "include", nil, "Organization account IDs to audit instead of the directory listing")
	fl.StringSliceVar(&f.exclude, "exclude", nil, "Organization account IDs to skip")
	fl.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	fl.StringVar(&f.logFormat, "log-format", logging.FormatLogfmt, "Log format: logfmt or json")
	fl.StringVar(&f.metricsFile, "metrics-textfile", "", "Write Prometheus metrics to this file after each run")
	fl.StringVar(&f.schedule, "schedule", "", "Cron expression; repeat the audit on this schedule")
	fl.BoolVar(&f.color, "color", false, "Colour the status column")

	return cmd
}

// resolveConfig loads the config file (or defaults), applies explicitly set
// flags on top and validates the result.
func resolveConfig(cmd *cobra.Command, f auditFlags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config %q: %w", f.configPath, err)
		}
		cfg = loaded
	}

	applyFlags(cfg, f, cmd.Flags().Changed)

	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// applyFlags copies every flag for which changed reports true into cfg.
func applyFlags(cfg *config.Config, f auditFlags, changed func(name string) bool) {
	if changed("mode") {
		cfg.Mode = f.mode
	}
	if changed("region") {
		cfg.Region = f.region
	}
	if changed("profile") {
		cfg.Profile = f.profile
	}
	if changed("role-name") {
		cfg.RoleName = f.roleName
	}
	if changed("retention-days") {
		cfg.RetentionDays = f.retentionDays
	}
	if changed("report-only") {
		cfg.ReportOnly = f.reportOnly
	}
	if changed("page-size") {
		cfg.PageSize = f.pageSize
	}
	if changed("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if changed("account-timeout") {
		cfg.AccountTimeout = f.accountTimeout
	}
	if changed("include") {
		cfg.Accounts.Include = f.include
	}
	if changed("exclude") {
		cfg.Accounts.Exclude = f.exclude
	}
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
	if changed("metrics-textfile") {
		cfg.Metrics.Textfile = f.metricsFile
	}
	if changed("schedule") {
		cfg.Schedule = f.schedule
	}
}

// auditOptions maps the resolved config onto engine options.
func auditOptions(cfg *config.Config) engine.AuditOptions {
	return engine.AuditOptions{
		Mode:           engine.AuditMode(cfg.Mode),
		RetentionDays:  cfg.RetentionDays,
		ReportOnly:     cfg.ReportOnly,
		PageSize:       cfg.PageSize,
		Concurrency:    cfg.Concurrency,
		AccountTimeout: cfg.AccountTimeout,
		Include:        cfg.Accounts.Include,
		Exclude:        cfg.Accounts.Exclude,
	}
}

// auditRun performs one audit and publishes its results.
type auditRun struct {
	engine  engine.Engine
	metrics *metrics.Collector
	cfg     *config.Config
	out     io.Writer
	color   bool
	log     log15.Logger
}

// run executes the audit, prints the account table and writes the optional
// metrics textfile. Failed accounts do not make run fail;
// they are reported in the table and the log.
func (r *auditRun) run(ctx context.Context) error {
	report, err := r.engine.RunAudit(ctx, auditOptions(r.cfg))
	if err != nil {
		return fmt.Errorf("audit failed: %w", err)
	}

	output.RenderTable(r.out, report, output.TableOptions{
		Colored:        r.color,
		IncludeName:    r.cfg.Mode == config.ModeOrganization,
		IncludeReasons: true,
	})

	if r.cfg.Metrics.Textfile != "" {
		r.metrics.ObserveRun(report.FinishedAt)
		if err := r.metrics.WriteTextfile(r.cfg.Metrics.Textfile); err != nil {
			r.log.Error("metrics not written", "err", err)
		}
	}
	return nil
}
