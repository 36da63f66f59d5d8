package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/inconshreveable/log15"
	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/models"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/providers/aws/ebs"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/providers/aws/inventory"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/providers/aws/organizations"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/retention"
)

// AccountLister enumerates the accounts of an organization.
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
}

// DefaultEngine is the production implementation of Engine.
// It coordinates session acquisition, inventory, classification, guarded
// deletion and report assembly. It never calls the AWS SDK directly.
type DefaultEngine struct {
	provider common.SessionProvider
	recorder Recorder
	log      log15.Logger

	// Swapped in tests.
	now       func() time.Time
	newRunID  func() string
	directory func(base *common.AccountSession) AccountLister
}

// NewDefaultEngine constructs a DefaultEngine wired to the supplied session
// provider, outcome recorder and logger. A nil recorder discards outcomes.
func NewDefaultEngine(
	provider common.SessionProvider,
	recorder Recorder,
	log log15.Logger,
) *DefaultEngine {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &DefaultEngine{
		provider: provider,
		recorder: recorder,
		log:      log,
		now:      time.Now,
		newRunID: uuid.NewString,
		directory: func(base *common.AccountSession) AccountLister {
			return organizations.NewDirectory(base.Clients.Organizations)
		},
	}
}

// RunAudit implements Engine. It fails only when the run cannot start: the
// base session cannot be loaded or the account list cannot be resolved.
// Failures inside an account pass are recorded on that account's result and
// the remaining accounts are still audited.
func (e *DefaultEngine) RunAudit(ctx context.Context, opts AuditOptions) (*models.AuditReport, error) {
	if opts.Mode == "" {
		opts.Mode = AuditModeSingle
	}
	if opts.Mode != AuditModeSingle && opts.Mode != AuditModeOrganization {
		return nil, fmt.Errorf("unsupported audit mode: %q", opts.Mode)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	report := &models.AuditReport{
		RunID:      e.newRunID(),
		Mode:       string(opts.Mode),
		ReportOnly: opts.ReportOnly,
		StartedAt:  e.now().UTC(),
	}
	log := e.log.New("run", report.RunID)

	base, err := e.provider.LoadDefault(ctx)
	if err != nil {
		return nil, fmt.Errorf("load base session: %w", err)
	}
	report.Region = base.Region

	accounts, err := e.resolveAccounts(ctx, base, opts)
	if err != nil {
		return nil, err
	}

	log.Info("audit started",
		"mode", opts.Mode,
		"region", base.Region,
		"caller_account", base.Account.ID,
		"accounts", len(accounts),
		"report_only", opts.ReportOnly,
	)

	// Each worker owns one slot, so report order is directory order.
	results := make([]models.AccountResult, len(accounts))
	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i, account := range accounts {
		i, account := i, account
		g.Go(func() error {
			results[i] = e.auditAccount(ctx, log, base, account, opts)
			return nil
		})
	}
	_ = g.Wait()

	report.Accounts = results
	report.FinishedAt = e.now().UTC()

	totals := report.Totals()
	log.Info("audit finished",
		"accounts", len(results),
		"failed", report.Failed(),
		"scanned", totals.Scanned,
		"deleted", totals.Deleted,
		"skipped", totals.Skipped,
		"reclaimed_gb", totals.ReclaimedGB,
	)
	return report, nil
}

// resolveAccounts returns the accounts in scope. Single mode audits the
// caller's account; organization mode uses the explicit include list when
// given, otherwise the ACTIVE accounts from the directory, minus exclusions.
func (e *DefaultEngine) resolveAccounts(
	ctx context.Context,
	base *common.AccountSession,
	opts AuditOptions,
) ([]models.Account, error) {
	if opts.Mode == AuditModeSingle {
		return []models.Account{base.Account}, nil
	}

	var accounts []models.Account
	if len(opts.Include) > 0 {
		for _, id := range opts.Include {
			accounts = append(accounts, models.Account{ID: id})
		}
	} else {
		listed, err := e.directory(base).ListAccounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("list organization accounts: %w", err)
		}
		accounts = listed
	}
	return organizations.Filter(accounts, nil, opts.Exclude), nil
}

// auditAccount runs one account pass and converts its outcome into an
// explicit AccountResult. It never returns an error.
func (e *DefaultEngine) auditAccount(
	ctx context.Context,
	runLog log15.Logger,
	base *common.AccountSession,
	account models.Account,
	opts AuditOptions,
) models.AccountResult {
	res := models.AccountResult{Account: account, StartedAt: e.now().UTC()}
	log := runLog.New("account", account.ID)

	if opts.AccountTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.AccountTimeout)
		defer cancel()
	}

	log.Info("account audit started", "name", account.Name)

	sess := base
	if opts.Mode == AuditModeOrganization {
		var err error
		sess, err = e.provider.ForAccount(ctx, base, account)
		if err != nil {
			res.Err = fmt.Errorf("acquire session: %w", err)
		}
	}
	if res.Err == nil {
		res.Summary, res.Err = e.runAccount(ctx, log, sess, opts)
	}
	res.FinishedAt = e.now().UTC()

	if res.Err != nil {
		log.Error("account audit failed", "err", res.Err, "scanned", res.Summary.Scanned)
	} else {
		log.Info("account audit finished",
			"scanned", res.Summary.Scanned,
			"kept", res.Summary.Kept,
			"deleted", res.Summary.Deleted,
			"skipped", res.Summary.Skipped,
			"reclaimed_gb", res.Summary.ReclaimedGB,
		)
	}
	e.recorder.ObserveAccount(res)
	return res
}

// runAccount builds the running-instance inventory, then streams the
// account's snapshots page by page through the classifier and the guarded
// deleter. A per-snapshot failure becomes a skip-error verdict; only an
// inventory or listing failure aborts the pass. The summary covers every
// snapshot handled before an abort.
func (e *DefaultEngine) runAccount(
	ctx context.Context,
	log log15.Logger,
	sess *common.AccountSession,
	opts AuditOptions,
) (models.AccountSummary, error) {
	var summary models.AccountSummary
	client := sess.Clients.EC2

	running, err := inventory.BuildRunningSet(ctx, client)
	if err != nil {
		return summary, fmt.Errorf("build instance inventory: %w", err)
	}
	log.Debug("instance inventory built", "running", running.Len())

	classifier := &retention.Classifier{
		Running: running,
		Cutoff:  retention.Cutoff(e.now(), opts.RetentionDays),
		Volumes: ebs.NewVolumeLookup(client),
	}
	deleter := &retention.GuardedDeleter{
		Authorizer: ebs.NewDeleteAuthorizer(client),
		ReportOnly: opts.ReportOnly,
	}

	err = ebs.ListSnapshots(ctx, client, opts.PageSize, func(page []models.Snapshot) error {
		for _, snap := range page {
			if err := ctx.Err(); err != nil {
				return err
			}
			v := deleter.Execute(ctx, classifier.Classify(ctx, snap))
			summary.Record(v)
			e.recorder.ObserveVerdict(sess.Account.ID, v)
			logVerdict(log, v)
		}
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("list snapshots: %w", err)
	}
	return summary, nil
}

// logVerdict writes the audit line for one final verdict.
func logVerdict(log log15.Logger, v models.Verdict) {
	ctx := []interface{}{"snapshot", v.SnapshotID, "volume", v.VolumeID, "reason", v.Reason}

	switch v.Kind {
	case models.VerdictKeep:
		log.Info("keep", ctx...)
	case models.VerdictDelete:
		ctx = append(ctx, "size_gb", v.SizeGB)
		if v.Committed {
			log.Info("deleted", ctx...)
		} else {
			log.Info("would delete", ctx...)
		}
	default:
		if v.Basis != "" {
			ctx = append(ctx, "basis", v.Basis)
		}
		log.Warn("skipped", ctx...)
	}
}
