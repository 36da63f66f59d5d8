package engine

import (
	"context"
	"time"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/models"
)

// AuditMode identifies which accounts a run covers.
type AuditMode string

const (
	AuditModeSingle       AuditMode = "single"
	AuditModeOrganization AuditMode = "organization"
)

// AuditOptions configures a single audit run.
// It is the sole input to Engine.RunAudit.
type AuditOptions struct {
	// Mode selects the current account only, or every organization account.
	Mode AuditMode

	// RetentionDays is the minimum snapshot age before deletion is
	// considered. Defaults to 7 when zero.
	RetentionDays int

	// ReportOnly runs the dry-run probe for eligible snapshots but never
	// issues the real delete.
	ReportOnly bool

	// PageSize is the DescribeSnapshots page size. Zero leaves it to the
	// service.
	PageSize int32

	// Concurrency is the number of accounts audited in parallel.
	// Defaults to 1 when zero.
	Concurrency int

	// AccountTimeout bounds each account pass. Zero means no bound.
	AccountTimeout time.Duration

	// Include, when non-empty, is the explicit organization account list and
	// the directory is not consulted.
	Include []string

	// Exclude drops organization accounts by ID.
	Exclude []string
}

// Recorder observes audit outcomes as they happen. Implementations must be
// safe for concurrent use.
type Recorder interface {
	ObserveVerdict(accountID string, v models.Verdict)
	ObserveAccount(res models.AccountResult)
}

// Engine is the central orchestration interface.
// It walks every account in scope, classifies each snapshot and runs the
// guarded delete, returning a populated AuditReport.
//
// Engine must not call the AWS SDK directly; it delegates to the provider
// packages.
type Engine interface {
	RunAudit(ctx context.Context, opts AuditOptions) (*models.AuditReport, error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveVerdict(string, models.Verdict) {}
func (nopRecorder) ObserveAccount(models.AccountResult)   {}
