package retention

import (
	"context"
	"fmt"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/models"
)

// Authorization is the outcome of a delete permission probe.
type Authorization struct {
	// Authorized is true when the probe confirmed the delete would succeed.
	Authorized bool

	// Reason explains a denial. Empty when Authorized.
	Reason string
}

// Authorized returns a confirming Authorization.
func Authorized() Authorization { return Authorization{Authorized: true} }

// Denied returns a rejecting Authorization carrying reason.
func Denied(reason string) Authorization { return Authorization{Reason: reason} }

// DeleteAuthorizer is the two-step delete protocol: probe, then commit.
type DeleteAuthorizer interface {
	// CheckEligibility validates permissions and request shape for deleting
	// snapshotID without deleting it.
	CheckEligibility(ctx context.Context, snapshotID string) Authorization

	// Commit deletes snapshotID. Irreversible.
	Commit(ctx context.Context, snapshotID string) error
}

// GuardedDeleter turns an eligibility verdict into a final one by running the
// probe-before-mutate protocol against an Authorizer.
type GuardedDeleter struct {
	Authorizer DeleteAuthorizer

	// ReportOnly runs the probe but never commits.
	ReportOnly bool
}

// Execute returns v unchanged, with no Authorizer calls, unless v is a delete
// verdict. For delete verdicts it probes exactly once and, only if the probe
// confirms, commits exactly once (never in ReportOnly mode).
//
// Outcomes:
//   - probe denied   → skip-error, Reason = denial detail, Basis = v.Reason
//   - commit failed  → skip-error, Reason = commit error,   Basis = v.Reason
//   - commit ok      → delete, Committed = true
//   - report-only    → delete, Committed = false
func (g *GuardedDeleter) Execute(ctx context.Context, v models.Verdict) models.Verdict {
	if v.Kind != models.VerdictDelete {
		return v
	}

	auth := g.Authorizer.CheckEligibility(ctx, v.SnapshotID)
	if !auth.Authorized {
		return skipped(v, fmt.Sprintf("delete probe rejected: %s", auth.Reason))
	}

	if g.ReportOnly {
		v.Committed = false
		return v
	}

	if err := g.Authorizer.Commit(ctx, v.SnapshotID); err != nil {
		return skipped(v, fmt.Sprintf("delete failed: %v", err))
	}
	v.Committed = true
	return v
}

func skipped(v models.Verdict, reason string) models.Verdict {
	v.Basis = v.Reason
	v.Kind = models.VerdictSkipError
	v.Reason = reason
	v.Committed = false
	return v
}
