package retention

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/models"
)

// fakeAuthorizer records every probe and commit.
type fakeAuthorizer struct {
	auth      Authorization
	commitErr error
	probes    []string
	commits   []string
}

func (f *fakeAuthorizer) CheckEligibility(_ context.Context, id string) Authorization {
	f.probes = append(f.probes, id)
	return f.auth
}

func (f *fakeAuthorizer) Commit(_ context.Context, id string) error {
	f.commits = append(f.commits, id)
	return f.commitErr
}

func eligibleVerdict(reason string) models.Verdict {
	return models.Verdict{SnapshotID: "snap-1", VolumeID: "vol-1", Kind: models.VerdictDelete, Reason: reason, SizeGB: 100}
}

func TestGuardedDeleter_NonDeleteVerdictsUntouched(t *testing.T) {
	for _, in := range []models.Verdict{
		{SnapshotID: "snap-1", Kind: models.VerdictKeep, Reason: models.ReasonTooYoung},
		{SnapshotID: "snap-2", Kind: models.VerdictKeep, Reason: models.ReasonAttachedNotRunning},
		{SnapshotID: "snap-3", Kind: models.VerdictSkipError, Reason: "throttled"},
	} {
		auth := &fakeAuthorizer{auth: Authorized()}
		g := &GuardedDeleter{Authorizer: auth}
		if out := g.Execute(context.Background(), in); out != in {
			t.Errorf("verdict changed: %+v -> %+v", in, out)
		}
		if len(auth.probes)+len(auth.commits) != 0 {
			t.Errorf("%s: authorizer called (probes=%v commits=%v)", in.SnapshotID, auth.probes, auth.commits)
		}
	}
}

// Scenario B / D: probe confirms → exactly one real delete.
func TestGuardedDeleter_AuthorizedCommitsOnce(t *testing.T) {
	for _, reason := range []string{models.ReasonSourceVolumeGone, models.ReasonVolumeDetached, models.ReasonNoSourceVolume} {
		t.Run(reason, func(t *testing.T) {
			auth := &fakeAuthorizer{auth: Authorized()}
			g := &GuardedDeleter{Authorizer: auth}

			out := g.Execute(context.Background(), eligibleVerdict(reason))

			if out.Kind != models.VerdictDelete || !out.Committed {
				t.Errorf("got %s committed=%v; want delete committed", out.Kind, out.Committed)
			}
			if out.Reason != reason {
				t.Errorf("Reason = %q; want %q", out.Reason, reason)
			}
			if len(auth.probes) != 1 || len(auth.commits) != 1 {
				t.Errorf("probes=%d commits=%d; want 1/1", len(auth.probes), len(auth.commits))
			}
		})
	}
}

// Scenario E: probe denied for authorization → skip-error, no real delete.
func TestGuardedDeleter_DeniedNeverCommits(t *testing.T) {
	auth := &fakeAuthorizer{auth: Denied("UnauthorizedOperation: You are not authorized to perform this operation.")}
	g := &GuardedDeleter{Authorizer: auth}

	out := g.Execute(context.Background(), eligibleVerdict(models.ReasonVolumeDetached))

	if out.Kind != models.VerdictSkipError {
		t.Fatalf("Kind = %q; want skip-error", out.Kind)
	}
	if !strings.Contains(out.Reason, "UnauthorizedOperation") {
		t.Errorf("Reason = %q; want rejection detail", out.Reason)
	}
	if out.Basis != models.ReasonVolumeDetached {
		t.Errorf("Basis = %q; want %q", out.Basis, models.ReasonVolumeDetached)
	}
	if len(auth.commits) != 0 {
		t.Errorf("Commit called %d times; want 0", len(auth.commits))
	}
	if out.Committed {
		t.Error("Committed must be false")
	}
}

func TestGuardedDeleter_CommitFailureIsSkip(t *testing.T) {
	auth := &fakeAuthorizer{auth: Authorized(), commitErr: errors.New("InvalidSnapshot.InUse: in use by ami-1")}
	g := &GuardedDeleter{Authorizer: auth}

	out := g.Execute(context.Background(), eligibleVerdict(models.ReasonNoSourceVolume))

	if out.Kind != models.VerdictSkipError || out.Committed {
		t.Errorf("got %s committed=%v; want skip-error uncommitted", out.Kind, out.Committed)
	}
	if !strings.Contains(out.Reason, "InvalidSnapshot.InUse") {
		t.Errorf("Reason = %q; want commit error detail", out.Reason)
	}
	if len(auth.commits) != 1 {
		t.Errorf("Commit called %d times; want 1", len(auth.commits))
	}
}

func TestGuardedDeleter_ReportOnlyProbesWithoutCommit(t *testing.T) {
	auth := &fakeAuthorizer{auth: Authorized()}
	g := &GuardedDeleter{Authorizer: auth, ReportOnly: true}

	out := g.Execute(context.Background(), eligibleVerdict(models.ReasonVolumeDetached))

	if out.Kind != models.VerdictDelete || out.Committed {
		t.Errorf("got %s committed=%v; want delete uncommitted", out.Kind, out.Committed)
	}
	if len(auth.probes) != 1 {
		t.Errorf("probes = %d; want 1", len(auth.probes))
	}
	if len(auth.commits) != 0 {
		t.Errorf("commits = %d; want 0 in report-only mode", len(auth.commits))
	}
}
