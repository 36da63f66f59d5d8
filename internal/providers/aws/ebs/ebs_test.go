package ebs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/models"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/retention"
)

// ── test doubles ──────────────────────────────────────────────────────────────

// stubEC2 serves canned snapshot pages, a volume response, and scripted
// DeleteSnapshot responses keyed by DryRun.
type stubEC2 struct {
	snapshotPages [][]ec2types.Snapshot
	snapshotErrAt int
	snapshotIn    []*ec2svc.DescribeSnapshotsInput

	volumes   []ec2types.Volume
	volumeErr error
	volumeIn  []*ec2svc.DescribeVolumesInput

	dryRunErr error
	deleteErr error
	deleteIn  []*ec2svc.DeleteSnapshotInput
}

func (s *stubEC2) DescribeSnapshots(_ context.Context, in *ec2svc.DescribeSnapshotsInput, _ ...func(*ec2svc.Options)) (*ec2svc.DescribeSnapshotsOutput, error) {
	s.snapshotIn = append(s.snapshotIn, in)
	idx := len(s.snapshotIn) - 1
	if idx == s.snapshotErrAt {
		return nil, errors.New("RequestLimitExceeded")
	}
	out := &ec2svc.DescribeSnapshotsOutput{Snapshots: s.snapshotPages[idx]}
	if idx < len(s.snapshotPages)-1 {
		out.NextToken = aws.String(fmt.Sprintf("token-%d", idx+1))
	}
	return out, nil
}

func (s *stubEC2) DescribeVolumes(_ context.Context, in *ec2svc.DescribeVolumesInput, _ ...func(*ec2svc.Options)) (*ec2svc.DescribeVolumesOutput, error) {
	s.volumeIn = append(s.volumeIn, in)
	if s.volumeErr != nil {
		return nil, s.volumeErr
	}
	return &ec2svc.DescribeVolumesOutput{Volumes: s.volumes}, nil
}

func (s *stubEC2) DeleteSnapshot(_ context.Context, in *ec2svc.DeleteSnapshotInput, _ ...func(*ec2svc.Options)) (*ec2svc.DeleteSnapshotOutput, error) {
	s.deleteIn = append(s.deleteIn, in)
	if aws.ToBool(in.DryRun) {
		return nil, s.dryRunErr
	}
	if s.deleteErr != nil {
		return nil, s.deleteErr
	}
	return &ec2svc.DeleteSnapshotOutput{}, nil
}

func apiErr(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code + " message"}
}

// ── ListSnapshots ─────────────────────────────────────────────────────────────

func TestListSnapshots_StreamsPagesInOrder(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	client := &stubEC2{
		snapshotErrAt: -1,
		snapshotPages: [][]ec2types.Snapshot{
			{
				{SnapshotId: aws.String("snap-1"), VolumeId: aws.String("vol-1"), StartTime: &created, VolumeSize: aws.Int32(100), State: ec2types.SnapshotStateCompleted},
				{SnapshotId: aws.String("snap-2")},
			},
			{{SnapshotId: aws.String("snap-3")}},
		},
	}

	var pages [][]models.Snapshot
	err := ListSnapshots(context.Background(), client, 0, func(page []models.Snapshot) error {
		pages = append(pages, page)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 || len(pages[0]) != 2 || len(pages[1]) != 1 {
		t.Fatalf("page shape = %v; want [2 1]", pages)
	}

	first := pages[0][0]
	if first.SnapshotID != "snap-1" || first.VolumeID != "vol-1" || first.SizeGB != 100 || first.State != "completed" {
		t.Errorf("first snapshot = %+v", first)
	}
	if first.StartTime == nil || !first.StartTime.Equal(created) {
		t.Errorf("StartTime = %v; want %v", first.StartTime, created)
	}

	orphan := pages[0][1]
	if orphan.VolumeID != "" || orphan.StartTime != nil {
		t.Errorf("orphan snapshot = %+v; want empty volume and nil start time", orphan)
	}

	in := client.snapshotIn[0]
	if len(in.OwnerIds) != 1 || in.OwnerIds[0] != "self" {
		t.Errorf("OwnerIds = %v; want [self]", in.OwnerIds)
	}
	if in.MaxResults != nil {
		t.Errorf("MaxResults = %d; want unset for pageSize 0", aws.ToInt32(in.MaxResults))
	}
}

func TestListSnapshots_PageSize(t *testing.T) {
	client := &stubEC2{snapshotErrAt: -1, snapshotPages: [][]ec2types.Snapshot{{}}}
	if err := ListSnapshots(context.Background(), client, 250, func([]models.Snapshot) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := aws.ToInt32(client.snapshotIn[0].MaxResults); got != 250 {
		t.Errorf("MaxResults = %d; want 250", got)
	}
}

func TestListSnapshots_PageErrorStopsListing(t *testing.T) {
	client := &stubEC2{
		snapshotErrAt: 1,
		snapshotPages: [][]ec2types.Snapshot{{{SnapshotId: aws.String("snap-1")}}, {}},
	}
	calls := 0
	err := ListSnapshots(context.Background(), client, 0, func([]models.Snapshot) error {
		calls++
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "page 2") {
		t.Errorf("err = %v; want page 2 failure", err)
	}
	if calls != 1 {
		t.Errorf("callback calls = %d; want 1 (first page only)", calls)
	}
}

func TestListSnapshots_CallbackErrorPropagates(t *testing.T) {
	client := &stubEC2{snapshotErrAt: -1, snapshotPages: [][]ec2types.Snapshot{{}, {}}}
	sentinel := errors.New("stop")
	err := ListSnapshots(context.Background(), client, 0, func([]models.Snapshot) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v; want sentinel", err)
	}
	if len(client.snapshotIn) != 1 {
		t.Errorf("pages fetched = %d; want 1", len(client.snapshotIn))
	}
}

// ── VolumeLookup ──────────────────────────────────────────────────────────────

func TestLookupVolume_Found(t *testing.T) {
	client := &stubEC2{volumes: []ec2types.Volume{{
		VolumeId: aws.String("vol-1"),
		State:    ec2types.VolumeStateInUse,
		Attachments: []ec2types.VolumeAttachment{
			{InstanceId: aws.String("i-1"), State: ec2types.VolumeAttachmentStateAttached},
		},
	}}}

	vol, err := NewVolumeLookup(client).LookupVolume(context.Background(), "vol-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vol.VolumeID != "vol-1" || vol.State != "in-use" {
		t.Errorf("volume = %+v", vol)
	}
	if len(vol.Attachments) != 1 || vol.Attachments[0].InstanceID != "i-1" || vol.Attachments[0].State != "attached" {
		t.Errorf("attachments = %+v", vol.Attachments)
	}
	if ids := client.volumeIn[0].VolumeIds; len(ids) != 1 || ids[0] != "vol-1" {
		t.Errorf("VolumeIds = %v; want [vol-1]", ids)
	}
}

func TestLookupVolume_NotFoundCode(t *testing.T) {
	client := &stubEC2{volumeErr: apiErr("InvalidVolume.NotFound")}

	_, err := NewVolumeLookup(client).LookupVolume(context.Background(), "vol-gone")
	if !errors.Is(err, retention.ErrVolumeNotFound) {
		t.Errorf("err = %v; want ErrVolumeNotFound", err)
	}
	if !strings.Contains(err.Error(), "InvalidVolume.NotFound") {
		t.Errorf("err = %v; want the API error text preserved", err)
	}
}

func TestLookupVolume_EmptyResultIsNotFound(t *testing.T) {
	_, err := NewVolumeLookup(&stubEC2{}).LookupVolume(context.Background(), "vol-1")
	if !errors.Is(err, retention.ErrVolumeNotFound) {
		t.Errorf("err = %v; want ErrVolumeNotFound", err)
	}
}

func TestLookupVolume_OtherErrorIsNotNotFound(t *testing.T) {
	client := &stubEC2{volumeErr: apiErr("UnauthorizedOperation")}
	_, err := NewVolumeLookup(client).LookupVolume(context.Background(), "vol-1")
	if err == nil || errors.Is(err, retention.ErrVolumeNotFound) {
		t.Errorf("err = %v; want a non-not-found error", err)
	}
}

// ── DeleteAuthorizer ──────────────────────────────────────────────────────────

func TestCheckEligibility_DryRunOperationAuthorizes(t *testing.T) {
	client := &stubEC2{dryRunErr: apiErr("DryRunOperation")}

	auth := NewDeleteAuthorizer(client).CheckEligibility(context.Background(), "snap-1")
	if !auth.Authorized {
		t.Errorf("auth = %+v; want authorized", auth)
	}
	if len(client.deleteIn) != 1 || !aws.ToBool(client.deleteIn[0].DryRun) {
		t.Fatalf("delete calls = %d; want exactly one dry-run", len(client.deleteIn))
	}
	if aws.ToString(client.deleteIn[0].SnapshotId) != "snap-1" {
		t.Errorf("SnapshotId = %q; want snap-1", aws.ToString(client.deleteIn[0].SnapshotId))
	}
}

func TestCheckEligibility_Denials(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"unauthorized", apiErr("UnauthorizedOperation"), "UnauthorizedOperation"},
		{"snapshot not found", apiErr("InvalidSnapshot.NotFound"), "InvalidSnapshot.NotFound"},
		{"throttled", apiErr("RequestLimitExceeded"), "RequestLimitExceeded"},
		{"plain error", errors.New("connection reset"), "connection reset"},
		{"no error", nil, "no DryRunOperation"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &stubEC2{dryRunErr: tc.err}
			auth := NewDeleteAuthorizer(client).CheckEligibility(context.Background(), "snap-1")
			if auth.Authorized {
				t.Fatal("want denial")
			}
			if !strings.Contains(auth.Reason, tc.want) {
				t.Errorf("Reason = %q; want to contain %q", auth.Reason, tc.want)
			}
		})
	}
}

func TestCommit_IssuesRealDelete(t *testing.T) {
	client := &stubEC2{}
	if err := NewDeleteAuthorizer(client).Commit(context.Background(), "snap-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(client.deleteIn) != 1 || client.deleteIn[0].DryRun != nil {
		t.Errorf("want one non-dry-run DeleteSnapshot call; got %d", len(client.deleteIn))
	}
}

func TestCommit_Error(t *testing.T) {
	client := &stubEC2{deleteErr: apiErr("InvalidSnapshot.InUse")}
	err := NewDeleteAuthorizer(client).Commit(context.Background(), "snap-1")
	if err == nil || !strings.Contains(err.Error(), "snap-1") {
		t.Errorf("err = %v; want wrapped error naming snap-1", err)
	}
}

// Scenario B end to end at the provider boundary: volume gone, probe
// confirms, one real delete.
func TestGuardedDelete_WithEC2Adapters(t *testing.T) {
	client := &stubEC2{volumeErr: apiErr("InvalidVolume.NotFound"), dryRunErr: apiErr("DryRunOperation")}
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	created := now.Add(-10 * 24 * time.Hour)

	c := &retention.Classifier{Running: models.NewInstanceSet(), Cutoff: retention.Cutoff(now, 7), Volumes: NewVolumeLookup(client)}
	g := &retention.GuardedDeleter{Authorizer: NewDeleteAuthorizer(client)}

	v := g.Execute(context.Background(), c.Classify(context.Background(), models.Snapshot{
		SnapshotID: "snap-b", VolumeID: "vol-gone", StartTime: &created,
	}))

	if v.Kind != models.VerdictDelete || !v.Committed || v.Reason != models.ReasonSourceVolumeGone {
		t.Errorf("verdict = %+v; want committed delete for source volume deleted", v)
	}
	if len(client.deleteIn) != 2 || !aws.ToBool(client.deleteIn[0].DryRun) || client.deleteIn[1].DryRun != nil {
		t.Errorf("delete sequence wrong: %d calls", len(client.deleteIn))
	}
}
