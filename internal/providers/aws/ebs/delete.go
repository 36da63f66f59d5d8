package ebs

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/retention"
)

// deleteClient covers the EC2 operation required for snapshot deletion.
type deleteClient interface {
	DeleteSnapshot(
		ctx context.Context,
		params *ec2svc.DeleteSnapshotInput,
		optFns ...func(*ec2svc.Options),
	) (*ec2svc.DeleteSnapshotOutput, error)
}

// DeleteAuthorizer implements retention.DeleteAuthorizer on top of
// DeleteSnapshot: the probe is a DryRun request, the commit a real one.
type DeleteAuthorizer struct {
	client deleteClient
}

// NewDeleteAuthorizer returns a DeleteAuthorizer backed by client.
func NewDeleteAuthorizer(client deleteClient) *DeleteAuthorizer {
	return &DeleteAuthorizer{client: client}
}

// CheckEligibility issues DeleteSnapshot with DryRun set. Only a
// DryRunOperation error confirms; every other outcome, including a nil
// error, is a denial.
func (d *DeleteAuthorizer) CheckEligibility(ctx context.Context, snapshotID string) retention.Authorization {
	_, err := d.client.DeleteSnapshot(ctx, &ec2svc.DeleteSnapshotInput{
		SnapshotId: aws.String(snapshotID),
		DryRun:     aws.Bool(true),
	})
	switch {
	case err == nil:
		return retention.Denied("dry-run returned no DryRunOperation confirmation")
	case common.IsAPIErrorCode(err, common.CodeDryRunOperation):
		return retention.Authorized()
	default:
		return retention.Denied(err.Error())
	}
}

// Commit deletes snapshotID.
func (d *DeleteAuthorizer) Commit(ctx context.Context, snapshotID string) error {
	if _, err := d.client.DeleteSnapshot(ctx, &ec2svc.DeleteSnapshotInput{
		SnapshotId: aws.String(snapshotID),
	}); err != nil {
		return fmt.Errorf("DeleteSnapshot %s: %w", snapshotID, err)
	}
	return nil
}
