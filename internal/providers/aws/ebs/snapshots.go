// Package ebs adapts the EC2 snapshot and volume APIs to the retention
// package: it streams owned snapshots, resolves source volumes and runs the
// dry-run/commit delete protocol.
package ebs

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/models"
)

// ownerSelf restricts DescribeSnapshots to snapshots owned by the caller.
const ownerSelf = "self"

// PageFunc receives one page of snapshots. Returning an error stops the
// listing and ListSnapshots returns that error.
type PageFunc func(page []models.Snapshot) error

// ListSnapshots pages through every snapshot owned by the account and hands
// each page to fn as soon as it arrives. pageSize <= 0 leaves the page size
// to the service.
func ListSnapshots(ctx context.Context, client ec2svc.DescribeSnapshotsAPIClient, pageSize int32, fn PageFunc) error {
	input := &ec2svc.DescribeSnapshotsInput{
		OwnerIds: []string{ownerSelf},
	}
	if pageSize > 0 {
		input.MaxResults = aws.Int32(pageSize)
	}

	paginator := ec2svc.NewDescribeSnapshotsPaginator(client, input)

	for pageNum := 1; paginator.HasMorePages(); pageNum++ {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("DescribeSnapshots page %d: %w", pageNum, err)
		}
		snaps := make([]models.Snapshot, 0, len(page.Snapshots))
		for _, s := range page.Snapshots {
			snaps = append(snaps, toSnapshot(s))
		}
		if err := fn(snaps); err != nil {
			return err
		}
	}
	return nil
}

// toSnapshot converts an SDK snapshot to the internal model.
func toSnapshot(s ec2types.Snapshot) models.Snapshot {
	return models.Snapshot{
		SnapshotID:  aws.ToString(s.SnapshotId),
		VolumeID:    aws.ToString(s.VolumeId),
		StartTime:   s.StartTime,
		SizeGB:      aws.ToInt32(s.VolumeSize),
		State:       string(s.State),
		Description: aws.ToString(s.Description),
	}
}
