package ebs

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/models"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/retention"
)

// volumesClient covers the EC2 operation required for source-volume lookup.
type volumesClient interface {
	DescribeVolumes(
		ctx context.Context,
		params *ec2svc.DescribeVolumesInput,
		optFns ...func(*ec2svc.Options),
	) (*ec2svc.DescribeVolumesOutput, error)
}

// VolumeLookup implements retention.VolumeLookup with one DescribeVolumes
// call per volume. EC2 fails a batched request outright when any one of the
// requested IDs is missing.
type VolumeLookup struct {
	client volumesClient
}

// NewVolumeLookup returns a VolumeLookup backed by client.
func NewVolumeLookup(client volumesClient) *VolumeLookup {
	return &VolumeLookup{client: client}
}

// LookupVolume describes volumeID. InvalidVolume.NotFound and an empty
// result both yield an error wrapping retention.ErrVolumeNotFound.
func (l *VolumeLookup) LookupVolume(ctx context.Context, volumeID string) (*models.Volume, error) {
	out, err := l.client.DescribeVolumes(ctx, &ec2svc.DescribeVolumesInput{
		VolumeIds: []string{volumeID},
	})
	if err != nil {
		if common.IsAPIErrorCode(err, common.CodeVolumeNotFound) {
			return nil, fmt.Errorf("describe volume %s: %w: %w", volumeID, retention.ErrVolumeNotFound, err)
		}
		return nil, fmt.Errorf("describe volume %s: %w", volumeID, err)
	}
	if len(out.Volumes) == 0 {
		return nil, fmt.Errorf("describe volume %s: %w", volumeID, retention.ErrVolumeNotFound)
	}
	vol := toVolume(out.Volumes[0])
	return &vol, nil
}

// toVolume converts an SDK volume to the internal model.
func toVolume(v ec2types.Volume) models.Volume {
	vol := models.Volume{
		VolumeID: aws.ToString(v.VolumeId),
		State:    string(v.State),
	}
	for _, a := range v.Attachments {
		vol.Attachments = append(vol.Attachments, models.Attachment{
			InstanceID: aws.ToString(a.InstanceId),
			State:      string(a.State),
		})
	}
	return vol
}
