// Package inventory builds the set of running EC2 instances for an account.
package inventory

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/models"
)

// StateRunning is the only instance lifecycle state that marks an attachment
// as live.
const StateRunning = "running"

// BuildRunningSet pages through every instance in the "running" state and
// returns their IDs as a set. The set is fully materialised before it is
// returned.
//
// Any page error aborts the build: an incomplete set would make attached
// volumes look idle, so callers must treat the error as fatal for the
// account pass.
func BuildRunningSet(ctx context.Context, client ec2svc.DescribeInstancesAPIClient) (models.InstanceSet, error) {
	input := &ec2svc.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("instance-state-name"),
				Values: []string{StateRunning},
			},
		},
	}

	paginator := ec2svc.NewDescribeInstancesPaginator(client, input)

	running := models.NewInstanceSet()
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeInstances page: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				if id := aws.ToString(inst.InstanceId); id != "" {
					running.Add(id)
				}
			}
		}
	}
	return running, nil
}
