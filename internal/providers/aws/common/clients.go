package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ---------------------------------------------------------------------------
// Per-service client interfaces
//
// Each interface covers only the operations used by this project. Using narrow
// interfaces instead of the full SDK clients makes mocking in unit tests
// trivial: create a struct that satisfies the interface and return canned data.
// ---------------------------------------------------------------------------

// STSClient is the subset of STS operations used by the loader.
type STSClient interface {
	GetCallerIdentity(
		ctx context.Context,
		params *sts.GetCallerIdentityInput,
		optFns ...func(*sts.Options),
	) (*sts.GetCallerIdentityOutput, error)

	AssumeRole(
		ctx context.Context,
		params *sts.AssumeRoleInput,
		optFns ...func(*sts.Options),
	) (*sts.AssumeRoleOutput, error)
}

// SnapshotEC2Client covers every EC2 operation the audit performs.
// A *ec2.Client satisfies it, and with it ec2.DescribeInstancesAPIClient and
// ec2.DescribeSnapshotsAPIClient, enabling SDK v2 paginators.
type SnapshotEC2Client interface {
	DescribeInstances(
		ctx context.Context,
		params *ec2.DescribeInstancesInput,
		optFns ...func(*ec2.Options),
	) (*ec2.DescribeInstancesOutput, error)

	DescribeSnapshots(
		ctx context.Context,
		params *ec2.DescribeSnapshotsInput,
		optFns ...func(*ec2.Options),
	) (*ec2.DescribeSnapshotsOutput, error)

	DescribeVolumes(
		ctx context.Context,
		params *ec2.DescribeVolumesInput,
		optFns ...func(*ec2.Options),
	) (*ec2.DescribeVolumesOutput, error)

	DeleteSnapshot(
		ctx context.Context,
		params *ec2.DeleteSnapshotInput,
		optFns ...func(*ec2.Options),
	) (*ec2.DeleteSnapshotOutput, error)
}

// OrganizationsClient is the subset of Organizations operations used to
// enumerate member accounts. Satisfies organizations.ListAccountsAPIClient.
type OrganizationsClient interface {
	ListAccounts(
		ctx context.Context,
		params *organizations.ListAccountsInput,
		optFns ...func(*organizations.Options),
	) (*organizations.ListAccountsOutput, error)
}

// ---------------------------------------------------------------------------
// ClientSet and ClientFactory
// ---------------------------------------------------------------------------

// ClientSet holds fully initialised AWS service clients for one account
// session. All fields are interfaces so they can be replaced with mocks in
// tests without importing the AWS SDK in test files.
type ClientSet struct {
	STS           STSClient
	EC2           SnapshotEC2Client
	Organizations OrganizationsClient
}

// ClientFactory creates a ClientSet from an aws.Config.
// Swap this in tests to inject mock clients.
type ClientFactory func(cfg aws.Config) *ClientSet

// NewClientSet is the production ClientFactory. It constructs real AWS SDK
// clients from cfg.
func NewClientSet(cfg aws.Config) *ClientSet {
	return &ClientSet{
		STS:           sts.NewFromConfig(cfg),
		EC2:           ec2.NewFromConfig(cfg),
		Organizations: organizations.NewFromConfig(cfg),
	}
}
