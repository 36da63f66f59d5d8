package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/models"
	"github.com/pankaj-dahiya-devops/snapreaper/internal/version"
)

const (
	// DefaultRegion is used when neither options nor the profile set one.
	DefaultRegion = "us-east-1"

	// DefaultRoleName is the role assumed in each member account.
	DefaultRoleName = "SnapshotAuditRole"

	// DefaultSessionName is the STS role session name.
	DefaultSessionName = "SnapshotAuditSession"

	defaultPartition = "aws"
)

// DefaultSessionProvider is the production implementation of SessionProvider.
// It reads credentials through the standard AWS SDK v2 chain.
//
// Inject a custom ClientFactory via NewDefaultSessionProviderWithFactory to
// replace real SDK clients with mocks in unit tests.
type DefaultSessionProvider struct {
	opts    SessionOptions
	factory ClientFactory

	// loadConfig is swapped in tests to avoid touching ~/.aws.
	loadConfig func(ctx context.Context, opts SessionOptions) (aws.Config, error)
}

// NewDefaultSessionProvider returns a provider backed by the real AWS SDK.
func NewDefaultSessionProvider(opts SessionOptions) *DefaultSessionProvider {
	return NewDefaultSessionProviderWithFactory(opts, NewClientSet)
}

// NewDefaultSessionProviderWithFactory returns a provider that uses f to
// create its ClientSets. Pass a mock factory in tests.
func NewDefaultSessionProviderWithFactory(opts SessionOptions, f ClientFactory) *DefaultSessionProvider {
	return &DefaultSessionProvider{
		opts:       withDefaults(opts),
		factory:    f,
		loadConfig: loadSDKConfig,
	}
}

// ---------------------------------------------------------------------------
// SessionProvider implementation
// ---------------------------------------------------------------------------

// LoadDefault loads the SDK config for the configured profile (or the default
// chain) and resolves the caller's account through STS GetCallerIdentity.
func (p *DefaultSessionProvider) LoadDefault(ctx context.Context) (*AccountSession, error) {
	cfg, err := p.loadConfig(ctx, p.opts)
	if err != nil {
		return nil, fmt.Errorf("load AWS config for profile %q: %w", profileDisplayName(p.opts.Profile), err)
	}
	if cfg.Region == "" {
		cfg.Region = p.opts.Region
	}

	clients := p.factory(cfg)

	out, err := clients.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("STS GetCallerIdentity: %w", err)
	}
	if out.Account == nil {
		return nil, fmt.Errorf("STS GetCallerIdentity returned nil account")
	}

	return &AccountSession{
		Account:   models.Account{ID: aws.ToString(out.Account)},
		Region:    cfg.Region,
		Partition: partitionFromARN(aws.ToString(out.Arn)),
		Config:    cfg,
		Clients:   clients,
	}, nil
}

// ForAccount calls STS AssumeRole for the audit role in account and returns a
// session whose clients use the temporary credentials. The region and
// partition are inherited from base.
func (p *DefaultSessionProvider) ForAccount(ctx context.Context, base *AccountSession, account models.Account) (*AccountSession, error) {
	roleARN := RoleARN(base.Partition, account.ID, p.opts.RoleName)

	out, err := base.Clients.STS.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String(p.opts.SessionName),
	})
	if err != nil {
		return nil, fmt.Errorf("assume role %s: %w", roleARN, err)
	}
	if out.Credentials == nil {
		return nil, fmt.Errorf("assume role %s: no credentials returned", roleARN)
	}

	cfg := base.Config.Copy()
	cfg.Credentials = aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
		aws.ToString(out.Credentials.AccessKeyId),
		aws.ToString(out.Credentials.SecretAccessKey),
		aws.ToString(out.Credentials.SessionToken),
	))

	return &AccountSession{
		Account:   account,
		Region:    base.Region,
		Partition: base.Partition,
		Config:    cfg,
		Clients:   p.factory(cfg),
	}, nil
}

// RoleARN builds the IAM role ARN assumed in accountID.
func RoleARN(partition, accountID, roleName string) string {
	if partition == "" {
		partition = defaultPartition
	}
	return fmt.Sprintf("arn:%s:iam::%s:role/%s", partition, accountID, roleName)
}

// ---------------------------------------------------------------------------
// Package-private helpers
// ---------------------------------------------------------------------------

func loadSDKConfig(ctx context.Context, opts SessionOptions) (aws.Config, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithAppID(version.AppID()),
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	return awsconfig.LoadDefaultConfig(ctx, loadOpts...)
}

func withDefaults(opts SessionOptions) SessionOptions {
	if opts.Region == "" {
		opts.Region = DefaultRegion
	}
	if opts.RoleName == "" {
		opts.RoleName = DefaultRoleName
	}
	if opts.SessionName == "" {
		opts.SessionName = DefaultSessionName
	}
	return opts
}

// profileDisplayName returns a human-readable profile identifier. An empty
// string (the default profile) is shown as "default".
func profileDisplayName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}

// partitionFromARN extracts the partition segment of arn
// ("arn:aws-us-gov:sts::..." → "aws-us-gov"). Falls back to "aws".
func partitionFromARN(arn string) string {
	parts := strings.SplitN(arn, ":", 3)
	if len(parts) < 3 || parts[0] != "arn" || parts[1] == "" {
		return defaultPartition
	}
	return parts[1]
}
