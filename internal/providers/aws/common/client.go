package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/models"
)

// AccountSession is a resolved set of credentials scoped to one AWS account,
// with its SDK configuration and initialised service clients. It is the unit
// passed between provider functions and into the engine.
type AccountSession struct {
	// Account is the account these credentials act in.
	Account models.Account

	// Region is the single region audited for this account.
	Region string

	// Partition is the ARN partition of the account (e.g. "aws", "aws-cn").
	Partition string

	// Config is the fully loaded AWS SDK v2 configuration.
	Config aws.Config

	// Clients holds initialised service clients scoped to Config.
	Clients *ClientSet
}

// SessionOptions controls how the base session and per-account sessions are
// built.
type SessionOptions struct {
	// Profile is the shared config profile. Empty means the default
	// credential chain.
	Profile string

	// Region is the region to audit. Defaults to us-east-1.
	Region string

	// RoleName is the IAM role assumed in each member account.
	RoleName string

	// SessionName is the STS role session name.
	SessionName string
}

// SessionProvider loads AWS sessions. It is the sole entry point for AWS
// credential management across the provider layer.
type SessionProvider interface {
	// LoadDefault returns the ambient session: default credential chain (or
	// the configured profile) with the account resolved through STS.
	LoadDefault(ctx context.Context) (*AccountSession, error)

	// ForAccount assumes the audit role in account using base's credentials
	// and returns a session scoped to that account.
	ForAccount(ctx context.Context, base *AccountSession, account models.Account) (*AccountSession, error)
}
