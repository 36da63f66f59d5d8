package common

import (
	"errors"

	"github.com/aws/smithy-go"
)

// Well-known EC2 API error codes.
const (
	// CodeDryRunOperation is returned by a DryRun request that would have
	// succeeded.
	CodeDryRunOperation = "DryRunOperation"

	// CodeVolumeNotFound is returned by DescribeVolumes for an unknown ID.
	CodeVolumeNotFound = "InvalidVolume.NotFound"
)

// APIErrorCode returns the AWS error code carried by err, or "" when err is
// not an API error.
func APIErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// IsAPIErrorCode reports whether err carries the AWS error code code.
func IsAPIErrorCode(err error, code string) bool {
	return err != nil && APIErrorCode(err) == code
}
