// Package version identifies the snapreaper build. The values are set with
// -ldflags at release time; local builds report "dev".
package version

import "fmt"

// Name is the binary name used in version output and the AWS user agent.
const Name = "snapreaper"

// maxAppIDLen is the longest application ID the AWS SDK forwards.
const maxAppIDLen = 50

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns the text printed by "snapreaper version".
func Info() string {
	return fmt.Sprintf("%s version %s\ncommit: %s\nbuilt: %s\n", Name, Version, Commit, Date)
}

// AppID returns the application ID attached to every AWS API call, so the
// audit's EC2 and STS traffic can be told apart in CloudTrail.
func AppID() string {
	id := Name + "/" + Version
	if r := []rune(id); len(r) > maxAppIDLen {
		id = string(r[:maxAppIDLen])
	}
	return id
}
