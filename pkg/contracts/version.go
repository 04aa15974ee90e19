package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the release of the service and the command line tool.
	Version = "1.2.0"

	// APIVersion is the version of the HTTP API.
	APIVersion = "v1"
)

// Set with -ldflags "-X radiomics/pkg/contracts.BuildTime=... -X ...GitCommit=...".
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionString describes the running binary for --version output.
func VersionString() string {
	return fmt.Sprintf("%s (api %s, commit %s, built %s, %s %s/%s)",
		Version, APIVersion, GitCommit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
