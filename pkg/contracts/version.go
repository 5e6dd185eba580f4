// Package contracts carries the shared contract definitions: domain types,
// websocket events and version information.
package contracts

import (
	"fmt"
	"runtime"
)

// Version is the current version of the scanner.
const Version = "0.1.0"

var (
	// BuildTime is set during build using ldflags.
	BuildTime = "unknown"

	// GitCommit is set during build using ldflags.
	GitCommit = "unknown"
)

// FullVersion returns the complete version string including build metadata.
func FullVersion() string {
	return fmt.Sprintf("%s (commit %s, built %s, %s/%s)",
		Version, GitCommit, BuildTime, runtime.GOOS, runtime.GOARCH)
}
