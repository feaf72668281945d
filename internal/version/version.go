package version

import "fmt"

var (
	// Version is the semantic version of the build. It can be overridden via ldflags.
	Version = "1.0.0"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full returns a human-readable build description with commit and build time.
// Deployed controllers report it over telemetry and in their startup log
// line, so a fleet can be audited without shell access.
func Full() string {
	return fmt.Sprintf("plantguard %s (commit %s, built %s)", Version, Commit, BuildTime)
}
