// Package version exposes build metadata for the controller.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags and default to sensible values for local builds.
// Helper functions Short and Full render the build description for CLI
// output, the startup log line and telemetry.
package version
