// Package buildinfo holds version information injected by govvv at build
// time via -ldflags.
package buildinfo

var (
	// GitCommit is set by govvv at build time.
	GitCommit = "n/a"
	// GitBranch is set by govvv at build time.
	GitBranch = "n/a"
	// GitState is set by govvv at build time.
	GitState = "n/a"
	// GitSummary is set by govvv at build time.
	GitSummary = "n/a"
	// BuildDate is set by govvv at build time.
	BuildDate = "n/a"
	// Version is set by govvv at build time.
	Version = "n/a"
)
