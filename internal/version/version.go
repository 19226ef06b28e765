// Package version holds build information, overridable with -ldflags.
package version

// Version is the semantic version of refmasker.
var Version = "0.3.0-dev"

// GitCommit is an optional git commit hash.
var GitCommit = ""

// String is the one-line version banner.
func String() string {
	if GitCommit != "" {
		return Version + " (" + GitCommit + ")"
	}
	return Version
}
