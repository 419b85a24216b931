// Package settings provides build metadata, runtime configuration, and
// context helpers shared by the pausecomplete command and its packages.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "pausecomplete"

// VersionInformation is populated at build time via ldflags and holds the
// commit hash, semantic version, and build timestamp of the running binary.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-nightly",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build, including the commit hash,
// build version, and build timestamp.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// RecordingSettings selects the recording and the pause inside it that
// completions are resolved against.
type RecordingSettings struct {
	Path  string
	Pause string
	Frame string
	Watch bool
}

// Run holds configuration settings for a single execution of the application.
type Run struct {
	MinLogLevel int8
	Recording   RecordingSettings
	Interactive bool
	NoColor     bool
	ExitOnError bool
}

// NewCliParams initializes and returns a pointer to a Run struct with default CLI parameters.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Interactive: false,
		NoColor:     false,
		ExitOnError: true,
	}
}

// HasPause reports whether a pause was selected explicitly.
func (r *Run) HasPause() bool {
	return r != nil && r.Recording.Pause != ""
}
