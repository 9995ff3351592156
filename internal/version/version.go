// Package version holds build metadata injected with -ldflags:
//
//	go build -ldflags "-X github.com/smazurov/multistream/internal/version.Version=v1.2.0"
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the release tag, or "dev" for local builds.
	Version = "dev"
	// GitCommit is the commit hash the binary was built from.
	GitCommit = "unknown"
	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// Info contains version and build metadata.
type Info struct {
	Version   string `json:"version" doc:"Release version" example:"v1.2.0"`
	GitCommit string `json:"git_commit" doc:"Git commit hash" example:"3f2a9c1"`
	BuildDate string `json:"build_date" doc:"Build timestamp" example:"2025-01-15T10:30:00Z"`
	GoVersion string `json:"go_version" doc:"Go toolchain" example:"go1.24.11"`
	Platform  string `json:"platform" doc:"OS and architecture" example:"linux/amd64"`
}

// Get returns version and build information. When the commit was not
// injected it falls back to the VCS stamp recorded by the Go toolchain.
func Get() Info {
	commit := GitCommit
	if commit == "unknown" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" && s.Value != "" {
					commit = s.Value
				}
			}
		}
	}
	return Info{
		Version:   Version,
		GitCommit: commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a one-line description for --version output.
func (i Info) String() string {
	return fmt.Sprintf("multistream %s (commit %s, built %s, %s %s)", i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}
