package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version number
	Version = "0.3.0"

	// GitCommit is the git commit hash (injected at build time)
	GitCommit = "unknown"

	// BuildDate is the build date (injected at build time)
	BuildDate = "unknown"
)

// Info contains version information
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns comprehensive version information
func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// GetVersionString returns a formatted version string
func GetVersionString() string {
	if GitCommit == "unknown" {
		return fmt.Sprintf("ShareSquad %s", Version)
	}
	return fmt.Sprintf("ShareSquad %s (%s)", Version, GitCommit)
}

// GetDetailedVersionString returns a multi-line version description
func GetDetailedVersionString() string {
	info := GetInfo()
	return fmt.Sprintf("ShareSquad %s\n  commit:   %s\n  built:    %s\n  go:       %s\n  platform: %s",
		info.Version, info.GitCommit, info.BuildDate, info.GoVersion, info.Platform)
}
