// Package version provides build version information.
package version

import "fmt"

// Injected at build time:
//
//	-ldflags "-X github.com/Norgate-AV/pbirefresh/internal/version.version=v1.2.3 ..."
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info is the build metadata carried in run reports
type Info struct {
	Version string `yaml:"version" json:"version"`
	Commit  string `yaml:"commit"  json:"commit"`
	Date    string `yaml:"date"    json:"date"`
}

// GetInfo returns the build metadata of this binary
func GetInfo() Info {
	return Info{Version: version, Commit: commit, Date: date}
}

// GetVersion returns the semantic version, or "dev" for local builds
func GetVersion() string {
	return version
}

// GetCommit returns the git commit hash.
func GetCommit() string {
	return commit
}

// GetDate returns the build date.
func GetDate() string {
	return date
}

func (i Info) String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", i.Version, i.Commit, i.Date)
}

// GetFullVersion returns version with commit and date info
func GetFullVersion() string {
	return GetInfo().String()
}
