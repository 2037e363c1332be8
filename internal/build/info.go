// Package build exposes version and build metadata for the binary.
package build

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	_ "embed"
)

//go:embed VERSION
var rawVersion []byte

var (
	// Version is set by the release pipeline; falls back to the VERSION
	// file for local builds.
	Version   = ""
	Commit    = ""
	BuildTime = ""
	GoVersion = runtime.Version()
	Platform  = runtime.GOOS + "/" + runtime.GOARCH
	StartTime = time.Now()
)

//nolint:gochecknoinits // version fallback.
func init() {
	if Version == "" {
		Version = strings.TrimSpace(string(rawVersion))
	}
}

// Info is the build metadata reported by the version and build-info surfaces.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Uptime    string `json:"uptime"`
}

// GetBuildInfo snapshots the build metadata, including process uptime.
func GetBuildInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		Platform:  Platform,
		Uptime:    time.Since(StartTime).Round(time.Second).String(),
	}
}

func (i Info) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Version: %s\n", i.Version)

	if i.Commit != "" {
		fmt.Fprintf(&sb, "Commit: %s\n", i.Commit)
	}

	if i.BuildTime != "" {
		fmt.Fprintf(&sb, "Build Time: %s\n", i.BuildTime)
	}

	fmt.Fprintf(&sb, "Go Version: %s\n", i.GoVersion)
	fmt.Fprintf(&sb, "Platform: %s\n", i.Platform)
	fmt.Fprintf(&sb, "Uptime: %s\n", i.Uptime)

	return sb.String()
}
